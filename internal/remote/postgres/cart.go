package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/naochaLuwang/daciana-cart/internal/domain"
	"github.com/naochaLuwang/daciana-cart/internal/remote"
	"github.com/naochaLuwang/daciana-cart/pkg/database"
)

// CartRepository implements remote.CartStore against the hosted PostgreSQL
// backend: one carts row per user, one cart_items row per (cart, variant).
type CartRepository struct {
	pool database.DBTX
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool database.DBTX) *CartRepository {
	return &CartRepository{pool: pool}
}

// FindCartItems returns the user's cart rows with product and variant
// references joined at read time. A user without a cart record yields
// (nil, false, nil) and never creates a record on the read path.
func (r *CartRepository) FindCartItems(ctx context.Context, userID string) ([]remote.CartItemRow, bool, error) {
	var cartID string
	err := r.pool.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find cart for user %s: %w", userID, err)
	}

	itemsQuery := `
		SELECT
			ci.quantity, ci.price_at_add,
			p.id, p.name, p.image_url,
			v.id, v.label, v.stock
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		LEFT JOIN product_variants v ON v.id = ci.variant_id
		WHERE ci.cart_id = $1
		ORDER BY ci.position`

	rows, err := r.pool.Query(ctx, itemsQuery, cartID)
	if err != nil {
		return nil, false, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []remote.CartItemRow
	for rows.Next() {
		var (
			item             remote.CartItemRow
			productID, name  *string
			imageURL         *string
			variantID, label *string
			stock            *int
		)

		if err := rows.Scan(
			&item.Quantity, &item.PriceAtAdd,
			&productID, &name, &imageURL,
			&variantID, &label, &stock,
		); err != nil {
			return nil, false, fmt.Errorf("scan cart item: %w", err)
		}

		if productID != nil {
			item.Product = &remote.ProductRef{ID: *productID}
			if name != nil {
				item.Product.Name = *name
			}
			if imageURL != nil {
				item.Product.ImageURL = *imageURL
			}
		}
		if variantID != nil {
			item.Variant = &remote.VariantRef{ID: *variantID}
			if label != nil {
				item.Variant.Label = *label
			}
			if stock != nil {
				item.Variant.Stock = *stock
			}
		}

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate cart items: %w", err)
	}

	return items, true, nil
}

// GetOrCreateCart resolves the user's cart record, creating one if absent.
// The upsert keys on user_id, so concurrent calls settle on the same row.
func (r *CartRepository) GetOrCreateCart(ctx context.Context, userID string) (string, error) {
	query := `
		INSERT INTO carts (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id`

	var cartID string
	if err := r.pool.QueryRow(ctx, query, uuid.New().String(), userID).Scan(&cartID); err != nil {
		return "", fmt.Errorf("get or create cart for user %s: %w", userID, err)
	}
	return cartID, nil
}

// ReplaceCartItems deletes all rows for the cart and inserts one row per line
// item, atomically. The insert must observe the delete, so both run in one
// transaction with the inserts strictly after the delete.
func (r *CartRepository) ReplaceCartItems(ctx context.Context, cartID string, items []domain.LineItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	insertQuery := `
		INSERT INTO cart_items (id, cart_id, product_id, variant_id, quantity, price_at_add, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for i, item := range items {
		_, err := tx.Exec(ctx, insertQuery,
			uuid.New().String(),
			cartID,
			item.ProductID,
			item.VariantID,
			item.Quantity,
			item.UnitPrice,
			i,
		)
		if err != nil {
			return fmt.Errorf("insert cart item %s: %w", item.VariantID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
