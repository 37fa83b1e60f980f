package postgres

import (
	"context"
	"fmt"

	"github.com/naochaLuwang/daciana-cart/internal/domain"
	"github.com/naochaLuwang/daciana-cart/pkg/database"
)

// ShippingMethodRepository implements remote.ShippingMethodStore using
// PostgreSQL.
type ShippingMethodRepository struct {
	pool database.DBTX
}

// NewShippingMethodRepository creates a new PostgreSQL-backed shipping method
// repository.
func NewShippingMethodRepository(pool database.DBTX) *ShippingMethodRepository {
	return &ShippingMethodRepository{pool: pool}
}

// ListShippingMethods returns the active shipping methods, cheapest first.
func (r *ShippingMethodRepository) ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	query := `
		SELECT id, name, price, delivery_estimate
		FROM shipping_methods
		WHERE active
		ORDER BY price, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query shipping methods: %w", err)
	}
	defer rows.Close()

	var methods []domain.ShippingMethod
	for rows.Next() {
		var m domain.ShippingMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.DeliveryEstimate); err != nil {
			return nil, fmt.Errorf("scan shipping method: %w", err)
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipping methods: %w", err)
	}

	return methods, nil
}
