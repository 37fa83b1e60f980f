package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/naochaLuwang/daciana-cart/internal/domain"
	pkgkafka "github.com/naochaLuwang/daciana-cart/pkg/kafka"
)

// Kafka topic constants for cart session events.
const (
	TopicCartUpdated = "storefront.cart.updated"
	TopicCartCleared = "storefront.cart.cleared"
	TopicCartSynced  = "storefront.cart.synced"
)

// Aggregate type constant.
const AggregateTypeCart = "cart"

// Source identifier for events originating from the cart session service.
const SourceCartSession = "cart-session"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID      string         `json:"user_id"`
	Items       []CartItemData `json:"items"`
	ItemCount   int            `json:"item_count"`
	TotalAmount int64          `json:"total_amount"`
}

// CartItemData is the line payload within cart events.
type CartItemData struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// CartSyncedData is the payload for a cart.synced event, emitted after a
// successful push of the local cart to the remote mirror.
type CartSyncedData struct {
	UserID    string `json:"user_id"`
	CartID    string `json:"cart_id"`
	ItemCount int    `json:"item_count"`
}

// Producer publishes cart session events to Kafka. Publishing is best-effort:
// a broker outage must never block or fail a cart operation, so callers log
// returned errors instead of propagating them.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the cart session service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event for the given snapshot.
func (p *Producer) PublishCartUpdated(ctx context.Context, userID string, cart domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			Price:     item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	data := CartUpdatedData{
		UserID:      userID,
		Items:       items,
		ItemCount:   cart.TotalItems(),
		TotalAmount: cart.TotalAmount(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, userID, AggregateTypeCart, SourceCartSession, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("user_id", userID),
		slog.Int("item_count", cart.TotalItems()),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string) error {
	data := CartClearedData{UserID: userID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, userID, AggregateTypeCart, SourceCartSession, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("user_id", userID),
	)

	return nil
}

// PublishCartSynced publishes a cart.synced event after a push completes.
func (p *Producer) PublishCartSynced(ctx context.Context, userID, cartID string, itemCount int) error {
	data := CartSyncedData{
		UserID:    userID,
		CartID:    cartID,
		ItemCount: itemCount,
	}

	event, err := pkgkafka.NewEvent(TopicCartSynced, userID, AggregateTypeCart, SourceCartSession, data)
	if err != nil {
		return fmt.Errorf("create cart.synced event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartSynced, event); err != nil {
		return fmt.Errorf("publish cart.synced event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.synced event",
		slog.String("user_id", userID),
		slog.String("cart_id", cartID),
		slog.Int("item_count", itemCount),
	)

	return nil
}
