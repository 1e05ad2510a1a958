package poller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	c "github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	r "github.com/fjod/storefront/internal/repository"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderPlacedTopic = "order-placed"
	consumerGroup    = "cart-reconciler"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// CartReconciler deletes the cart an order was placed from when checkout
// could not delete it itself. A cart saved after the ordered version is kept.
type CartReconciler struct {
	repo         r.CartRepository
	reader       MessageReader
	cache        c.CartCache
	retryBackoff time.Duration
}

func NewCartReconciler(repo r.CartRepository, cache c.CartCache, brokers ...string) *CartReconciler {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    OrderPlacedTopic,
		GroupID:  consumerGroup,
		MaxBytes: 10e6, // 10MB
	})
	return newCartReconciler(repo, cache, reader)
}

func newCartReconciler(repo r.CartRepository, cache c.CartCache, reader MessageReader) *CartReconciler {
	return &CartReconciler{
		repo:         repo,
		reader:       reader,
		cache:        cache,
		retryBackoff: time.Second,
	}
}

func (p *CartReconciler) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.handleNext(ctx); err != nil && ctx.Err() == nil {
			select {
			case <-time.After(p.retryBackoff):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *CartReconciler) Close() {
	if err := p.reader.Close(); err != nil {
		slog.Error("error closing kafka reader", "error", err)
	}
}

// handleNext returns an error only when reading from the broker failed.
// Malformed messages are logged and skipped.
func (p *CartReconciler) handleNext(ctx context.Context) error {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.ErrorContext(ctx, "error reading message", "error", err)
		}
		return err
	}

	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		slog.WarnContext(ctx, "error parsing order placed event", "offset", m.Offset, "error", err)
		return nil
	}
	if event.UserID == "" {
		slog.WarnContext(ctx, "order placed event without user_id", "order_id", event.OrderID)
		return nil
	}
	cartID, err := primitive.ObjectIDFromHex(event.CartID)
	if err != nil {
		slog.WarnContext(ctx, "order placed event with invalid cart_id", "order_id", event.OrderID, "cart_id", event.CartID)
		return nil
	}

	p.reconcile(ctx, event.UserID, cartID, event.CartVersion)
	return nil
}

func (p *CartReconciler) reconcile(ctx context.Context, userID string, cartID primitive.ObjectID, version int64) {
	err := p.repo.DeleteCart(ctx, userID, cartID, version)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "deleted checked out cart", "user_id", userID, "cart_id", cartID.Hex())
	case errors.Is(err, r.ErrCartNotFound):
		// Checkout already deleted it, or the user has since changed it.
	default:
		slog.ErrorContext(ctx, "failed to delete cart", "user_id", userID, "error", err)
		return
	}

	if err := p.cache.Delete(ctx, userID); err != nil {
		slog.WarnContext(ctx, "failed to delete cached cart", "user_id", userID, "error", err)
	}
}
