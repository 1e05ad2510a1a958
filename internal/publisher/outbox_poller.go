package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/domain"
	r "github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/pkg/circuitbreaker"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	OrderPlacedTopic = "order-placed"
	batchSize        = 100
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller publishes orders that have not yet been published. The orders
// collection is the outbox; published_at marks delivery.
type OutboxPoller struct {
	timeout   time.Duration
	eventTick time.Duration
	repo      r.OrderRepository
	writer    MessageWriter
	breaker   *circuitbreaker.Breaker
}

func NewOutboxPoller(repo r.OrderRepository, tick time.Duration, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  OrderPlacedTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newOutboxPoller(repo, w, tick)
}

func newOutboxPoller(repo r.OrderRepository, w MessageWriter, tick time.Duration) *OutboxPoller {
	if tick <= 0 {
		tick = time.Second
	}
	return &OutboxPoller{
		timeout:   5 * time.Second,
		eventTick: tick,
		repo:      repo,
		writer:    w,
		breaker: circuitbreaker.New(circuitbreaker.Settings{
			Name:             "order-placed-writer",
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		}),
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedOrders(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() {
	if err := p.writer.Close(); err != nil {
		slog.Error("error closing kafka writer", "error", err)
	}
}

func (p *OutboxPoller) processUnpublishedOrders(ctx context.Context) {
	orders, err := p.repo.ListUnpublishedOrders(ctx, batchSize)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch unpublished orders", "error", err)
		return
	}

	for _, order := range orders {
		err := p.breaker.Do(func() error {
			return p.publish(ctx, order)
		})
		if errors.Is(err, circuitbreaker.ErrOpen) {
			slog.WarnContext(ctx, "kafka circuit open, postponing batch", "remaining", len(orders))
			return
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to publish order", "order_id", order.ID.Hex(), "error", err)
			continue
		}

		if err := p.repo.MarkOrderPublished(ctx, order.ID); err != nil {
			slog.ErrorContext(ctx, "failed to mark order as published", "order_id", order.ID.Hex(), "error", err)
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, order domain.Order) error {
	payload, err := json.Marshal(domain.NewOrderPlacedEvent(order))
	if err != nil {
		return fmt.Errorf("marshal order placed event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.UserID), // per-user ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(domain.EventTypeOrderPlaced)},
			{Key: "event_id", Value: []byte(uuid.NewString())},
		},
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, msg)
}
