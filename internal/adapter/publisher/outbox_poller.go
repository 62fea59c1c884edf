package publisher

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// MessageWriter is the subset of *kafka.Writer the poller needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller relays committed outbox rows to Kafka. Delivery is
// at-least-once: an event is marked published only after the write succeeds.
type OutboxPoller struct {
	repo      port.OutboxRepository
	writer    MessageWriter
	interval  time.Duration
	batchSize int
	logger    *zap.Logger
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}
}

func NewOutboxPoller(repo port.OutboxRepository, writer MessageWriter, interval time.Duration, batchSize int, logger *zap.Logger) *OutboxPoller {
	return &OutboxPoller{
		repo:      repo,
		writer:    writer,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.repo.GetUnpublishedEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			// Later events for the same order must not overtake this one.
			p.logger.Warn("failed to publish outbox event",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			return published
		}

		if err := p.repo.MarkEventPublished(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark outbox event published", zap.String("event_id", event.ID), zap.Error(err))
			return published
		}
		published++
	}

	if published > 0 {
		p.logger.Debug("outbox events published", zap.Int("count", published))
	}
	return published
}

func (p *OutboxPoller) publish(ctx context.Context, event domain.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id keeps per-order ordering
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}
