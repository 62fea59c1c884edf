package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

func insertOutboxEvent(ctx context.Context, q queryer, e domain.OutboxEvent) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.AggregateID, e.EventType, []byte(e.Payload), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetUnpublishedEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (m *MySQLAdapter) MarkEventPublished(ctx context.Context, eventID string) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE outbox_events SET published_at = ? WHERE id = ? AND published_at IS NULL`,
		time.Now().UTC(), eventID,
	)
	if err != nil {
		return fmt.Errorf("mark outbox event published: %w", err)
	}
	return nil
}
