package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
)

type bookingEventRepository struct{}

func NewBookingEventRepository() repository.BookingEventRepository {
	return &bookingEventRepository{}
}

func (r *bookingEventRepository) Create(ctx context.Context, q repository.DBTX, e *domain.BookingEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode booking event: %w", err)
	}
	query := `INSERT INTO booking_events (id, tenant_id, type, booking_id, payload, occurred_on) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := q.ExecContext(ctx, query, e.ID, e.TenantID, e.Type, e.BookingID, payload, e.OccurredOn); err != nil {
		return fmt.Errorf("failed to write booking event: %w", err)
	}
	return nil
}

// ListUnpublished returns the oldest pending events that still have attempts left,
// skipping rows another relay already holds.
func (r *bookingEventRepository) ListUnpublished(ctx context.Context, q repository.DBTX, limit, maxAttempts int32) ([]domain.BookingEvent, error) {
	query := `SELECT payload, attempts FROM booking_events WHERE published_on IS NULL AND attempts < $2
	          ORDER BY occurred_on LIMIT $1 FOR UPDATE SKIP LOCKED`
	rows, err := q.QueryContext(ctx, query, limit, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpublished events: %w", err)
	}
	defer rows.Close()

	var events []domain.BookingEvent
	for rows.Next() {
		var payload []byte
		var attempts int32
		if err := rows.Scan(&payload, &attempts); err != nil {
			return nil, err
		}
		var e domain.BookingEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode booking event: %w", err)
		}
		e.Attempts = attempts
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *bookingEventRepository) MarkPublished(ctx context.Context, q repository.DBTX, id string) error {
	_, err := q.ExecContext(ctx, `UPDATE booking_events SET published_on = NOW(), attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark event published: %w", err)
	}
	return nil
}

func (r *bookingEventRepository) RecordAttempt(ctx context.Context, q repository.DBTX, id string) error {
	_, err := q.ExecContext(ctx, `UPDATE booking_events SET attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to record publish attempt: %w", err)
	}
	return nil
}
