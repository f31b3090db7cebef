package service

import (
	"context"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/metrics"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"

	"github.com/google/uuid"
)

type lifecycleNotifier struct {
	tx           repository.Transactor
	activityRepo repository.ActivityLogRepository
	eventRepo    repository.BookingEventRepository
	publisher    EventPublisher
}

// NewLifecycleNotifier builds the notifier. A nil publisher leaves events in the
// outbox for the relay job.
func NewLifecycleNotifier(
	tx repository.Transactor,
	activityRepo repository.ActivityLogRepository,
	eventRepo repository.BookingEventRepository,
	publisher EventPublisher,
) LifecycleNotifier {
	return &lifecycleNotifier{
		tx:           tx,
		activityRepo: activityRepo,
		eventRepo:    eventRepo,
		publisher:    publisher,
	}
}

func (n *lifecycleNotifier) OnTransition(ctx context.Context, q repository.DBTX, actor domain.Actor, b *domain.Booking, previous domain.BookingStatus, eventType domain.BookingEventType, description string, metadata map[string]any) (*domain.BookingEvent, error) {
	event := &domain.BookingEvent{
		ID:             uuid.NewString(),
		TenantID:       b.TenantID,
		Type:           eventType,
		BookingID:      b.ID,
		BookingNumber:  b.BookingNumber,
		CustomerID:     b.CustomerID,
		EquipmentIDs:   b.EquipmentIDs(),
		PreviousStatus: previous,
		NewStatus:      b.Status,
		TotalPrice:     b.TotalPrice,
		StartDate:      b.StartDate,
		EndDate:        b.EndDate,
		ActorID:        actor.UserID,
		OccurredOn:     time.Now().UTC(),
	}

	meta := map[string]any{
		"event_id":      event.ID,
		"new_status":    b.Status,
		"total_price":   b.TotalPrice.StringFixed(2),
		"equipment_ids": event.EquipmentIDs,
	}
	if previous != "" {
		meta["previous_status"] = previous
	}
	for k, v := range metadata {
		meta[k] = v
	}

	activity := &domain.ActivityLog{
		TenantID:    b.TenantID,
		ActorID:     actor.UserID,
		EntityType:  domain.EntityTypeBooking,
		EntityID:    b.ID,
		Action:      activityActionFor(eventType),
		Description: description,
		Metadata:    meta,
	}
	if err := n.activityRepo.Create(ctx, q, activity); err != nil {
		return nil, err
	}
	if err := n.eventRepo.Create(ctx, q, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Dispatch publishes committed events. Failures stay in the outbox and are retried by the relay.
func (n *lifecycleNotifier) Dispatch(ctx context.Context, events ...*domain.BookingEvent) {
	if n.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	for _, event := range events {
		if event == nil {
			continue
		}
		if err := n.publisher.Publish(ctx, event); err != nil {
			metrics.EventsPublished.WithLabelValues("failed").Inc()
			logger.Warn("Failed to publish booking event, leaving it for the relay",
				"eventID", event.ID, "type", event.Type, "bookingID", event.BookingID, "error", err)
			if txErr := n.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
				return n.eventRepo.RecordAttempt(ctx, q, event.ID)
			}); txErr != nil {
				logger.Error("Failed to record publish attempt", "eventID", event.ID, "error", txErr)
			}
			continue
		}

		metrics.EventsPublished.WithLabelValues("published").Inc()
		if err := n.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
			return n.eventRepo.MarkPublished(ctx, q, event.ID)
		}); err != nil {
			// The relay will publish it again; consumers deduplicate by event id.
			logger.Error("Failed to mark booking event published", "eventID", event.ID, "error", err)
		}
	}
}

func (n *lifecycleNotifier) RelayPending(ctx context.Context, limit, maxAttempts int32) (int, error) {
	logger.EnterMethod("lifecycleNotifier.RelayPending", "limit", limit)
	if n.publisher == nil {
		logger.ExitMethod("lifecycleNotifier.RelayPending", "published", 0, "reason", "no publisher configured")
		return 0, nil
	}

	published := 0
	err := n.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		events, err := n.eventRepo.ListUnpublished(ctx, q, limit, maxAttempts)
		if err != nil {
			return err
		}
		for i := range events {
			event := &events[i]
			if err := n.publisher.Publish(ctx, event); err != nil {
				metrics.EventsPublished.WithLabelValues("failed").Inc()
				logger.Warn("Relay failed to publish booking event",
					"eventID", event.ID, "attempts", event.Attempts+1, "error", err)
				if err := n.eventRepo.RecordAttempt(ctx, q, event.ID); err != nil {
					return err
				}
				continue
			}
			metrics.EventsPublished.WithLabelValues("relayed").Inc()
			if err := n.eventRepo.MarkPublished(ctx, q, event.ID); err != nil {
				return err
			}
			published++
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("lifecycleNotifier.RelayPending", err)
		return published, err
	}

	logger.ExitMethod("lifecycleNotifier.RelayPending", "published", published)
	return published, nil
}

func activityActionFor(eventType domain.BookingEventType) domain.ActivityAction {
	switch eventType {
	case domain.BookingEventCreated:
		return domain.ActivityActionCreate
	case domain.BookingEventUpdated:
		return domain.ActivityActionUpdate
	case domain.BookingEventDeleted:
		return domain.ActivityActionDelete
	default:
		return domain.ActivityActionStatusChange
	}
}
