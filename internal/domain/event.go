package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingEventType string

const (
	BookingEventCreated       BookingEventType = "booking.created"
	BookingEventUpdated       BookingEventType = "booking.updated"
	BookingEventStatusChanged BookingEventType = "booking.status_changed"
	BookingEventDeleted       BookingEventType = "booking.deleted"
)

// BookingEvent is an outbox row. It is written in the same transaction as the
// change it describes and published to the broker after commit.
type BookingEvent struct {
	ID             string           `json:"id"`
	TenantID       int32            `json:"tenant_id"`
	Type           BookingEventType `json:"type"`
	BookingID      int32            `json:"booking_id"`
	BookingNumber  int32            `json:"booking_number"`
	CustomerID     int32            `json:"customer_id"`
	EquipmentIDs   []int32          `json:"equipment_ids"`
	PreviousStatus BookingStatus    `json:"previous_status,omitempty"`
	NewStatus      BookingStatus    `json:"new_status"`
	TotalPrice     decimal.Decimal  `json:"total_price"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        time.Time        `json:"end_date"`
	ActorID        int32            `json:"actor_id"`
	OccurredOn     time.Time        `json:"occurred_on"`
	PublishedOn    *time.Time       `json:"published_on,omitempty"`
	Attempts       int32            `json:"attempts"`
}
