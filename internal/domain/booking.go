package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// bookingTransitions is the only place allowed status changes are defined.
// COMPLETED is terminal. PENDING can be re-entered from CONFIRMED and CANCELLED.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusPending, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCancelled: {BookingStatusPending},
	BookingStatusCompleted: {},
}

// ActiveBookingStatuses hold reserved stock and count as demand.
var ActiveBookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

func ParseBookingStatus(s string) (BookingStatus, bool) {
	status := BookingStatus(s)
	_, ok := bookingTransitions[status]
	return status, ok
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether a booking in this status holds reserved stock.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// DateRange is a closed interval of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps uses the closed-interval test a0 <= b1 && b0 <= a1.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

type Booking struct {
	ID            int32           `json:"id"`
	TenantID      int32           `json:"tenant_id"`
	BookingNumber int32           `json:"booking_number"`
	CustomerID    int32           `json:"customer_id"`
	SiteID        *int32          `json:"site_id,omitempty"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	StartTime     *string         `json:"start_time,omitempty"`
	EndTime       *string         `json:"end_time,omitempty"`
	Status        BookingStatus   `json:"status"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	PriceOverride bool            `json:"price_override"`
	Notes         string          `json:"notes"`
	CreatedBy     int32           `json:"created_by"`
	Items         []BookingItem   `json:"items"`
	CreatedOn     time.Time       `json:"created_on"`
	UpdatedOn     time.Time       `json:"updated_on"`
}

func (b *Booking) Window() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// ItemsTotal sums the line item totals.
func (b *Booking) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// EquipmentIDs returns the distinct equipment referenced by the items, in item order.
func (b *Booking) EquipmentIDs() []int32 {
	seen := make(map[int32]bool, len(b.Items))
	ids := make([]int32, 0, len(b.Items))
	for _, item := range b.Items {
		if !seen[item.EquipmentID] {
			seen[item.EquipmentID] = true
			ids = append(ids, item.EquipmentID)
		}
	}
	return ids
}

// UnitIDs returns every serialized unit assigned across the items.
func (b *Booking) UnitIDs() []int32 {
	var ids []int32
	for _, item := range b.Items {
		ids = append(ids, item.UnitIDs...)
	}
	return ids
}

type BookingItem struct {
	ID          int32           `json:"id"`
	BookingID   int32           `json:"booking_id"`
	EquipmentID int32           `json:"equipment_id"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Notes       string          `json:"notes"`
	UnitIDs     []int32         `json:"unit_ids,omitempty"`
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	TenantID   int32
	Statuses   []BookingStatus
	CustomerID int32
	Page       int32
	PageSize   int32
}
