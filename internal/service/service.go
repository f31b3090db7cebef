package service

import (
	"context"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"

	"github.com/shopspring/decimal"
)

// StockLedger is the only writer of equipment counters. Every method locks the
// equipment row inside q and records a StockMovement next to the counter change.
type StockLedger interface {
	Reserve(ctx context.Context, q repository.DBTX, actor domain.Actor, equipmentID, quantity int32, bookingID *int32, reason string) (*domain.StockMovement, error)
	Release(ctx context.Context, q repository.DBTX, actor domain.Actor, equipmentID, quantity int32, bookingID *int32, outcome domain.ReleaseOutcome, reason string) (*domain.StockMovement, error)
	// AdjustTotal returns a nil movement when newTotal equals the current total.
	AdjustTotal(ctx context.Context, q repository.DBTX, actor domain.Actor, equipmentID, newTotal int32, reason string) (*domain.StockMovement, error)
	MoveCondition(ctx context.Context, q repository.DBTX, actor domain.Actor, equipmentID int32, from, to domain.StockBucket, quantity int32, reason string) (*domain.StockMovement, error)
}

type PricingCalculator interface {
	Quote(e *domain.Equipment, days, quantity int32, override *decimal.Decimal) (domain.PriceQuote, error)
	Price(ctx context.Context, tenantID, equipmentID, days, quantity int32) (*domain.PriceQuote, error)
}

// AvailabilityChecker decides whether a quantity fits. pending is quantity of the
// same equipment already claimed earlier in the request but not yet written.
type AvailabilityChecker interface {
	// CheckWindow tests physical capacity and overlapping demand only.
	CheckWindow(ctx context.Context, q repository.DBTX, e *domain.Equipment, window domain.DateRange, quantity, pending, excludeBookingID int32) (*domain.AvailabilityResult, error)
	// Evaluate is CheckWindow plus the point-in-time availableStock check.
	Evaluate(ctx context.Context, q repository.DBTX, e *domain.Equipment, window domain.DateRange, quantity, pending, excludeBookingID int32) (*domain.AvailabilityResult, error)
	// CheckAvailability reports business rejections in the result rather than as an error.
	CheckAvailability(ctx context.Context, tenantID, equipmentID int32, window domain.DateRange, quantity int32) (*domain.AvailabilityResult, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor domain.Actor, req BookingRequest) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, actor domain.Actor, bookingID int32, req BookingRequest) (*domain.Booking, error)
	ChangeStatus(ctx context.Context, actor domain.Actor, bookingID int32, status domain.BookingStatus, note string) (*domain.Booking, error)
	// MarkAsLost cancels an active booking and releases what it held.
	MarkAsLost(ctx context.Context, actor domain.Actor, bookingID int32, reason string) (*domain.Booking, error)
	DeletePermanently(ctx context.Context, actor domain.Actor, bookingID int32) error
	GetBooking(ctx context.Context, actor domain.Actor, bookingID int32) (*domain.Booking, error)
	ListBookings(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, int32, error)
	ListBookingMovements(ctx context.Context, actor domain.Actor, bookingID int32) ([]domain.StockMovement, error)
	ListBookingActivity(ctx context.Context, actor domain.Actor, bookingID int32) ([]domain.ActivityLog, error)
}

type EquipmentService interface {
	CreateEquipment(ctx context.Context, actor domain.Actor, e *domain.Equipment) error
	GetEquipment(ctx context.Context, actor domain.Actor, id int32) (*domain.Equipment, error)
	ListEquipment(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Equipment, int32, error)
	UpdatePricing(ctx context.Context, actor domain.Actor, id int32, periods []domain.RentalPeriod, pricePerDay *decimal.Decimal) (*domain.Equipment, error)
	AdjustStock(ctx context.Context, actor domain.Actor, id, newTotal int32, reason string) (*domain.Equipment, error)
	MoveCondition(ctx context.Context, actor domain.Actor, id int32, from, to domain.StockBucket, quantity int32, reason string) (*domain.Equipment, error)
	DeleteEquipment(ctx context.Context, actor domain.Actor, id int32) error
	ListMovements(ctx context.Context, actor domain.Actor, id, page, pageSize int32) ([]domain.StockMovement, int32, error)
}

type UnitService interface {
	// Assign moves AVAILABLE units of one equipment to RENTED inside q.
	Assign(ctx context.Context, q repository.DBTX, equipmentID int32, unitIDs []int32) error
	// Release returns RENTED units to AVAILABLE. Units in any other status are left alone.
	Release(ctx context.Context, q repository.DBTX, equipmentID int32, unitIDs []int32) error
	AddUnit(ctx context.Context, actor domain.Actor, equipmentID int32, serialNumber, internalCode string) (*domain.EquipmentUnit, error)
	ListUnits(ctx context.Context, actor domain.Actor, equipmentID int32) ([]domain.EquipmentUnit, error)
	ChangeStatus(ctx context.Context, actor domain.Actor, equipmentID, unitID int32, status domain.UnitStatus, reason string) (*domain.EquipmentUnit, error)
}

// LifecycleNotifier records the audit entry and outbox event of a booking change
// inside the transaction, and publishes the event once the caller has committed.
type LifecycleNotifier interface {
	OnTransition(ctx context.Context, q repository.DBTX, actor domain.Actor, b *domain.Booking, previous domain.BookingStatus, eventType domain.BookingEventType, description string, metadata map[string]any) (*domain.BookingEvent, error)
	Dispatch(ctx context.Context, events ...*domain.BookingEvent)
	RelayPending(ctx context.Context, limit, maxAttempts int32) (int, error)
}

// EventPublisher hands a booking event to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.BookingEvent) error
}

type CustomerDirectory interface {
	GetCustomer(ctx context.Context, tenantID, customerID int32) (*domain.Customer, error)
}

type PlanLimiter interface {
	// CheckBookingLimit fails with PLAN_LIMIT_EXCEEDED when the tenant cannot create another booking this month.
	// It runs inside the creating transaction, after the booking number is drawn.
	CheckBookingLimit(ctx context.Context, q repository.DBTX, tenantID int32) error
}

type EmailService interface {
	SendBookingCreated(ctx context.Context, to, customerName string, event *domain.BookingEvent) error
	SendBookingStatusChanged(ctx context.Context, to, customerName string, event *domain.BookingEvent) error
}

// BookingEventHandler reacts to events delivered by the broker.
type BookingEventHandler interface {
	HandleBookingEvent(ctx context.Context, event *domain.BookingEvent) error
}

// StockReconciler compares reserved counters against active booking items.
type StockReconciler interface {
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}

type ReconcileReport struct {
	Checked    int
	Drifted    []StockDrift
	Unbalanced []int32
	RanAt      time.Time
}

// StockDrift is an equipment whose reservedStock disagrees with the sum of its active items.
type StockDrift struct {
	EquipmentID    int32
	TenantID       int32
	ReservedStock  int32
	ActiveQuantity int32
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
