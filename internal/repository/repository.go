package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transactor runs fn inside a unit of work. fn returning an error rolls everything back.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error
	ReadOnly(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error
}

type EquipmentRepository interface {
	Create(ctx context.Context, q DBTX, e *domain.Equipment) error
	GetByID(ctx context.Context, q DBTX, tenantID, id int32) (*domain.Equipment, error)
	// LockByID reads the equipment row with SELECT ... FOR UPDATE.
	LockByID(ctx context.Context, q DBTX, tenantID, id int32) (*domain.Equipment, error)
	UpdateCounters(ctx context.Context, q DBTX, e *domain.Equipment) error
	UpdatePricing(ctx context.Context, q DBTX, e *domain.Equipment) error
	Delete(ctx context.Context, q DBTX, tenantID, id int32) error
	List(ctx context.Context, q DBTX, tenantID int32, page, pageSize int32) ([]domain.Equipment, int32, error)
	ListAll(ctx context.Context, q DBTX) ([]domain.Equipment, error)
	CountActiveReferences(ctx context.Context, q DBTX, equipmentID int32) (int32, error)
}

type EquipmentUnitRepository interface {
	Create(ctx context.Context, q DBTX, u *domain.EquipmentUnit) error
	// LockByIDs reads the units with SELECT ... FOR UPDATE, scoped to one equipment.
	LockByIDs(ctx context.Context, q DBTX, equipmentID int32, ids []int32) ([]domain.EquipmentUnit, error)
	ListByEquipment(ctx context.Context, q DBTX, equipmentID int32) ([]domain.EquipmentUnit, error)
	UpdateStatus(ctx context.Context, q DBTX, ids []int32, status domain.UnitStatus) error
	IsOnActiveBooking(ctx context.Context, q DBTX, unitID int32) (bool, error)
}

type BookingRepository interface {
	NextBookingNumber(ctx context.Context, q DBTX, tenantID int32) (int32, error)
	Create(ctx context.Context, q DBTX, b *domain.Booking) error
	CreateItems(ctx context.Context, q DBTX, bookingID int32, items []domain.BookingItem) error
	GetByID(ctx context.Context, q DBTX, tenantID, id int32) (*domain.Booking, error)
	// LockByID reads the booking and its items, locking the booking row.
	LockByID(ctx context.Context, q DBTX, tenantID, id int32) (*domain.Booking, error)
	Update(ctx context.Context, q DBTX, b *domain.Booking) error
	DeleteItems(ctx context.Context, q DBTX, bookingID int32) error
	Delete(ctx context.Context, q DBTX, bookingID int32) error
	List(ctx context.Context, q DBTX, filter domain.BookingFilter) ([]domain.Booking, int32, error)
	CountCreatedSince(ctx context.Context, q DBTX, tenantID int32, since time.Time) (int32, error)
	// SumActiveDemand totals item quantities of PENDING/CONFIRMED bookings overlapping the window.
	SumActiveDemand(ctx context.Context, q DBTX, equipmentID int32, window domain.DateRange, excludeBookingID int32) (int32, error)
	// SumActiveQuantities totals active item quantities per equipment regardless of window.
	SumActiveQuantities(ctx context.Context, q DBTX) (map[int32]int32, error)
}

type StockMovementRepository interface {
	Create(ctx context.Context, q DBTX, m *domain.StockMovement) error
	ListByEquipment(ctx context.Context, q DBTX, tenantID, equipmentID int32, page, pageSize int32) ([]domain.StockMovement, int32, error)
	ListByBooking(ctx context.Context, q DBTX, tenantID, bookingID int32) ([]domain.StockMovement, error)
	DeleteByBooking(ctx context.Context, q DBTX, bookingID int32) (int64, error)
}

type ActivityLogRepository interface {
	Create(ctx context.Context, q DBTX, a *domain.ActivityLog) error
	ListByEntity(ctx context.Context, q DBTX, tenantID int32, entityType string, entityID int32) ([]domain.ActivityLog, error)
}

type BookingEventRepository interface {
	Create(ctx context.Context, q DBTX, e *domain.BookingEvent) error
	ListUnpublished(ctx context.Context, q DBTX, limit, maxAttempts int32) ([]domain.BookingEvent, error)
	MarkPublished(ctx context.Context, q DBTX, id string) error
	RecordAttempt(ctx context.Context, q DBTX, id string) error
}

type CustomerRepository interface {
	GetByID(ctx context.Context, q DBTX, tenantID, id int32) (*domain.Customer, error)
}

type TenantPlanRepository interface {
	// GetMaxBookingsPerMonth returns 0 when the tenant's plan has no booking cap.
	GetMaxBookingsPerMonth(ctx context.Context, q DBTX, tenantID int32) (int32, error)
}
