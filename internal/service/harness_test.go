package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/service"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const tenantID int32 = 1

var (
	admin = domain.Actor{TenantID: tenantID, UserID: 7, Roles: []string{domain.RoleAdmin}}
	staff = domain.Actor{TenantID: tenantID, UserID: 8}

	activeCustomer = &domain.Customer{ID: 100, TenantID: tenantID, Name: "Acme Builders", Email: "ops@acme.test", IsActive: true}
)

type harness struct {
	store        *fakeStore
	customers    *MockCustomerDirectory
	limiter      *MockPlanLimiter
	publisher    *MockEventPublisher
	ledger       service.StockLedger
	pricing      service.PricingCalculator
	availability service.AvailabilityChecker
	notifier     service.LifecycleNotifier
	units        service.UnitService
	equipment    service.EquipmentService
	bookings     service.BookingService
}

func newHarness(t *testing.T, opts service.BookingOptions) *harness {
	t.Helper()

	store := newFakeStore()
	equipmentRepo := fakeEquipmentRepo{store}
	bookingRepo := fakeBookingRepo{store}
	movementRepo := fakeMovementRepo{store}
	activityRepo := fakeActivityRepo{store}

	h := &harness{
		store:     store,
		customers: new(MockCustomerDirectory),
		limiter:   new(MockPlanLimiter),
		publisher: new(MockEventPublisher),
	}
	h.ledger = service.NewStockLedger(equipmentRepo, movementRepo)
	h.pricing = service.NewPricingCalculator(store, equipmentRepo)
	h.availability = service.NewAvailabilityChecker(store, equipmentRepo, bookingRepo)
	h.notifier = service.NewLifecycleNotifier(store, activityRepo, fakeEventRepo{store}, h.publisher)
	h.units = service.NewUnitService(store, equipmentRepo, fakeUnitRepo{store}, activityRepo, h.ledger)
	h.equipment = service.NewEquipmentService(store, equipmentRepo, movementRepo, activityRepo, h.ledger)
	h.bookings = service.NewBookingService(service.BookingDependencies{
		Tx:           store,
		Bookings:     bookingRepo,
		Equipment:    equipmentRepo,
		Movements:    movementRepo,
		Activity:     activityRepo,
		Ledger:       h.ledger,
		Availability: h.availability,
		Pricing:      h.pricing,
		Units:        h.units,
		Notifier:     h.notifier,
		Customers:    h.customers,
		PlanLimiter:  h.limiter,
	}, opts)
	return h
}

// takeTraceReset drops the lock trace recorded while seeding.
func (h *harness) takeTraceReset() {
	_ = h.store.takeTrace()
}

// allowAll makes every collaborator succeed.
func (h *harness) allowAll() *harness {
	h.customers.On("GetCustomer", mock.Anything, tenantID, activeCustomer.ID).Return(activeCustomer, nil).Maybe()
	h.limiter.On("CheckBookingLimit", mock.Anything, mock.Anything, tenantID).Return(nil).Maybe()
	h.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return h
}

func (h *harness) seedEquipment(t *testing.T, name string, total int32, periods ...domain.RentalPeriod) *domain.Equipment {
	t.Helper()
	e := &domain.Equipment{
		Name:          name,
		TrackingMode:  domain.TrackingModeQuantity,
		TotalStock:    total,
		PricePerDay:   decimal.NewFromInt(50),
		RentalPeriods: periods,
	}
	require.NoError(t, h.equipment.CreateEquipment(context.Background(), admin, e))
	return e
}

func (h *harness) seedSerialized(t *testing.T, name string, units int) (*domain.Equipment, []int32) {
	t.Helper()
	ctx := context.Background()
	e := &domain.Equipment{
		Name:         name,
		TrackingMode: domain.TrackingModeSerialized,
		PricePerDay:  decimal.NewFromInt(80),
	}
	require.NoError(t, h.equipment.CreateEquipment(ctx, admin, e))

	ids := make([]int32, 0, units)
	for i := 0; i < units; i++ {
		u, err := h.units.AddUnit(ctx, admin, e.ID, "", name+"-"+string(rune('A'+i)))
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	return e, ids
}

func (h *harness) book(t *testing.T, equipmentID, quantity int32, start, end string) *domain.Booking {
	t.Helper()
	b, err := h.bookings.CreateBooking(context.Background(), staff, singleItem(equipmentID, quantity, start, end))
	require.NoError(t, err)
	return b
}

func singleItem(equipmentID, quantity int32, start, end string) service.BookingRequest {
	return service.BookingRequest{
		CustomerID:  activeCustomer.ID,
		StartDate:   day(start),
		EndDate:     day(end),
		EquipmentID: equipmentID,
		Quantity:    quantity,
	}
}

func day(s string) time.Time {
	t, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func requireBalanced(t *testing.T, e domain.Equipment) {
	t.Helper()
	require.True(t, e.CountersBalanced(),
		"counters out of balance: total=%d available=%d reserved=%d maintenance=%d damaged=%d",
		e.TotalStock, e.AvailableStock, e.ReservedStock, e.MaintenanceStock, e.DamagedStock)
}

func movementTypes(movements []domain.StockMovement) []domain.MovementType {
	out := make([]domain.MovementType, 0, len(movements))
	for _, m := range movements {
		out = append(out, m.Type)
	}
	return out
}
