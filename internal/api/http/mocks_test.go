package http

import (
	"context"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) booking(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) CreateBooking(ctx context.Context, actor domain.Actor, req service.BookingRequest) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, req))
}

func (m *MockBookingService) UpdateBooking(ctx context.Context, actor domain.Actor, bookingID int32, req service.BookingRequest) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, bookingID, req))
}

func (m *MockBookingService) ChangeStatus(ctx context.Context, actor domain.Actor, bookingID int32, status domain.BookingStatus, note string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, bookingID, status, note))
}

func (m *MockBookingService) MarkAsLost(ctx context.Context, actor domain.Actor, bookingID int32, reason string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, bookingID, reason))
}

func (m *MockBookingService) DeletePermanently(ctx context.Context, actor domain.Actor, bookingID int32) error {
	return m.Called(ctx, actor, bookingID).Error(0)
}

func (m *MockBookingService) GetBooking(ctx context.Context, actor domain.Actor, bookingID int32) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, bookingID))
}

func (m *MockBookingService) ListBookings(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}

func (m *MockBookingService) ListBookingMovements(ctx context.Context, actor domain.Actor, bookingID int32) ([]domain.StockMovement, error) {
	args := m.Called(ctx, actor, bookingID)
	return args.Get(0).([]domain.StockMovement), args.Error(1)
}

func (m *MockBookingService) ListBookingActivity(ctx context.Context, actor domain.Actor, bookingID int32) ([]domain.ActivityLog, error) {
	args := m.Called(ctx, actor, bookingID)
	return args.Get(0).([]domain.ActivityLog), args.Error(1)
}

type MockEquipmentService struct {
	mock.Mock
}

func (m *MockEquipmentService) equipment(args mock.Arguments) (*domain.Equipment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func (m *MockEquipmentService) CreateEquipment(ctx context.Context, actor domain.Actor, e *domain.Equipment) error {
	return m.Called(ctx, actor, e).Error(0)
}

func (m *MockEquipmentService) GetEquipment(ctx context.Context, actor domain.Actor, id int32) (*domain.Equipment, error) {
	return m.equipment(m.Called(ctx, actor, id))
}

func (m *MockEquipmentService) ListEquipment(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Equipment, int32, error) {
	args := m.Called(ctx, actor, page, pageSize)
	return args.Get(0).([]domain.Equipment), args.Get(1).(int32), args.Error(2)
}

func (m *MockEquipmentService) UpdatePricing(ctx context.Context, actor domain.Actor, id int32, periods []domain.RentalPeriod, pricePerDay *decimal.Decimal) (*domain.Equipment, error) {
	return m.equipment(m.Called(ctx, actor, id, periods, pricePerDay))
}

func (m *MockEquipmentService) AdjustStock(ctx context.Context, actor domain.Actor, id, newTotal int32, reason string) (*domain.Equipment, error) {
	return m.equipment(m.Called(ctx, actor, id, newTotal, reason))
}

func (m *MockEquipmentService) MoveCondition(ctx context.Context, actor domain.Actor, id int32, from, to domain.StockBucket, quantity int32, reason string) (*domain.Equipment, error) {
	return m.equipment(m.Called(ctx, actor, id, from, to, quantity, reason))
}

func (m *MockEquipmentService) DeleteEquipment(ctx context.Context, actor domain.Actor, id int32) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockEquipmentService) ListMovements(ctx context.Context, actor domain.Actor, id, page, pageSize int32) ([]domain.StockMovement, int32, error) {
	args := m.Called(ctx, actor, id, page, pageSize)
	return args.Get(0).([]domain.StockMovement), args.Get(1).(int32), args.Error(2)
}

type MockUnitService struct {
	mock.Mock
}

func (m *MockUnitService) Assign(ctx context.Context, q repository.DBTX, equipmentID int32, unitIDs []int32) error {
	return m.Called(ctx, q, equipmentID, unitIDs).Error(0)
}

func (m *MockUnitService) Release(ctx context.Context, q repository.DBTX, equipmentID int32, unitIDs []int32) error {
	return m.Called(ctx, q, equipmentID, unitIDs).Error(0)
}

func (m *MockUnitService) AddUnit(ctx context.Context, actor domain.Actor, equipmentID int32, serialNumber, internalCode string) (*domain.EquipmentUnit, error) {
	args := m.Called(ctx, actor, equipmentID, serialNumber, internalCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EquipmentUnit), args.Error(1)
}

func (m *MockUnitService) ListUnits(ctx context.Context, actor domain.Actor, equipmentID int32) ([]domain.EquipmentUnit, error) {
	args := m.Called(ctx, actor, equipmentID)
	return args.Get(0).([]domain.EquipmentUnit), args.Error(1)
}

func (m *MockUnitService) ChangeStatus(ctx context.Context, actor domain.Actor, equipmentID, unitID int32, status domain.UnitStatus, reason string) (*domain.EquipmentUnit, error) {
	args := m.Called(ctx, actor, equipmentID, unitID, status, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EquipmentUnit), args.Error(1)
}

type MockAvailability struct {
	mock.Mock
}

func (m *MockAvailability) result(args mock.Arguments) (*domain.AvailabilityResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AvailabilityResult), args.Error(1)
}

func (m *MockAvailability) CheckWindow(ctx context.Context, q repository.DBTX, e *domain.Equipment, window domain.DateRange, quantity, pending, excludeBookingID int32) (*domain.AvailabilityResult, error) {
	return m.result(m.Called(ctx, q, e, window, quantity, pending, excludeBookingID))
}

func (m *MockAvailability) Evaluate(ctx context.Context, q repository.DBTX, e *domain.Equipment, window domain.DateRange, quantity, pending, excludeBookingID int32) (*domain.AvailabilityResult, error) {
	return m.result(m.Called(ctx, q, e, window, quantity, pending, excludeBookingID))
}

func (m *MockAvailability) CheckAvailability(ctx context.Context, tenantID, equipmentID int32, window domain.DateRange, quantity int32) (*domain.AvailabilityResult, error) {
	return m.result(m.Called(ctx, tenantID, equipmentID, window, quantity))
}

type MockPricing struct {
	mock.Mock
}

func (m *MockPricing) Quote(e *domain.Equipment, days, quantity int32, override *decimal.Decimal) (domain.PriceQuote, error) {
	args := m.Called(e, days, quantity, override)
	return args.Get(0).(domain.PriceQuote), args.Error(1)
}

func (m *MockPricing) Price(ctx context.Context, tenantID, equipmentID, days, quantity int32) (*domain.PriceQuote, error) {
	args := m.Called(ctx, tenantID, equipmentID, days, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceQuote), args.Error(1)
}
