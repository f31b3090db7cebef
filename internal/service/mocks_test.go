package service_test

import (
	"context"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockCustomerDirectory struct {
	mock.Mock
}

func (m *MockCustomerDirectory) GetCustomer(ctx context.Context, tenantID, customerID int32) (*domain.Customer, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

type MockPlanLimiter struct {
	mock.Mock
}

func (m *MockPlanLimiter) CheckBookingLimit(ctx context.Context, q repository.DBTX, tenantID int32) error {
	args := m.Called(ctx, q, tenantID)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *domain.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendBookingCreated(ctx context.Context, to, customerName string, event *domain.BookingEvent) error {
	args := m.Called(ctx, to, customerName, event)
	return args.Error(0)
}

func (m *MockEmailService) SendBookingStatusChanged(ctx context.Context, to, customerName string, event *domain.BookingEvent) error {
	args := m.Called(ctx, to, customerName, event)
	return args.Error(0)
}
