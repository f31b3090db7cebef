package service

import (
	"context"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
)

type customerDirectory struct {
	tx           repository.Transactor
	customerRepo repository.CustomerRepository
}

// NewCustomerDirectory reads customers from the shared database.
func NewCustomerDirectory(tx repository.Transactor, customerRepo repository.CustomerRepository) CustomerDirectory {
	return &customerDirectory{tx: tx, customerRepo: customerRepo}
}

func (d *customerDirectory) GetCustomer(ctx context.Context, tenantID, customerID int32) (*domain.Customer, error) {
	var customer *domain.Customer
	err := d.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		var err error
		customer, err = d.customerRepo.GetByID(ctx, q, tenantID, customerID)
		return err
	})
	return customer, err
}

type planLimiter struct {
	planRepo    repository.TenantPlanRepository
	bookingRepo repository.BookingRepository
	now         func() time.Time
}

// NewPlanLimiter caps bookings created per calendar month (UTC) by the tenant's plan.
func NewPlanLimiter(planRepo repository.TenantPlanRepository, bookingRepo repository.BookingRepository) PlanLimiter {
	return &planLimiter{
		planRepo:    planRepo,
		bookingRepo: bookingRepo,
		now:         time.Now,
	}
}

func (l *planLimiter) CheckBookingLimit(ctx context.Context, q repository.DBTX, tenantID int32) error {
	limit, err := l.planRepo.GetMaxBookingsPerMonth(ctx, q, tenantID)
	if err != nil {
		return err
	}
	if limit <= 0 {
		return nil
	}

	now := l.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	current, err := l.bookingRepo.CountCreatedSince(ctx, q, tenantID, monthStart)
	if err != nil {
		return err
	}
	if current >= limit {
		return domain.NewPlanLimitExceededError(current, limit)
	}
	return nil
}
