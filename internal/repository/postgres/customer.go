package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
)

type customerRepository struct{}

func NewCustomerRepository() repository.CustomerRepository {
	return &customerRepository{}
}

func (r *customerRepository) GetByID(ctx context.Context, q repository.DBTX, tenantID, id int32) (*domain.Customer, error) {
	c := &domain.Customer{}
	query := `SELECT id, tenant_id, name, email, phone, is_active FROM customers WHERE tenant_id = $1 AND id = $2`
	err := q.QueryRowContext(ctx, query, tenantID, id).Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewCustomerNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get customer %d: %w", id, err)
	}
	return c, nil
}

type tenantPlanRepository struct{}

func NewTenantPlanRepository() repository.TenantPlanRepository {
	return &tenantPlanRepository{}
}

func (r *tenantPlanRepository) GetMaxBookingsPerMonth(ctx context.Context, q repository.DBTX, tenantID int32) (int32, error) {
	var maxBookings int32
	err := q.QueryRowContext(ctx, `SELECT max_bookings_per_month FROM tenant_plans WHERE tenant_id = $1`, tenantID).Scan(&maxBookings)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get tenant plan: %w", err)
	}
	return maxBookings, nil
}
