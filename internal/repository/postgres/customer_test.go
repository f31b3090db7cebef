package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewCustomerRepository()
	cols := []string{"id", "tenant_id", "name", "email", "phone", "is_active"}

	mock.ExpectQuery("SELECT id, tenant_id, name, email, phone, is_active FROM customers WHERE tenant_id = \\$1 AND id = \\$2").
		WithArgs(int32(1), int32(100)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(100, 1, "Acme Builders", "ops@acme.test", "555-0100", true))

	c, err := repo.GetByID(context.Background(), db, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, "Acme Builders", c.Name)
	assert.True(t, c.IsActive)

	mock.ExpectQuery("FROM customers").WithArgs(int32(1), int32(404)).WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), db, 1, 404)
	assert.True(t, domain.IsKind(err, domain.KindCustomerNotFound))
}

func TestTenantPlanRepository_GetMaxBookingsPerMonth(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewTenantPlanRepository()
	query := "SELECT max_bookings_per_month FROM tenant_plans WHERE tenant_id = \\$1"

	mock.ExpectQuery(query).WithArgs(int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"max_bookings_per_month"}).AddRow(200))
	limit, err := repo.GetMaxBookingsPerMonth(context.Background(), db, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(200), limit)

	// tenants without a plan row are unlimited
	mock.ExpectQuery(query).WithArgs(int32(2)).WillReturnError(sql.ErrNoRows)
	limit, err = repo.GetMaxBookingsPerMonth(context.Background(), db, 2)
	require.NoError(t, err)
	assert.Zero(t, limit)

	mock.ExpectQuery(query).WithArgs(int32(3)).WillReturnError(errors.New("connection reset"))
	_, err = repo.GetMaxBookingsPerMonth(context.Background(), db, 3)
	assert.ErrorContains(t, err, "failed to get tenant plan")
}
