package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"

	"github.com/lib/pq"
)

const equipmentColumns = `id, tenant_id, name, tracking_mode, total_stock, available_stock, reserved_stock, maintenance_stock, damaged_stock, price_per_day, created_on, updated_on, deleted_on`

type equipmentRepository struct{}

func NewEquipmentRepository() repository.EquipmentRepository {
	return &equipmentRepository{}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEquipment(row rowScanner) (*domain.Equipment, error) {
	e := &domain.Equipment{}
	err := row.Scan(&e.ID, &e.TenantID, &e.Name, &e.TrackingMode, &e.TotalStock, &e.AvailableStock, &e.ReservedStock,
		&e.MaintenanceStock, &e.DamagedStock, &e.PricePerDay, &e.CreatedOn, &e.UpdatedOn, &e.DeletedOn)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *equipmentRepository) Create(ctx context.Context, q repository.DBTX, e *domain.Equipment) error {
	logger.EnterMethod("equipmentRepository.Create", "tenantID", e.TenantID, "name", e.Name)

	query := `INSERT INTO equipment (tenant_id, name, tracking_mode, total_stock, available_stock, reserved_stock, maintenance_stock, damaged_stock, price_per_day)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_on, updated_on`
	err := q.QueryRowContext(ctx, query, e.TenantID, e.Name, e.TrackingMode, e.TotalStock, e.AvailableStock,
		e.ReservedStock, e.MaintenanceStock, e.DamagedStock, e.PricePerDay).Scan(&e.ID, &e.CreatedOn, &e.UpdatedOn)
	if err != nil {
		logger.ExitMethodWithError("equipmentRepository.Create", err)
		return fmt.Errorf("failed to insert equipment: %w", err)
	}

	if err := r.insertRentalPeriods(ctx, q, e.ID, e.RentalPeriods); err != nil {
		logger.ExitMethodWithError("equipmentRepository.Create", err)
		return err
	}

	logger.ExitMethod("equipmentRepository.Create", "equipmentID", e.ID)
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, q repository.DBTX, tenantID, id int32) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE tenant_id = $1 AND id = $2 AND deleted_on IS NULL`
	return r.get(ctx, q, query, tenantID, id)
}

func (r *equipmentRepository) LockByID(ctx context.Context, q repository.DBTX, tenantID, id int32) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE tenant_id = $1 AND id = $2 AND deleted_on IS NULL FOR UPDATE`
	logger.DatabaseCall("LockByID", "SELECT equipment FOR UPDATE", "equipmentID", id)
	return r.get(ctx, q, query, tenantID, id)
}

func (r *equipmentRepository) get(ctx context.Context, q repository.DBTX, query string, tenantID, id int32) (*domain.Equipment, error) {
	e, err := scanEquipment(q.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewEquipmentNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get equipment %d: %w", id, err)
	}

	e.RentalPeriods, err = r.loadRentalPeriods(ctx, q, e.ID)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *equipmentRepository) loadRentalPeriods(ctx context.Context, q repository.DBTX, equipmentID int32) ([]domain.RentalPeriod, error) {
	rows, err := q.QueryContext(ctx, `SELECT days, price FROM equipment_rental_periods WHERE equipment_id = $1 ORDER BY days ASC`, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rental periods: %w", err)
	}
	defer rows.Close()

	var periods []domain.RentalPeriod
	for rows.Next() {
		var p domain.RentalPeriod
		if err := rows.Scan(&p.Days, &p.Price); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *equipmentRepository) insertRentalPeriods(ctx context.Context, q repository.DBTX, equipmentID int32, periods []domain.RentalPeriod) error {
	for _, p := range periods {
		_, err := q.ExecContext(ctx, `INSERT INTO equipment_rental_periods (equipment_id, days, price) VALUES ($1, $2, $3)`,
			equipmentID, p.Days, p.Price)
		if err != nil {
			return fmt.Errorf("failed to insert rental period: %w", err)
		}
	}
	return nil
}

func (r *equipmentRepository) UpdateCounters(ctx context.Context, q repository.DBTX, e *domain.Equipment) error {
	query := `UPDATE equipment SET total_stock = $1, available_stock = $2, reserved_stock = $3, maintenance_stock = $4, damaged_stock = $5, updated_on = NOW()
	          WHERE id = $6`
	logger.DatabaseCall("UpdateCounters", "UPDATE equipment", "equipmentID", e.ID)
	res, err := q.ExecContext(ctx, query, e.TotalStock, e.AvailableStock, e.ReservedStock, e.MaintenanceStock, e.DamagedStock, e.ID)
	if err != nil {
		logger.DatabaseResult("UpdateCounters", 0, err)
		return fmt.Errorf("failed to update stock counters: %w", err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UpdateCounters", n, nil)
	if n == 0 {
		return domain.NewEquipmentNotFoundError(e.ID)
	}
	return nil
}

func (r *equipmentRepository) UpdatePricing(ctx context.Context, q repository.DBTX, e *domain.Equipment) error {
	_, err := q.ExecContext(ctx, `UPDATE equipment SET name = $1, price_per_day = $2, updated_on = NOW() WHERE id = $3`,
		e.Name, e.PricePerDay, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update equipment: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM equipment_rental_periods WHERE equipment_id = $1`, e.ID); err != nil {
		return fmt.Errorf("failed to clear rental periods: %w", err)
	}
	return r.insertRentalPeriods(ctx, q, e.ID, e.RentalPeriods)
}

func (r *equipmentRepository) Delete(ctx context.Context, q repository.DBTX, tenantID, id int32) error {
	res, err := q.ExecContext(ctx, `UPDATE equipment SET deleted_on = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_on IS NULL`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete equipment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewEquipmentNotFoundError(id)
	}
	return nil
}

func (r *equipmentRepository) List(ctx context.Context, q repository.DBTX, tenantID int32, page, pageSize int32) ([]domain.Equipment, int32, error) {
	var count int32
	if err := q.QueryRowContext(ctx, `SELECT count(*) FROM equipment WHERE tenant_id = $1 AND deleted_on IS NULL`, tenantID).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE tenant_id = $1 AND deleted_on IS NULL ORDER BY name LIMIT $2 OFFSET $3`
	list, err := r.list(ctx, q, query, tenantID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, count, nil
}

func (r *equipmentRepository) ListAll(ctx context.Context, q repository.DBTX) ([]domain.Equipment, error) {
	return r.list(ctx, q, `SELECT `+equipmentColumns+` FROM equipment WHERE deleted_on IS NULL ORDER BY id`)
}

func (r *equipmentRepository) list(ctx context.Context, q repository.DBTX, query string, args ...any) ([]domain.Equipment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var list []domain.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, *e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range list {
		list[i].RentalPeriods, err = r.loadRentalPeriods(ctx, q, list[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *equipmentRepository) CountActiveReferences(ctx context.Context, q repository.DBTX, equipmentID int32) (int32, error) {
	query := `SELECT COUNT(DISTINCT b.id) FROM booking_items bi JOIN bookings b ON b.id = bi.booking_id
	          WHERE bi.equipment_id = $1 AND b.status = ANY($2)`
	var count int32
	err := q.QueryRowContext(ctx, query, equipmentID, pq.Array(statusStrings(domain.ActiveBookingStatuses))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active references: %w", err)
	}
	return count, nil
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
