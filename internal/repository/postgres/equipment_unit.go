package postgres

import (
	"context"
	"fmt"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"

	"github.com/lib/pq"
)

type equipmentUnitRepository struct{}

func NewEquipmentUnitRepository() repository.EquipmentUnitRepository {
	return &equipmentUnitRepository{}
}

func (r *equipmentUnitRepository) Create(ctx context.Context, q repository.DBTX, u *domain.EquipmentUnit) error {
	query := `INSERT INTO equipment_units (equipment_id, serial_number, internal_code, status) VALUES ($1, $2, $3, $4) RETURNING id, created_on, updated_on`
	return q.QueryRowContext(ctx, query, u.EquipmentID, u.SerialNumber, u.InternalCode, u.Status).Scan(&u.ID, &u.CreatedOn, &u.UpdatedOn)
}

func (r *equipmentUnitRepository) LockByIDs(ctx context.Context, q repository.DBTX, equipmentID int32, ids []int32) ([]domain.EquipmentUnit, error) {
	query := `SELECT id, equipment_id, serial_number, internal_code, status, created_on, updated_on
	          FROM equipment_units WHERE equipment_id = $1 AND id = ANY($2) ORDER BY id FOR UPDATE`
	return r.list(ctx, q, query, equipmentID, pq.Array(ids))
}

func (r *equipmentUnitRepository) ListByEquipment(ctx context.Context, q repository.DBTX, equipmentID int32) ([]domain.EquipmentUnit, error) {
	query := `SELECT id, equipment_id, serial_number, internal_code, status, created_on, updated_on
	          FROM equipment_units WHERE equipment_id = $1 ORDER BY id`
	return r.list(ctx, q, query, equipmentID)
}

func (r *equipmentUnitRepository) list(ctx context.Context, q repository.DBTX, query string, args ...any) ([]domain.EquipmentUnit, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query equipment units: %w", err)
	}
	defer rows.Close()

	var units []domain.EquipmentUnit
	for rows.Next() {
		var u domain.EquipmentUnit
		if err := rows.Scan(&u.ID, &u.EquipmentID, &u.SerialNumber, &u.InternalCode, &u.Status, &u.CreatedOn, &u.UpdatedOn); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *equipmentUnitRepository) UpdateStatus(ctx context.Context, q repository.DBTX, ids []int32, status domain.UnitStatus) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `UPDATE equipment_units SET status = $1, updated_on = NOW() WHERE id = ANY($2)`, status, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to update unit status: %w", err)
	}
	return nil
}

func (r *equipmentUnitRepository) IsOnActiveBooking(ctx context.Context, q repository.DBTX, unitID int32) (bool, error) {
	query := `SELECT EXISTS (
	              SELECT 1 FROM booking_item_units biu
	              JOIN booking_items bi ON bi.id = biu.booking_item_id
	              JOIN bookings b ON b.id = bi.booking_id
	              WHERE biu.unit_id = $1 AND b.status = ANY($2))`
	var exists bool
	if err := q.QueryRowContext(ctx, query, unitID, pq.Array(statusStrings(domain.ActiveBookingStatuses))).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check unit assignment: %w", err)
	}
	return exists, nil
}
