package postgres

import (
	"context"
	"fmt"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
)

const movementColumns = `id, tenant_id, equipment_id, booking_id, type, quantity, previous_stock, new_stock, reason, actor_id, created_on`

type stockMovementRepository struct{}

func NewStockMovementRepository() repository.StockMovementRepository {
	return &stockMovementRepository{}
}

func (r *stockMovementRepository) Create(ctx context.Context, q repository.DBTX, m *domain.StockMovement) error {
	query := `INSERT INTO stock_movements (tenant_id, equipment_id, booking_id, type, quantity, previous_stock, new_stock, reason, actor_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_on`
	err := q.QueryRowContext(ctx, query, m.TenantID, m.EquipmentID, m.BookingID, m.Type, m.Quantity,
		m.PreviousStock, m.NewStock, m.Reason, m.ActorID).Scan(&m.ID, &m.CreatedOn)
	if err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

func (r *stockMovementRepository) ListByEquipment(ctx context.Context, q repository.DBTX, tenantID, equipmentID int32, page, pageSize int32) ([]domain.StockMovement, int32, error) {
	var count int32
	err := q.QueryRowContext(ctx, `SELECT count(*) FROM stock_movements WHERE tenant_id = $1 AND equipment_id = $2`, tenantID, equipmentID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE tenant_id = $1 AND equipment_id = $2
	          ORDER BY created_on DESC, id DESC LIMIT $3 OFFSET $4`
	movements, err := r.list(ctx, q, query, tenantID, equipmentID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	return movements, count, nil
}

func (r *stockMovementRepository) ListByBooking(ctx context.Context, q repository.DBTX, tenantID, bookingID int32) ([]domain.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE tenant_id = $1 AND booking_id = $2 ORDER BY id`
	return r.list(ctx, q, query, tenantID, bookingID)
}

func (r *stockMovementRepository) list(ctx context.Context, q repository.DBTX, query string, args ...any) ([]domain.StockMovement, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.TenantID, &m.EquipmentID, &m.BookingID, &m.Type, &m.Quantity,
			&m.PreviousStock, &m.NewStock, &m.Reason, &m.ActorID, &m.CreatedOn); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *stockMovementRepository) DeleteByBooking(ctx context.Context, q repository.DBTX, bookingID int32) (int64, error) {
	logger.DatabaseCall("DeleteByBooking", "DELETE FROM stock_movements", "bookingID", bookingID)
	res, err := q.ExecContext(ctx, `DELETE FROM stock_movements WHERE booking_id = $1`, bookingID)
	if err != nil {
		logger.DatabaseResult("DeleteByBooking", 0, err)
		return 0, fmt.Errorf("failed to delete stock movements: %w", err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("DeleteByBooking", n, nil)
	return n, nil
}
