package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"

	"github.com/lib/pq"
)

const bookingColumns = `id, tenant_id, booking_number, customer_id, site_id, start_date, end_date, start_time, end_time, status, total_price, price_override, notes, created_by, created_on, updated_on`

type bookingRepository struct{}

func NewBookingRepository() repository.BookingRepository {
	return &bookingRepository{}
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(&b.ID, &b.TenantID, &b.BookingNumber, &b.CustomerID, &b.SiteID, &b.StartDate, &b.EndDate,
		&b.StartTime, &b.EndTime, &b.Status, &b.TotalPrice, &b.PriceOverride, &b.Notes, &b.CreatedBy, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) NextBookingNumber(ctx context.Context, q repository.DBTX, tenantID int32) (int32, error) {
	query := `INSERT INTO booking_sequences (tenant_id, last_number) VALUES ($1, 1)
	          ON CONFLICT (tenant_id) DO UPDATE SET last_number = booking_sequences.last_number + 1
	          RETURNING last_number`
	var n int32
	if err := q.QueryRowContext(ctx, query, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to allocate booking number: %w", err)
	}
	return n, nil
}

func (r *bookingRepository) Create(ctx context.Context, q repository.DBTX, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Create", "tenantID", b.TenantID, "customerID", b.CustomerID)

	query := `INSERT INTO bookings (tenant_id, booking_number, customer_id, site_id, start_date, end_date, start_time, end_time, status, total_price, price_override, notes, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id, created_on, updated_on`
	err := q.QueryRowContext(ctx, query, b.TenantID, b.BookingNumber, b.CustomerID, b.SiteID, b.StartDate, b.EndDate,
		b.StartTime, b.EndTime, b.Status, b.TotalPrice, b.PriceOverride, b.Notes, b.CreatedBy).Scan(&b.ID, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Create", err)
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	logger.ExitMethod("bookingRepository.Create", "bookingID", b.ID)
	return nil
}

func (r *bookingRepository) CreateItems(ctx context.Context, q repository.DBTX, bookingID int32, items []domain.BookingItem) error {
	itemQuery := `INSERT INTO booking_items (booking_id, equipment_id, quantity, unit_price, total_price, notes)
	              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	for i := range items {
		item := &items[i]
		item.BookingID = bookingID
		err := q.QueryRowContext(ctx, itemQuery, bookingID, item.EquipmentID, item.Quantity, item.UnitPrice, item.TotalPrice, item.Notes).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to insert booking item: %w", err)
		}
		for _, unitID := range item.UnitIDs {
			if _, err := q.ExecContext(ctx, `INSERT INTO booking_item_units (booking_item_id, unit_id) VALUES ($1, $2)`, item.ID, unitID); err != nil {
				return fmt.Errorf("failed to assign unit %d: %w", unitID, err)
			}
		}
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, q repository.DBTX, tenantID, id int32) (*domain.Booking, error) {
	return r.get(ctx, q, `SELECT `+bookingColumns+` FROM bookings WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

func (r *bookingRepository) LockByID(ctx context.Context, q repository.DBTX, tenantID, id int32) (*domain.Booking, error) {
	return r.get(ctx, q, `SELECT `+bookingColumns+` FROM bookings WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

func (r *bookingRepository) get(ctx context.Context, q repository.DBTX, query string, tenantID, id int32) (*domain.Booking, error) {
	b, err := scanBooking(q.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewBookingNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get booking %d: %w", id, err)
	}
	if b.Items, err = r.loadItems(ctx, q, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) loadItems(ctx context.Context, q repository.DBTX, bookingID int32) ([]domain.BookingItem, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, booking_id, equipment_id, quantity, unit_price, total_price, notes
	                                   FROM booking_items WHERE booking_id = $1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking items: %w", err)
	}
	var items []domain.BookingItem
	index := make(map[int32]int)
	for rows.Next() {
		var item domain.BookingItem
		if err := rows.Scan(&item.ID, &item.BookingID, &item.EquipmentID, &item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.Notes); err != nil {
			rows.Close()
			return nil, err
		}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	unitRows, err := q.QueryContext(ctx, `SELECT biu.booking_item_id, biu.unit_id FROM booking_item_units biu
	                                       JOIN booking_items bi ON bi.id = biu.booking_item_id
	                                       WHERE bi.booking_id = $1 ORDER BY biu.unit_id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit assignments: %w", err)
	}
	defer unitRows.Close()
	for unitRows.Next() {
		var itemID, unitID int32
		if err := unitRows.Scan(&itemID, &unitID); err != nil {
			return nil, err
		}
		if i, ok := index[itemID]; ok {
			items[i].UnitIDs = append(items[i].UnitIDs, unitID)
		}
	}
	return items, unitRows.Err()
}

func (r *bookingRepository) Update(ctx context.Context, q repository.DBTX, b *domain.Booking) error {
	query := `UPDATE bookings SET customer_id = $1, site_id = $2, start_date = $3, end_date = $4, start_time = $5, end_time = $6,
	          status = $7, total_price = $8, price_override = $9, notes = $10, updated_on = NOW()
	          WHERE id = $11 RETURNING updated_on`
	err := q.QueryRowContext(ctx, query, b.CustomerID, b.SiteID, b.StartDate, b.EndDate, b.StartTime, b.EndTime,
		b.Status, b.TotalPrice, b.PriceOverride, b.Notes, b.ID).Scan(&b.UpdatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewBookingNotFoundError(b.ID)
		}
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) DeleteItems(ctx context.Context, q repository.DBTX, bookingID int32) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM booking_items WHERE booking_id = $1`, bookingID); err != nil {
		return fmt.Errorf("failed to delete booking items: %w", err)
	}
	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, q repository.DBTX, bookingID int32) error {
	res, err := q.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewBookingNotFoundError(bookingID)
	}
	return nil
}

func (r *bookingRepository) List(ctx context.Context, q repository.DBTX, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	where := ` WHERE tenant_id = $1`
	args := []any{filter.TenantID}
	argIdx := 2

	if len(filter.Statuses) > 0 {
		where += fmt.Sprintf(" AND status = ANY($%d)", argIdx)
		args = append(args, pq.Array(statusStrings(filter.Statuses)))
		argIdx++
	}
	if filter.CustomerID > 0 {
		where += fmt.Sprintf(" AND customer_id = $%d", argIdx)
		args = append(args, filter.CustomerID)
		argIdx++
	}

	var count int32
	if err := q.QueryRowContext(ctx, `SELECT count(*) FROM bookings`+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := `SELECT ` + bookingColumns + ` FROM bookings` + where +
		fmt.Sprintf(" ORDER BY start_date DESC, id DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.PageSize, offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range bookings {
		if bookings[i].Items, err = r.loadItems(ctx, q, bookings[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return bookings, count, nil
}

func (r *bookingRepository) CountCreatedSince(ctx context.Context, q repository.DBTX, tenantID int32, since time.Time) (int32, error) {
	var count int32
	err := q.QueryRowContext(ctx, `SELECT count(*) FROM bookings WHERE tenant_id = $1 AND created_on >= $2`, tenantID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *bookingRepository) SumActiveDemand(ctx context.Context, q repository.DBTX, equipmentID int32, window domain.DateRange, excludeBookingID int32) (int32, error) {
	query := `SELECT COALESCE(SUM(bi.quantity), 0) FROM booking_items bi
	          JOIN bookings b ON b.id = bi.booking_id
	          WHERE bi.equipment_id = $1 AND b.status = ANY($2)
	          AND b.start_date <= $3 AND $4 <= b.end_date AND b.id <> $5`
	logger.DatabaseCall("SumActiveDemand", "SELECT SUM booking_items", "equipmentID", equipmentID)
	var demand int32
	err := q.QueryRowContext(ctx, query, equipmentID, pq.Array(statusStrings(domain.ActiveBookingStatuses)),
		window.End, window.Start, excludeBookingID).Scan(&demand)
	if err != nil {
		logger.DatabaseResult("SumActiveDemand", 0, err)
		return 0, fmt.Errorf("failed to sum demand: %w", err)
	}
	return demand, nil
}

func (r *bookingRepository) SumActiveQuantities(ctx context.Context, q repository.DBTX) (map[int32]int32, error) {
	query := `SELECT bi.equipment_id, SUM(bi.quantity) FROM booking_items bi
	          JOIN bookings b ON b.id = bi.booking_id
	          WHERE b.status = ANY($1) GROUP BY bi.equipment_id`
	rows, err := q.QueryContext(ctx, query, pq.Array(statusStrings(domain.ActiveBookingStatuses)))
	if err != nil {
		return nil, fmt.Errorf("failed to sum active quantities: %w", err)
	}
	defer rows.Close()

	sums := make(map[int32]int32)
	for rows.Next() {
		var equipmentID, qty int32
		if err := rows.Scan(&equipmentID, &qty); err != nil {
			return nil, err
		}
		sums[equipmentID] = qty
	}
	return sums, rows.Err()
}
