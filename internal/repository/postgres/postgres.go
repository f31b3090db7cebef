package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
	repository.EquipmentRepository
	repository.EquipmentUnitRepository
	repository.BookingRepository
	repository.StockMovementRepository
	repository.ActivityLogRepository
	repository.BookingEventRepository
	repository.CustomerRepository
	repository.TenantPlanRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                      db,
		EquipmentRepository:     NewEquipmentRepository(),
		EquipmentUnitRepository: NewEquipmentUnitRepository(),
		BookingRepository:       NewBookingRepository(),
		StockMovementRepository: NewStockMovementRepository(),
		ActivityLogRepository:   NewActivityLogRepository(),
		BookingEventRepository:  NewBookingEventRepository(),
		CustomerRepository:      NewCustomerRepository(),
		TenantPlanRepository:    NewTenantPlanRepository(),
	}
}

// DB exposes the pool for callers that run outside a transaction.
func (s *Store) DB() *sql.DB {
	return s.db
}

// RunInTx begins a transaction, runs fn and commits when fn returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, q repository.DBTX) error) error {
	return s.runInTx(ctx, nil, fn)
}

// ReadOnly runs fn inside a read-only transaction.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context, q repository.DBTX) error) error {
	return s.runInTx(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (s *Store) runInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, q repository.DBTX) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logger.Error("Failed to roll back transaction", "error", rbErr)
			}
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("migrate", "schema.sql")
	_, err := db.ExecContext(ctx, schema)
	logger.DatabaseResult("migrate", 0, err)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
