package service

import (
	"context"
	"fmt"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
)

type stockLedger struct {
	equipmentRepo repository.EquipmentRepository
	movementRepo  repository.StockMovementRepository
}

func NewStockLedger(equipmentRepo repository.EquipmentRepository, movementRepo repository.StockMovementRepository) StockLedger {
	return &stockLedger{
		equipmentRepo: equipmentRepo,
		movementRepo:  movementRepo,
	}
}

func (l *stockLedger) Reserve(ctx context.Context, q repository.DBTX, actor domain.Actor, equipmentID, quantity int32, bookingID *int32, reason string) (*domain.StockMovement, error) {
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be positive, got %d", quantity)
	}
	e, err := l.equipmentRepo.LockByID(ctx, q, actor.TenantID, equipmentID)
	if err != nil {
		return nil, err
	}
	if e.AvailableStock < quantity {
		return nil, domain.NewInsufficientStockError(e, quantity, e.AvailableStock)
	}

	previous := e.AvailableStock
	e.AvailableStock -= quantity
	e.ReservedStock += quantity

	return l.apply(ctx, q, e, &domain.StockMovement{
		TenantID:      actor.TenantID,
		EquipmentID:   e.ID,
		BookingID:     bookingID,
		Type:          domain.MovementTypeRentalOut,
		Quantity:      quantity,
		PreviousStock: previous,
		NewStock:      e.AvailableStock,
		Reason:        reason,
		ActorID:       actor.UserID,
	})
}

func (l *stockLedger) Release(ctx context.Context, q repository.DBTX, actor domain.Actor, equipmentID, quantity int32, bookingID *int32, outcome domain.ReleaseOutcome, reason string) (*domain.StockMovement, error) {
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be positive, got %d", quantity)
	}
	e, err := l.equipmentRepo.LockByID(ctx, q, actor.TenantID, equipmentID)
	if err != nil {
		return nil, err
	}
	if e.ReservedStock < quantity {
		return nil, domain.NewReleaseUnderflowError(e, quantity)
	}

	previous := e.AvailableStock
	e.ReservedStock -= quantity
	e.AvailableStock += quantity

	return l.apply(ctx, q, e, &domain.StockMovement{
		TenantID:      actor.TenantID,
		EquipmentID:   e.ID,
		BookingID:     bookingID,
		Type:          outcome.MovementType(),
		Quantity:      quantity,
		PreviousStock: previous,
		NewStock:      e.AvailableStock,
		Reason:        reason,
		ActorID:       actor.UserID,
	})
}

func (l *stockLedger) AdjustTotal(ctx context.Context, q repository.DBTX, actor domain.Actor, equipmentID, newTotal int32, reason string) (*domain.StockMovement, error) {
	if newTotal < 0 {
		return nil, domain.NewValidationError("total stock cannot be negative, got %d", newTotal)
	}
	e, err := l.equipmentRepo.LockByID(ctx, q, actor.TenantID, equipmentID)
	if err != nil {
		return nil, err
	}
	if minimum := e.Committed(); newTotal < minimum {
		return nil, domain.NewStockUnderflowError(e, newTotal, minimum)
	}

	delta := newTotal - e.TotalStock
	if delta == 0 {
		return nil, nil
	}

	movement := &domain.StockMovement{
		TenantID:      actor.TenantID,
		EquipmentID:   e.ID,
		Type:          domain.MovementTypeAdjustment,
		Quantity:      -delta,
		PreviousStock: e.TotalStock,
		NewStock:      newTotal,
		Reason:        reason,
		ActorID:       actor.UserID,
	}
	if delta > 0 {
		movement.Type = domain.MovementTypePurchase
		movement.Quantity = delta
	}

	e.TotalStock = newTotal
	e.AvailableStock = newTotal - e.Committed()

	return l.apply(ctx, q, e, movement)
}

func (l *stockLedger) MoveCondition(ctx context.Context, q repository.DBTX, actor domain.Actor, equipmentID int32, from, to domain.StockBucket, quantity int32, reason string) (*domain.StockMovement, error) {
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be positive, got %d", quantity)
	}
	if from == to {
		return nil, domain.NewValidationError("source and target condition are both %s", from)
	}
	if from == domain.StockBucketReserved || to == domain.StockBucketReserved {
		return nil, domain.NewValidationError("reserved stock only changes through bookings")
	}

	e, err := l.equipmentRepo.LockByID(ctx, q, actor.TenantID, equipmentID)
	if err != nil {
		return nil, err
	}

	source, err := bucketCounter(e, from)
	if err != nil {
		return nil, err
	}
	target, err := bucketCounter(e, to)
	if err != nil {
		return nil, err
	}
	if *source < quantity {
		return nil, domain.NewInsufficientStockError(e, quantity, *source)
	}

	previous := e.AvailableStock
	*source -= quantity
	*target += quantity

	if reason == "" {
		reason = fmt.Sprintf("%s -> %s", from, to)
	}
	return l.apply(ctx, q, e, &domain.StockMovement{
		TenantID:      actor.TenantID,
		EquipmentID:   e.ID,
		Type:          domain.MovementTypeAdjustment,
		Quantity:      quantity,
		PreviousStock: previous,
		NewStock:      e.AvailableStock,
		Reason:        reason,
		ActorID:       actor.UserID,
	})
}

// apply persists the counters of e and the movement describing the change.
func (l *stockLedger) apply(ctx context.Context, q repository.DBTX, e *domain.Equipment, m *domain.StockMovement) (*domain.StockMovement, error) {
	if !e.CountersBalanced() {
		return nil, fmt.Errorf("stock counters of equipment %d would not balance: total=%d available=%d reserved=%d maintenance=%d damaged=%d",
			e.ID, e.TotalStock, e.AvailableStock, e.ReservedStock, e.MaintenanceStock, e.DamagedStock)
	}
	if err := l.equipmentRepo.UpdateCounters(ctx, q, e); err != nil {
		return nil, err
	}
	if err := l.movementRepo.Create(ctx, q, m); err != nil {
		return nil, err
	}

	logger.Debug("Stock movement recorded",
		"equipmentID", e.ID, "type", m.Type, "quantity", m.Quantity,
		"available", e.AvailableStock, "reserved", e.ReservedStock)
	return m, nil
}

func bucketCounter(e *domain.Equipment, bucket domain.StockBucket) (*int32, error) {
	switch bucket {
	case domain.StockBucketAvailable:
		return &e.AvailableStock, nil
	case domain.StockBucketMaintenance:
		return &e.MaintenanceStock, nil
	case domain.StockBucketDamaged:
		return &e.DamagedStock, nil
	case domain.StockBucketReserved:
		return &e.ReservedStock, nil
	default:
		return nil, domain.NewValidationError("unknown stock condition %q", bucket)
	}
}
