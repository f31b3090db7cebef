package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"

	"github.com/shopspring/decimal"
)

type equipmentService struct {
	tx            repository.Transactor
	equipmentRepo repository.EquipmentRepository
	movementRepo  repository.StockMovementRepository
	activityRepo  repository.ActivityLogRepository
	ledger        StockLedger
}

func NewEquipmentService(
	tx repository.Transactor,
	equipmentRepo repository.EquipmentRepository,
	movementRepo repository.StockMovementRepository,
	activityRepo repository.ActivityLogRepository,
	ledger StockLedger,
) EquipmentService {
	return &equipmentService{
		tx:            tx,
		equipmentRepo: equipmentRepo,
		movementRepo:  movementRepo,
		activityRepo:  activityRepo,
		ledger:        ledger,
	}
}

// CreateEquipment stores e with empty counters and then books its initial
// TotalStock as a PURCHASE so the opening balance has a movement.
func (s *equipmentService) CreateEquipment(ctx context.Context, actor domain.Actor, e *domain.Equipment) error {
	logger.EnterMethod("equipmentService.CreateEquipment", "tenantID", actor.TenantID, "name", e.Name)

	e.Name = strings.TrimSpace(e.Name)
	if e.TrackingMode == "" {
		e.TrackingMode = domain.TrackingModeQuantity
	}
	if err := validateEquipment(e); err != nil {
		logger.ExitMethodWithError("equipmentService.CreateEquipment", err)
		return err
	}

	initial := e.TotalStock
	e.TenantID = actor.TenantID
	e.TotalStock, e.AvailableStock, e.ReservedStock, e.MaintenanceStock, e.DamagedStock = 0, 0, 0, 0, 0
	e.SortRentalPeriods()
	e.DerivePricePerDay()

	var movement *domain.StockMovement
	err := s.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		if err := s.equipmentRepo.Create(ctx, q, e); err != nil {
			return err
		}
		if initial > 0 {
			var err error
			movement, err = s.ledger.AdjustTotal(ctx, q, actor, e.ID, initial, "Initial stock")
			if err != nil {
				return err
			}
			e.TotalStock, e.AvailableStock = initial, initial
		}
		return s.logActivity(ctx, q, actor, e, domain.ActivityActionCreate,
			fmt.Sprintf("Equipment %s created with %d unit(s)", e.Name, initial), nil)
	})
	if err != nil {
		logger.ExitMethodWithError("equipmentService.CreateEquipment", err, "name", e.Name)
		return err
	}

	recordMovements([]*domain.StockMovement{movement})
	logger.ExitMethod("equipmentService.CreateEquipment", "equipmentID", e.ID)
	return nil
}

func validateEquipment(e *domain.Equipment) error {
	if e.Name == "" {
		return domain.NewValidationError("equipment name is required")
	}
	switch e.TrackingMode {
	case domain.TrackingModeQuantity:
	case domain.TrackingModeSerialized:
		if e.TotalStock != 0 {
			return domain.NewValidationError("serialized equipment starts empty, add units to grow its stock")
		}
	default:
		return domain.NewValidationError("unknown tracking mode %q", e.TrackingMode)
	}
	if e.TotalStock < 0 {
		return domain.NewValidationError("total stock cannot be negative")
	}
	if e.PricePerDay.IsNegative() {
		return domain.NewValidationError("price per day cannot be negative")
	}
	return validateRentalPeriods(e.RentalPeriods)
}

func validateRentalPeriods(periods []domain.RentalPeriod) error {
	seen := make(map[int32]bool, len(periods))
	for _, p := range periods {
		if p.Days <= 0 {
			return domain.NewValidationError("rental period days must be positive, got %d", p.Days)
		}
		if p.Price.IsNegative() {
			return domain.NewValidationError("rental period price cannot be negative")
		}
		if seen[p.Days] {
			return domain.NewValidationError("duplicate rental period of %d day(s)", p.Days)
		}
		seen[p.Days] = true
	}
	return nil
}

func (s *equipmentService) GetEquipment(ctx context.Context, actor domain.Actor, id int32) (*domain.Equipment, error) {
	var e *domain.Equipment
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		var err error
		e, err = s.equipmentRepo.GetByID(ctx, q, actor.TenantID, id)
		return err
	})
	return e, err
}

func (s *equipmentService) ListEquipment(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Equipment, int32, error) {
	page, pageSize = normalizePage(page, pageSize)

	var (
		list  []domain.Equipment
		count int32
	)
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		var err error
		list, count, err = s.equipmentRepo.List(ctx, q, actor.TenantID, page, pageSize)
		return err
	})
	return list, count, err
}

func (s *equipmentService) UpdatePricing(ctx context.Context, actor domain.Actor, id int32, periods []domain.RentalPeriod, pricePerDay *decimal.Decimal) (*domain.Equipment, error) {
	logger.EnterMethod("equipmentService.UpdatePricing", "equipmentID", id, "tiers", len(periods))

	if err := validateRentalPeriods(periods); err != nil {
		logger.ExitMethodWithError("equipmentService.UpdatePricing", err)
		return nil, err
	}
	if pricePerDay != nil && pricePerDay.IsNegative() {
		err := domain.NewValidationError("price per day cannot be negative")
		logger.ExitMethodWithError("equipmentService.UpdatePricing", err)
		return nil, err
	}
	// With tiers the daily price is derived from the cheapest tier.
	if pricePerDay != nil && len(periods) > 0 {
		err := domain.NewValidationError("price per day is derived from rental periods, send one or the other")
		logger.ExitMethodWithError("equipmentService.UpdatePricing", err)
		return nil, err
	}

	var e *domain.Equipment
	err := s.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		var err error
		e, err = s.equipmentRepo.LockByID(ctx, q, actor.TenantID, id)
		if err != nil {
			return err
		}
		previous := e.PricePerDay
		e.RentalPeriods = periods
		e.SortRentalPeriods()
		if pricePerDay != nil {
			e.PricePerDay = *pricePerDay
		}
		e.DerivePricePerDay()

		if err := s.equipmentRepo.UpdatePricing(ctx, q, e); err != nil {
			return err
		}
		return s.logActivity(ctx, q, actor, e, domain.ActivityActionUpdate,
			fmt.Sprintf("Pricing of %s updated", e.Name),
			map[string]any{
				"previous_price_per_day": previous.StringFixed(2),
				"price_per_day":          e.PricePerDay.StringFixed(2),
				"tiers":                  len(e.RentalPeriods),
			})
	})
	if err != nil {
		logger.ExitMethodWithError("equipmentService.UpdatePricing", err, "equipmentID", id)
		return nil, err
	}

	logger.ExitMethod("equipmentService.UpdatePricing", "equipmentID", id, "pricePerDay", e.PricePerDay.String())
	return e, nil
}

func (s *equipmentService) AdjustStock(ctx context.Context, actor domain.Actor, id, newTotal int32, reason string) (*domain.Equipment, error) {
	logger.EnterMethod("equipmentService.AdjustStock", "equipmentID", id, "newTotal", newTotal)

	var (
		e        *domain.Equipment
		movement *domain.StockMovement
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		current, err := s.equipmentRepo.LockByID(ctx, q, actor.TenantID, id)
		if err != nil {
			return err
		}
		if current.TrackingMode == domain.TrackingModeSerialized {
			return domain.NewValidationError("stock of %q follows its units, add units instead", current.Name)
		}
		previous := current.TotalStock

		if reason == "" {
			reason = "Manual stock adjustment"
		}
		if movement, err = s.ledger.AdjustTotal(ctx, q, actor, id, newTotal, reason); err != nil {
			return err
		}
		if e, err = s.equipmentRepo.GetByID(ctx, q, actor.TenantID, id); err != nil {
			return err
		}
		if movement == nil {
			return nil
		}
		return s.logActivity(ctx, q, actor, e, domain.ActivityActionStockAdjust,
			fmt.Sprintf("Stock of %s changed from %d to %d", e.Name, previous, newTotal),
			map[string]any{"previous_total": previous, "new_total": newTotal, "reason": reason})
	})
	if err != nil {
		logger.ExitMethodWithError("equipmentService.AdjustStock", err, "equipmentID", id)
		return nil, err
	}

	recordMovements([]*domain.StockMovement{movement})
	logger.ExitMethod("equipmentService.AdjustStock", "equipmentID", id, "total", e.TotalStock)
	return e, nil
}

func (s *equipmentService) MoveCondition(ctx context.Context, actor domain.Actor, id int32, from, to domain.StockBucket, quantity int32, reason string) (*domain.Equipment, error) {
	logger.EnterMethod("equipmentService.MoveCondition", "equipmentID", id, "from", from, "to", to, "quantity", quantity)

	var (
		e        *domain.Equipment
		movement *domain.StockMovement
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		current, err := s.equipmentRepo.LockByID(ctx, q, actor.TenantID, id)
		if err != nil {
			return err
		}
		if current.TrackingMode == domain.TrackingModeSerialized {
			return domain.NewValidationError("condition of %q is tracked per unit", current.Name)
		}
		if movement, err = s.ledger.MoveCondition(ctx, q, actor, id, from, to, quantity, reason); err != nil {
			return err
		}
		if e, err = s.equipmentRepo.GetByID(ctx, q, actor.TenantID, id); err != nil {
			return err
		}
		return s.logActivity(ctx, q, actor, e, domain.ActivityActionStockAdjust,
			fmt.Sprintf("%d unit(s) of %s moved from %s to %s", quantity, e.Name, from, to),
			map[string]any{"from": from, "to": to, "quantity": quantity, "reason": reason})
	})
	if err != nil {
		logger.ExitMethodWithError("equipmentService.MoveCondition", err, "equipmentID", id)
		return nil, err
	}

	recordMovements([]*domain.StockMovement{movement})
	logger.ExitMethod("equipmentService.MoveCondition", "equipmentID", id)
	return e, nil
}

func (s *equipmentService) DeleteEquipment(ctx context.Context, actor domain.Actor, id int32) error {
	logger.EnterMethod("equipmentService.DeleteEquipment", "equipmentID", id)

	err := s.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		e, err := s.equipmentRepo.LockByID(ctx, q, actor.TenantID, id)
		if err != nil {
			return err
		}
		refs, err := s.equipmentRepo.CountActiveReferences(ctx, q, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return domain.NewEquipmentInUseError(e, refs)
		}
		if err := s.equipmentRepo.Delete(ctx, q, actor.TenantID, id); err != nil {
			return err
		}
		return s.logActivity(ctx, q, actor, e, domain.ActivityActionDelete,
			fmt.Sprintf("Equipment %s deleted", e.Name), nil)
	})
	if err != nil {
		logger.ExitMethodWithError("equipmentService.DeleteEquipment", err, "equipmentID", id)
		return err
	}

	logger.ExitMethod("equipmentService.DeleteEquipment", "equipmentID", id)
	return nil
}

func (s *equipmentService) ListMovements(ctx context.Context, actor domain.Actor, id, page, pageSize int32) ([]domain.StockMovement, int32, error) {
	page, pageSize = normalizePage(page, pageSize)

	var (
		movements []domain.StockMovement
		count     int32
	)
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		if _, err := s.equipmentRepo.GetByID(ctx, q, actor.TenantID, id); err != nil {
			return err
		}
		var err error
		movements, count, err = s.movementRepo.ListByEquipment(ctx, q, actor.TenantID, id, page, pageSize)
		return err
	})
	return movements, count, err
}

func (s *equipmentService) logActivity(ctx context.Context, q repository.DBTX, actor domain.Actor, e *domain.Equipment, action domain.ActivityAction, description string, metadata map[string]any) error {
	return s.activityRepo.Create(ctx, q, &domain.ActivityLog{
		TenantID:    actor.TenantID,
		ActorID:     actor.UserID,
		EntityType:  domain.EntityTypeEquipment,
		EntityID:    e.ID,
		Action:      action,
		Description: description,
		Metadata:    metadata,
	})
}
