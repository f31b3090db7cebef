package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
)

type unitService struct {
	tx            repository.Transactor
	equipmentRepo repository.EquipmentRepository
	unitRepo      repository.EquipmentUnitRepository
	activityRepo  repository.ActivityLogRepository
	ledger        StockLedger
}

func NewUnitService(
	tx repository.Transactor,
	equipmentRepo repository.EquipmentRepository,
	unitRepo repository.EquipmentUnitRepository,
	activityRepo repository.ActivityLogRepository,
	ledger StockLedger,
) UnitService {
	return &unitService{
		tx:            tx,
		equipmentRepo: equipmentRepo,
		unitRepo:      unitRepo,
		activityRepo:  activityRepo,
		ledger:        ledger,
	}
}

func (s *unitService) Assign(ctx context.Context, q repository.DBTX, equipmentID int32, unitIDs []int32) error {
	units, err := s.lockUnits(ctx, q, equipmentID, unitIDs)
	if err != nil {
		return err
	}
	for i := range units {
		u := &units[i]
		if u.Status != domain.UnitStatusAvailable {
			return domain.NewUnitUnavailableError(u, fmt.Sprintf("status is %s", u.Status))
		}
	}
	return s.unitRepo.UpdateStatus(ctx, q, unitIDs, domain.UnitStatusRented)
}

func (s *unitService) Release(ctx context.Context, q repository.DBTX, equipmentID int32, unitIDs []int32) error {
	if len(unitIDs) == 0 {
		return nil
	}
	units, err := s.lockUnits(ctx, q, equipmentID, unitIDs)
	if err != nil {
		return err
	}
	var rented []int32
	for _, u := range units {
		if u.Status == domain.UnitStatusRented {
			rented = append(rented, u.ID)
		}
	}
	if len(rented) == 0 {
		return nil
	}
	return s.unitRepo.UpdateStatus(ctx, q, rented, domain.UnitStatusAvailable)
}

func (s *unitService) lockUnits(ctx context.Context, q repository.DBTX, equipmentID int32, unitIDs []int32) ([]domain.EquipmentUnit, error) {
	units, err := s.unitRepo.LockByIDs(ctx, q, equipmentID, unitIDs)
	if err != nil {
		return nil, err
	}
	if len(units) != len(unitIDs) {
		found := make(map[int32]bool, len(units))
		for _, u := range units {
			found[u.ID] = true
		}
		for _, id := range unitIDs {
			if !found[id] {
				return nil, domain.NewUnitNotFoundError(id)
			}
		}
	}
	return units, nil
}

func (s *unitService) AddUnit(ctx context.Context, actor domain.Actor, equipmentID int32, serialNumber, internalCode string) (*domain.EquipmentUnit, error) {
	logger.EnterMethod("unitService.AddUnit", "equipmentID", equipmentID, "serialNumber", serialNumber)

	serialNumber = strings.TrimSpace(serialNumber)
	internalCode = strings.TrimSpace(internalCode)
	if serialNumber == "" && internalCode == "" {
		err := domain.NewValidationError("a unit needs a serial number or an internal code")
		logger.ExitMethodWithError("unitService.AddUnit", err)
		return nil, err
	}

	unit := &domain.EquipmentUnit{
		EquipmentID:  equipmentID,
		SerialNumber: serialNumber,
		InternalCode: internalCode,
		Status:       domain.UnitStatusAvailable,
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		e, err := s.equipmentRepo.LockByID(ctx, q, actor.TenantID, equipmentID)
		if err != nil {
			return err
		}
		if e.TrackingMode != domain.TrackingModeSerialized {
			return domain.NewValidationError("%q is tracked by quantity and has no units", e.Name)
		}
		if err := s.unitRepo.Create(ctx, q, unit); err != nil {
			return err
		}
		if _, err := s.ledger.AdjustTotal(ctx, q, actor, equipmentID, e.TotalStock+1,
			fmt.Sprintf("Unit %s added", unit.Label())); err != nil {
			return err
		}
		return s.activityRepo.Create(ctx, q, &domain.ActivityLog{
			TenantID:    actor.TenantID,
			ActorID:     actor.UserID,
			EntityType:  domain.EntityTypeUnit,
			EntityID:    unit.ID,
			Action:      domain.ActivityActionCreate,
			Description: fmt.Sprintf("Unit %s added to %s", unit.Label(), e.Name),
			Metadata:    map[string]any{"equipment_id": equipmentID},
		})
	})
	if err != nil {
		logger.ExitMethodWithError("unitService.AddUnit", err, "equipmentID", equipmentID)
		return nil, err
	}

	logger.ExitMethod("unitService.AddUnit", "equipmentID", equipmentID, "unitID", unit.ID)
	return unit, nil
}

func (s *unitService) ListUnits(ctx context.Context, actor domain.Actor, equipmentID int32) ([]domain.EquipmentUnit, error) {
	var units []domain.EquipmentUnit
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		if _, err := s.equipmentRepo.GetByID(ctx, q, actor.TenantID, equipmentID); err != nil {
			return err
		}
		var err error
		units, err = s.unitRepo.ListByEquipment(ctx, q, equipmentID)
		return err
	})
	return units, err
}

// ChangeStatus applies a manual status change to a unit that is not on an
// active booking, moving one unit between stock buckets when the status maps
// to a different bucket.
func (s *unitService) ChangeStatus(ctx context.Context, actor domain.Actor, equipmentID, unitID int32, status domain.UnitStatus, reason string) (*domain.EquipmentUnit, error) {
	logger.EnterMethod("unitService.ChangeStatus", "unitID", unitID, "status", status)

	if !status.Valid() {
		err := domain.NewValidationError("unknown unit status %q", status)
		logger.ExitMethodWithError("unitService.ChangeStatus", err)
		return nil, err
	}
	if status == domain.UnitStatusRented {
		err := domain.NewValidationError("units are rented by assigning them to a booking")
		logger.ExitMethodWithError("unitService.ChangeStatus", err)
		return nil, err
	}

	var unit *domain.EquipmentUnit
	err := s.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		e, err := s.equipmentRepo.LockByID(ctx, q, actor.TenantID, equipmentID)
		if err != nil {
			return err
		}
		units, err := s.lockUnits(ctx, q, equipmentID, []int32{unitID})
		if err != nil {
			return err
		}
		unit = &units[0]

		if !unit.Status.CanTransitionTo(status) {
			return domain.NewInvalidUnitTransitionError(unit, status)
		}
		onBooking, err := s.unitRepo.IsOnActiveBooking(ctx, q, unitID)
		if err != nil {
			return err
		}
		if onBooking {
			return domain.NewUnitUnavailableError(unit, "assigned to an active booking")
		}

		from, to := unit.Status.Bucket(), status.Bucket()
		if from != to {
			note := fmt.Sprintf("Unit %s %s -> %s", unit.Label(), unit.Status, status)
			if reason != "" {
				note += ": " + reason
			}
			if _, err := s.ledger.MoveCondition(ctx, q, actor, e.ID, from, to, 1, note); err != nil {
				return err
			}
		}

		previous := unit.Status
		if err := s.unitRepo.UpdateStatus(ctx, q, []int32{unitID}, status); err != nil {
			return err
		}
		unit.Status = status

		return s.activityRepo.Create(ctx, q, &domain.ActivityLog{
			TenantID:    actor.TenantID,
			ActorID:     actor.UserID,
			EntityType:  domain.EntityTypeUnit,
			EntityID:    unitID,
			Action:      domain.ActivityActionUnitStatus,
			Description: fmt.Sprintf("Unit %s of %s changed from %s to %s", unit.Label(), e.Name, previous, status),
			Metadata: map[string]any{
				"equipment_id":    equipmentID,
				"previous_status": previous,
				"new_status":      status,
				"reason":          reason,
			},
		})
	})
	if err != nil {
		logger.ExitMethodWithError("unitService.ChangeStatus", err, "unitID", unitID)
		return nil, err
	}

	logger.ExitMethod("unitService.ChangeStatus", "unitID", unitID, "status", status)
	return unit, nil
}
