package service

import (
	"context"
	"errors"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
)

type availabilityChecker struct {
	tx            repository.Transactor
	equipmentRepo repository.EquipmentRepository
	bookingRepo   repository.BookingRepository
}

func NewAvailabilityChecker(tx repository.Transactor, equipmentRepo repository.EquipmentRepository, bookingRepo repository.BookingRepository) AvailabilityChecker {
	return &availabilityChecker{
		tx:            tx,
		equipmentRepo: equipmentRepo,
		bookingRepo:   bookingRepo,
	}
}

func (c *availabilityChecker) CheckWindow(ctx context.Context, q repository.DBTX, e *domain.Equipment, window domain.DateRange, quantity, pending, excludeBookingID int32) (*domain.AvailabilityResult, error) {
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be positive, got %d", quantity)
	}
	if window.End.Before(window.Start) {
		return nil, domain.NewValidationError("end date must be >= start date")
	}

	capacity := e.Capacity()
	result := &domain.AvailabilityResult{
		EquipmentID:    e.ID,
		Requested:      quantity,
		Capacity:       capacity,
		AvailableStock: e.AvailableStock - pending,
	}

	if quantity > capacity {
		return result, domain.NewInsufficientStockError(e, quantity, capacity)
	}

	demand, err := c.bookingRepo.SumActiveDemand(ctx, q, e.ID, window, excludeBookingID)
	if err != nil {
		return nil, err
	}
	result.Demand = demand + pending

	if capacity-result.Demand < quantity {
		return result, domain.NewCapacityExceededError(e, quantity, capacity, result.Demand)
	}

	result.Available = true
	return result, nil
}

func (c *availabilityChecker) Evaluate(ctx context.Context, q repository.DBTX, e *domain.Equipment, window domain.DateRange, quantity, pending, excludeBookingID int32) (*domain.AvailabilityResult, error) {
	result, err := c.CheckWindow(ctx, q, e, window, quantity, pending, excludeBookingID)
	if err != nil {
		return result, err
	}
	if result.AvailableStock < quantity {
		result.Available = false
		return result, domain.NewInsufficientStockError(e, quantity, result.AvailableStock)
	}
	return result, nil
}

func (c *availabilityChecker) CheckAvailability(ctx context.Context, tenantID, equipmentID int32, window domain.DateRange, quantity int32) (*domain.AvailabilityResult, error) {
	logger.EnterMethod("availabilityChecker.CheckAvailability", "equipmentID", equipmentID, "quantity", quantity)

	var result *domain.AvailabilityResult
	err := c.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		e, err := c.equipmentRepo.GetByID(ctx, q, tenantID, equipmentID)
		if err != nil {
			return err
		}
		result, err = c.Evaluate(ctx, q, e, window, quantity, 0, 0)
		return err
	})

	var de *domain.Error
	if err != nil && result != nil && errors.As(err, &de) {
		result.Available = false
		result.Reason = de.Kind
		result.Message = de.Message
		err = nil
	}
	if err != nil {
		logger.ExitMethodWithError("availabilityChecker.CheckAvailability", err, "equipmentID", equipmentID)
		return nil, err
	}

	logger.ExitMethod("availabilityChecker.CheckAvailability", "equipmentID", equipmentID, "available", result.Available)
	return result, nil
}
