package service

import (
	"context"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/utils"

	"github.com/shopspring/decimal"
)

type pricingCalculator struct {
	tx            repository.Transactor
	equipmentRepo repository.EquipmentRepository
}

func NewPricingCalculator(tx repository.Transactor, equipmentRepo repository.EquipmentRepository) PricingCalculator {
	return &pricingCalculator{tx: tx, equipmentRepo: equipmentRepo}
}

func (c *pricingCalculator) Quote(e *domain.Equipment, days, quantity int32, override *decimal.Decimal) (domain.PriceQuote, error) {
	quote, err := utils.CalculateRentalPrice(e, days, quantity, override)
	if err != nil {
		return domain.PriceQuote{}, domain.NewValidationError("%s", err.Error())
	}
	return quote, nil
}

func (c *pricingCalculator) Price(ctx context.Context, tenantID, equipmentID, days, quantity int32) (*domain.PriceQuote, error) {
	logger.EnterMethod("pricingCalculator.Price", "equipmentID", equipmentID, "days", days, "quantity", quantity)

	var quote domain.PriceQuote
	err := c.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		e, err := c.equipmentRepo.GetByID(ctx, q, tenantID, equipmentID)
		if err != nil {
			return err
		}
		quote, err = c.Quote(e, days, quantity, nil)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("pricingCalculator.Price", err, "equipmentID", equipmentID)
		return nil, err
	}

	logger.ExitMethod("pricingCalculator.Price", "equipmentID", equipmentID, "total", quote.TotalPrice.String())
	return &quote, nil
}
