package service

import (
	"context"
	"strconv"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/metrics"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
)

type stockReconciler struct {
	tx            repository.Transactor
	equipmentRepo repository.EquipmentRepository
	bookingRepo   repository.BookingRepository
}

// NewStockReconciler reports drift without correcting it.
func NewStockReconciler(tx repository.Transactor, equipmentRepo repository.EquipmentRepository, bookingRepo repository.BookingRepository) StockReconciler {
	return &stockReconciler{
		tx:            tx,
		equipmentRepo: equipmentRepo,
		bookingRepo:   bookingRepo,
	}
}

func (r *stockReconciler) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	logger.EnterMethod("stockReconciler.Reconcile")

	report := &ReconcileReport{RanAt: time.Now().UTC()}
	err := r.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		equipment, err := r.equipmentRepo.ListAll(ctx, q)
		if err != nil {
			return err
		}
		active, err := r.bookingRepo.SumActiveQuantities(ctx, q)
		if err != nil {
			return err
		}

		metrics.StockDrift.Reset()
		for _, e := range equipment {
			report.Checked++
			if !e.CountersBalanced() {
				report.Unbalanced = append(report.Unbalanced, e.ID)
				logger.Error("Equipment counters do not balance",
					"equipmentID", e.ID, "tenantID", e.TenantID, "total", e.TotalStock,
					"available", e.AvailableStock, "reserved", e.ReservedStock,
					"maintenance", e.MaintenanceStock, "damaged", e.DamagedStock)
			}
			if quantity := active[e.ID]; quantity != e.ReservedStock {
				report.Drifted = append(report.Drifted, StockDrift{
					EquipmentID:    e.ID,
					TenantID:       e.TenantID,
					ReservedStock:  e.ReservedStock,
					ActiveQuantity: quantity,
				})
				metrics.StockDrift.WithLabelValues(strconv.Itoa(int(e.ID))).Set(float64(e.ReservedStock - quantity))
				logger.Warn("Reserved stock differs from active booking items",
					"equipmentID", e.ID, "tenantID", e.TenantID,
					"reserved", e.ReservedStock, "activeQuantity", quantity)
			}
		}
		metrics.UnbalancedEquipment.Set(float64(len(report.Unbalanced)))
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("stockReconciler.Reconcile", err)
		return nil, err
	}

	logger.ExitMethod("stockReconciler.Reconcile", "checked", report.Checked,
		"drifted", len(report.Drifted), "unbalanced", len(report.Unbalanced))
	return report, nil
}
