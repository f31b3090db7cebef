package jobs

import (
	"context"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
)

const jobTimeout = 5 * time.Minute

// RelayBookingEvents publishes outbox events whose post-commit publish failed.
func (jr *JobRunner) RelayBookingEvents() {
	jr.runWithRecovery("RelayBookingEvents", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		cfg := jr.config.Outbox
		published, err := jr.services.Notifier.RelayPending(ctx, int32(cfg.RelayBatchSize), int32(cfg.MaxAttempts))
		if err != nil {
			logger.Error("Failed to relay booking events", "published", published, "error", err)
			return
		}
		if published > 0 {
			logger.Info("Relayed booking events", "count", published)
		}
	})
}

// ReconcileStock checks every equipment's counters against its active bookings.
// Drift is reported, never corrected.
func (jr *JobRunner) ReconcileStock() {
	jr.runWithRecovery("ReconcileStock", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		report, err := jr.services.Reconciler.Reconcile(ctx)
		if err != nil {
			logger.Error("Failed to reconcile stock", "error", err)
			return
		}

		for _, d := range report.Drifted {
			logger.Error("Stock drift detected",
				"equipmentID", d.EquipmentID, "tenantID", d.TenantID,
				"reserved", d.ReservedStock, "activeQuantity", d.ActiveQuantity)
		}
		logger.Info("Stock reconciliation finished",
			"checked", report.Checked, "drifted", len(report.Drifted), "unbalanced", len(report.Unbalanced))
	})
}
