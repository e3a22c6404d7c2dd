package jobs

import (
	"context"

	"keyrental-backend/internal/config"
	"keyrental-backend/internal/logger"
	"keyrental-backend/internal/metrics"
)

// ReconcileRentals closes duplicate active rentals so every student holds at
// most one per scope.
func (jr *JobRunner) ReconcileRentals() {
	jr.runWithRecovery("ReconcileRentals", func() {
		ctx := jobContext("ReconcileRentals")
		closed, err := jr.services.Reconciliation.Reconcile(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to reconcile rentals", "error", err)
			return
		}
		metrics.ReconciledTotal.Add(float64(len(closed)))
		logger.InfoContext(ctx, "Reconciled rentals", "closed", len(closed))
		for _, r := range closed {
			logger.DebugContext(ctx, "Closed duplicate rental",
				"transaction_id", r.ID,
				"student_id", r.StudentID,
				"kind", r.Kind)
		}
	})
}

// ProvisionCatalog inserts any catalog resource missing from the database.
func (jr *JobRunner) ProvisionCatalog() {
	jr.runWithRecovery("ProvisionCatalog", func() {
		catalog, err := config.LoadCatalog(jr.config.Catalog.File)
		if err != nil {
			logger.Error("Failed to load catalog", "file", jr.config.Catalog.File, "error", err)
			return
		}
		ctx := jobContext("ProvisionCatalog")
		inserted, err := jr.services.Catalog.Provision(ctx, catalog)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to provision catalog", "error", err)
			return
		}
		logger.InfoContext(ctx, "Provisioned catalog", "inserted", inserted)
	})
}

// jobContext tags everything logged during a run with the job name.
func jobContext(jobName string) context.Context {
	return logger.WithContext(context.Background(), logger.Get().With("job", jobName))
}
