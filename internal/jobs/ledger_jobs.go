package jobs

import (
	"context"
	"fmt"

	"chacara-backend/internal/logger"
)

const markOverduePaymentsJob = "MarkOverduePayments"

// MarkOverduePayments is the cron entry point for the overdue sweep.
func (jr *JobRunner) MarkOverduePayments() {
	_ = jr.RunMarkOverduePayments()
}

// RunMarkOverduePayments moves pending payments past their due date (plus the
// configured grace period) to atrasado.
func (jr *JobRunner) RunMarkOverduePayments() error {
	return jr.runWithRecovery(markOverduePaymentsJob, func() error {
		ctx := context.Background()
		today := jr.now().UTC()

		count, err := jr.services.Ledger.MarkOverduePayments(ctx, today)
		if err != nil {
			return fmt.Errorf("failed to mark overdue payments: %w", err)
		}

		logger.Info("Marked payments as overdue", "count", count, "graceDays", jr.config.Ledger.OverdueGraceDays)
		return nil
	})
}
