package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/storage"
)

// ReportWorker consumes transaction events and logs an up-to-date
// per-category expense report for the affected user. It fills the role a
// database-polling analytics job would: the numbers land in the structured
// log stream instead of a dashboard.
type ReportWorker struct {
	storage *storage.Repository
}

func NewReportWorker(storage *storage.Repository) *ReportWorker {
	return &ReportWorker{storage: storage}
}

// HandleTransactionEvent recomputes the user's expense totals after a
// transaction was created or deleted.
func (w *ReportWorker) HandleTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"transaction_id", ev.TransactionID,
		"user_id", ev.UserID,
		"action", ev.Action)

	return w.ReportForUser(ctx, ev.UserID)
}

// ReportForUser logs the user's current expense totals per category.
func (w *ReportWorker) ReportForUser(ctx context.Context, userID int64) error {
	totals, err := w.storage.SumExpensesByCategory(ctx, userID)
	if err != nil {
		return fmt.Errorf("sum expenses for user %d: %w", userID, err)
	}

	if len(totals) == 0 {
		slog.InfoContext(ctx, "No expenses recorded for user", "user_id", userID)
		return nil
	}

	for category, total := range totals {
		slog.InfoContext(ctx, "Expense total",
			"user_id", userID,
			"category", category,
			"amount", total.String())
	}

	return nil
}
