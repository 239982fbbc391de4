package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestHandleTransactionEvent(t *testing.T) {
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "fintrack_test.db"))
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	user, err := repo.CreateUser(ctx, "alice@example.com", "Alice", "hash")
	require.NoError(t, err)

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:          user.ID,
		Description:     "lunch",
		Amount:          decimal.RequireFromString("12.50"),
		Type:            core.Expense,
		Category:        "food",
		TransactionDate: time.Now().UTC(),
	})
	require.NoError(t, err)

	w := NewReportWorker(repo)
	require.NoError(t, w.HandleTransactionEvent(ctx, amqp.NewTransactionEvent(tx.ID, user.ID, amqp.ActionCreated)))
}

func TestReportForUserWithoutExpenses(t *testing.T) {
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "fintrack_test.db"))
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	user, err := repo.CreateUser(ctx, "alice@example.com", "Alice", "hash")
	require.NoError(t, err)

	require.NoError(t, NewReportWorker(repo).ReportForUser(ctx, user.ID))
}
