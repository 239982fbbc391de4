package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	reportCacheSize = 1024
	reportCacheTTL  = 5 * time.Minute
)

// TransactionService records financial events and publishes them to the
// optional AMQP event stream for downstream reporting. Per-user expense
// aggregations are cached and invalidated on every write.
type TransactionService struct {
	storage     *storage.Repository
	amqpClient  *amqp.Client
	reportCache *cache.LRU[map[string]decimal.Decimal]
}

func NewTransactionService(storage *storage.Repository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:     storage,
		amqpClient:  amqpClient,
		reportCache: cache.NewLRU[map[string]decimal.Decimal](reportCacheSize, reportCacheTTL),
	}
}

func reportCacheKey(userID int64) string {
	return fmt.Sprintf("expenses:%d", userID)
}

// Create persists a new transaction for an existing user. The transaction
// date is set server-side; clients cannot supply it.
func (s *TransactionService) Create(ctx context.Context, userID int64, description string, amount decimal.Decimal, txType core.TransactionType, category string) (*core.Transaction, error) {
	if _, err := s.storage.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	t := core.Transaction{
		UserID:          userID,
		Description:     description,
		Amount:          amount,
		Type:            txType,
		Category:        category,
		TransactionDate: time.Now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	s.reportCache.Invalidate(reportCacheKey(saved.UserID))
	s.publishEvent(ctx, saved.ID, saved.UserID, amqp.ActionCreated)

	return saved, nil
}

// ListForUser returns all of a user's transactions, newest first.
func (s *TransactionService) ListForUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.storage.ListTransactionsByUser(ctx, userID)
}

// ListForUserBetween returns transactions dated within [start, end] inclusive.
func (s *TransactionService) ListForUserBetween(ctx context.Context, userID int64, start, end time.Time) ([]core.Transaction, error) {
	return s.storage.ListTransactionsByUserBetween(ctx, userID, start, end)
}

// ExpensesByCategory sums EXPENSE amounts per category for a user. Results
// are served from the report cache until a write invalidates them.
func (s *TransactionService) ExpensesByCategory(ctx context.Context, userID int64) (map[string]decimal.Decimal, error) {
	key := reportCacheKey(userID)
	if totals, ok := s.reportCache.Get(key); ok {
		return totals, nil
	}

	totals, err := s.storage.SumExpensesByCategory(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.reportCache.Set(key, totals)
	return totals, nil
}

// Delete removes a transaction by id. Absent ids are a silent success.
func (s *TransactionService) Delete(ctx context.Context, transactionID int64) error {
	// Look up the owner before the row disappears so the event can carry it.
	// A missing row still publishes nothing and still succeeds.
	var userID int64
	if t, err := s.storage.GetTransaction(ctx, transactionID); err == nil {
		userID = t.UserID
	}

	if err := s.storage.DeleteTransaction(ctx, transactionID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if userID != 0 {
		s.reportCache.Invalidate(reportCacheKey(userID))
		s.publishEvent(ctx, transactionID, userID, amqp.ActionDeleted)
	}

	return nil
}

// publishEvent emits a transaction event when a client is configured.
// Publish failures are logged and never fail the request.
func (s *TransactionService) publishEvent(ctx context.Context, transactionID, userID int64, action string) {
	if s.amqpClient == nil {
		return
	}

	ev := amqp.NewTransactionEvent(transactionID, userID, action)
	if err := s.amqpClient.PublishTransactionEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", transactionID,
			"user_id", userID,
			"action", action,
			"error", err)
	}
}
