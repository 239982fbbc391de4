package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// BudgetService manages per-user, per-category monthly spending caps.
type BudgetService struct {
	storage *storage.Repository
}

func NewBudgetService(storage *storage.Repository) *BudgetService {
	return &BudgetService{storage: storage}
}

// CreateOrUpdate upserts a budget by its (user, category, month, year)
// natural key. An existing row keeps its id and gets the new amount.
func (s *BudgetService) CreateOrUpdate(ctx context.Context, userID int64, category string, amount decimal.Decimal, month, year int) (*core.Budget, error) {
	if _, err := s.storage.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	b := core.Budget{
		UserID:   userID,
		Category: category,
		Amount:   amount,
		Month:    month,
		Year:     year,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.storage.UpsertBudget(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("save budget: %w", err)
	}

	return saved, nil
}

// ListForUser returns the user's budgets for a given month and year.
func (s *BudgetService) ListForUser(ctx context.Context, userID int64, month, year int) ([]core.Budget, error) {
	return s.storage.ListBudgetsByUser(ctx, userID, month, year)
}

// Delete removes a budget by id. Absent ids are a silent success.
func (s *BudgetService) Delete(ctx context.Context, budgetID int64) error {
	if err := s.storage.DeleteBudget(ctx, budgetID); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}
