package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

type (
	TransactionType string

	User struct {
		ID           int64     `json:"id"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Transaction struct {
		ID              int64           `json:"id"`
		UserID          int64           `json:"userId"`
		Description     string          `json:"description"`
		Amount          decimal.Decimal `json:"amount"`
		Type            TransactionType `json:"type"`
		Category        string          `json:"category"`
		TransactionDate time.Time       `json:"transactionDate"`
	}

	Budget struct {
		ID       int64           `json:"id"`
		UserID   int64           `json:"userId"`
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Month    int             `json:"month"`
		Year     int             `json:"year"`
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmptyEmail       = errors.New("email is required")
	ErrEmptyName        = errors.New("name is required")
	ErrEmptyPassword    = errors.New("password is required")
	ErrEmptyDescription = errors.New("description is required")
	ErrEmptyCategory    = errors.New("category is required")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidMonth     = errors.New("month must be between 1 and 12")
	ErrInvalidYear      = errors.New("invalid year")
)

// ParseTransactionType parses the textual name of a transaction type.
// Matching is case-insensitive so clients can send "expense" or "EXPENSE".
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, string(t.Type))
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1 {
		return ErrInvalidYear
	}
	return nil
}
