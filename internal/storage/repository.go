package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// Repository provides explicit SQL query functions for users, transactions
// and budgets against a SQLite database.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, email, name, passwordHash string) (*core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		email, name, passwordHash, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user insert id: %w", err)
	}

	slog.InfoContext(ctx, "User saved", "user_id", id, "email", email)

	return r.GetUserByID(ctx, id)
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// --- transactions ---

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (*core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, description, amount, type, category, transaction_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Description, t.Amount.String(), string(t.Type), t.Category, t.TransactionDate,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", id,
		"user_id", t.UserID,
		"type", string(t.Type),
		"category", t.Category,
		"amount", t.Amount.String())

	return r.GetTransaction(ctx, id)
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, description, amount, type, category, transaction_date
		 FROM transactions WHERE id = ?`, id)

	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, description, amount, type, category, transaction_date
		 FROM transactions WHERE user_id = ? ORDER BY transaction_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListTransactionsByUserBetween returns the user's transactions whose date
// falls in [start, end] inclusive, newest first.
func (r *Repository) ListTransactionsByUserBetween(ctx context.Context, userID int64, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, description, amount, type, category, transaction_date
		 FROM transactions
		 WHERE user_id = ? AND transaction_date >= ? AND transaction_date <= ?
		 ORDER BY transaction_date DESC, id DESC`,
		userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("list transactions by date range: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	// Idempotent: deleting an absent id is a silent success.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// SumExpensesByCategory sums EXPENSE amounts per category for a user.
// Categories with no expenses are absent from the result. Amounts are
// accumulated with decimal arithmetic; SQLite's SUM would coerce the TEXT
// amounts to floats.
func (r *Repository) SumExpensesByCategory(ctx context.Context, userID int64) (map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, amount FROM transactions WHERE user_id = ? AND type = ?`,
		userID, string(core.Expense))
	if err != nil {
		return nil, fmt.Errorf("sum expenses by category: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category, amountStr string
		if err := rows.Scan(&category, &amountStr); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amountStr, err)
		}
		totals[category] = totals[category].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}

	return totals, nil
}

func scanTransaction(scan func(dest ...any) error) (*core.Transaction, error) {
	var (
		t         core.Transaction
		amountStr string
		typeStr   string
	)
	if err := scan(&t.ID, &t.UserID, &t.Description, &amountStr, &typeStr, &t.Category, &t.TransactionDate); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", amountStr, err)
	}
	t.Amount = amount
	t.Type = core.TransactionType(typeStr)
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}

// --- budgets ---

// UpsertBudget inserts a budget or, when a row already exists for the
// (user, category, month, year) tuple, overwrites its amount in place.
// The conflict clause keeps the operation atomic against concurrent writers
// and preserves the original row id.
func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) (*core.Budget, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category, amount, month, year)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, category, month, year) DO UPDATE SET amount = excluded.amount`,
		b.UserID, b.Category, b.Amount.String(), b.Month, b.Year,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}

	saved, err := r.GetBudgetByNaturalKey(ctx, b.UserID, b.Category, b.Month, b.Year)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Budget saved",
		"budget_id", saved.ID,
		"user_id", saved.UserID,
		"category", saved.Category,
		"month", saved.Month,
		"year", saved.Year,
		"amount", saved.Amount.String())

	return saved, nil
}

func (r *Repository) GetBudget(ctx context.Context, id int64) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, amount, month, year FROM budgets WHERE id = ?`, id)
	return scanBudget(row)
}

func (r *Repository) GetBudgetByNaturalKey(ctx context.Context, userID int64, category string, month, year int) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, amount, month, year
		 FROM budgets WHERE user_id = ? AND category = ? AND month = ? AND year = ?`,
		userID, category, month, year)
	return scanBudget(row)
}

func (r *Repository) ListBudgetsByUser(ctx context.Context, userID int64, month, year int) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount, month, year
		 FROM budgets WHERE user_id = ? AND month = ? AND year = ?
		 ORDER BY category ASC`,
		userID, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b         core.Budget
			amountStr string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &amountStr, &b.Month, &b.Year); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amountStr, err)
		}
		b.Amount = amount
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}

	return budgets, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	// Idempotent: deleting an absent id is a silent success.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

func scanBudget(row *sql.Row) (*core.Budget, error) {
	var (
		b         core.Budget
		amountStr string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &amountStr, &b.Month, &b.Year)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan budget: %w", err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", amountStr, err)
	}
	b.Amount = amount
	return &b, nil
}
