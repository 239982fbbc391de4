package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// userService is the slice of the user service the handlers need.
type userService interface {
	Register(ctx context.Context, email, name, password string) (*core.User, error)
	FindByEmail(ctx context.Context, email string) (*core.User, error)
	CheckPassword(rawPassword, storedHash string) bool
}

// transactionService is the slice of the transaction service the handlers need.
type transactionService interface {
	Create(ctx context.Context, userID int64, description string, amount decimal.Decimal, txType core.TransactionType, category string) (*core.Transaction, error)
	ListForUser(ctx context.Context, userID int64) ([]core.Transaction, error)
	ListForUserBetween(ctx context.Context, userID int64, start, end time.Time) ([]core.Transaction, error)
	ExpensesByCategory(ctx context.Context, userID int64) (map[string]decimal.Decimal, error)
	Delete(ctx context.Context, transactionID int64) error
}

// budgetService is the slice of the budget service the handlers need.
type budgetService interface {
	CreateOrUpdate(ctx context.Context, userID int64, category string, amount decimal.Decimal, month, year int) (*core.Budget, error)
	ListForUser(ctx context.Context, userID int64, month, year int) ([]core.Budget, error)
	Delete(ctx context.Context, budgetID int64) error
}

// pinger reports persistence reachability for the readiness endpoint.
type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	users        userService
	transactions transactionService
	budgets      budgetService
	db           pinger
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, users userService, transactions transactionService, budgets budgetService, db pinger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		users:        users,
		transactions: transactions,
		budgets:      budgets,
		db:           db,
	}

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/user/{userId}", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/user/{userId}/expenses-by-category", s.handleExpensesByCategory)
	mux.HandleFunc("DELETE /api/transactions/{transactionId}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/budgets", s.handleCreateOrUpdateBudget)
	mux.HandleFunc("GET /api/budgets/user/{userId}", s.handleListBudgets)
	mux.HandleFunc("DELETE /api/budgets/{budgetId}", s.handleDeleteBudget)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	s.Handler = applog.Middleware(withCORS(mux))

	return s
}

// withCORS permits cross-origin requests from any origin and answers
// preflights. No credentials or tokens are ever issued, so the wildcard
// carries no cookie exposure.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
