package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

func errInvalidRangeBound(name, raw string) error {
	return fmt.Errorf("invalid value for %s: %q (want RFC3339 timestamp)", name, raw)
}

type createTransactionRequest struct {
	UserID      jsonValue `json:"userId"`
	Description string    `json:"description"`
	Amount      jsonValue `json:"amount"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err.Error())
		return
	}

	userID, err := req.UserID.Int64("userId")
	if err != nil {
		writeError(w, err.Error())
		return
	}
	amount, err := req.Amount.Decimal("amount")
	if err != nil {
		writeError(w, err.Error())
		return
	}
	txType, err := core.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, err.Error())
		return
	}

	tx, err := s.transactions.Create(r.Context(), userID, req.Description, amount, txType, req.Category)
	if err != nil {
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt64(r, "userId")
	if err != nil {
		writeError(w, err.Error())
		return
	}

	list, err := s.listTransactions(r, userID)
	if err != nil {
		writeError(w, err.Error())
		return
	}

	if list == nil {
		list = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, list)
}

// listTransactions picks between the full listing and the date-range
// listing: `start` and `end` query params (RFC3339, inclusive bounds)
// engage the latter and must be supplied together.
func (s *Server) listTransactions(r *http.Request, userID int64) ([]core.Transaction, error) {
	startRaw := strings.TrimSpace(r.URL.Query().Get("start"))
	endRaw := strings.TrimSpace(r.URL.Query().Get("end"))

	if startRaw == "" && endRaw == "" {
		return s.transactions.ListForUser(r.Context(), userID)
	}

	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return nil, errInvalidRangeBound("start", startRaw)
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return nil, errInvalidRangeBound("end", endRaw)
	}

	return s.transactions.ListForUserBetween(r.Context(), userID, start, end)
}

func (s *Server) handleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt64(r, "userId")
	if err != nil {
		writeError(w, err.Error())
		return
	}

	totals, err := s.transactions.ExpensesByCategory(r.Context(), userID)
	if err != nil {
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, err := pathInt64(r, "transactionId")
	if err != nil {
		writeError(w, err.Error())
		return
	}

	if err := s.transactions.Delete(r.Context(), transactionID); err != nil {
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}
