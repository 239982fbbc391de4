package http

import (
	"net/http"

	"fintrack/internal/core"
)

type createBudgetRequest struct {
	UserID   jsonValue `json:"userId"`
	Category string    `json:"category"`
	Amount   jsonValue `json:"amount"`
	Month    jsonValue `json:"month"`
	Year     jsonValue `json:"year"`
}

func (s *Server) handleCreateOrUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
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
	month, err := req.Month.Int("month")
	if err != nil {
		writeError(w, err.Error())
		return
	}
	year, err := req.Year.Int("year")
	if err != nil {
		writeError(w, err.Error())
		return
	}

	budget, err := s.budgets.CreateOrUpdate(r.Context(), userID, req.Category, amount, month, year)
	if err != nil {
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt64(r, "userId")
	if err != nil {
		writeError(w, err.Error())
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		writeError(w, err.Error())
		return
	}
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, err.Error())
		return
	}

	budgets, err := s.budgets.ListForUser(r.Context(), userID, month, year)
	if err != nil {
		writeError(w, err.Error())
		return
	}

	if budgets == nil {
		budgets = []core.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	budgetID, err := pathInt64(r, "budgetId")
	if err != nil {
		writeError(w, err.Error())
		return
	}

	if err := s.budgets.Delete(r.Context(), budgetID); err != nil {
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Budget deleted successfully"})
}
