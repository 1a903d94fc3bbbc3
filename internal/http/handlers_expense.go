package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

type createExpenseRequest struct {
	Prompt string `json:"prompt"`
}

type expenseResponse struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prompt := sanitizeInput(req.Prompt)
	if prompt == "" {
		respondError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	username := usernameFromContext(r.Context())
	expense, err := s.expenses.CreateExpense(r.Context(), username, prompt)
	if err != nil {
		if errors.Is(err, core.ErrNoAmount) {
			respondError(w, http.StatusBadRequest, "could not extract valid amount from prompt")
			return
		}
		s.slogger.LogError(r.Context(), "Failed to create expense", err,
			applog.ComponentHTTP, applog.OpCreate, applog.NewFields().WithUser(username))
		respondError(w, http.StatusInternalServerError, "failed to create expense")
		return
	}

	s.slogger.LogExpenseCreated(r.Context(), username,
		expense.Description, expense.Amount.String(), expense.Category)
	respondJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, errMsg := s.parseExpenseFilter(r)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	username := usernameFromContext(r.Context())
	expenses, err := s.expenses.ListExpenses(r.Context(), username, filter)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list expenses",
			"user_id", username, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}

	items := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		items = append(items, toExpenseResponse(e))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"expenses": items,
		"count":    len(items),
	})
}

// parseExpenseFilter builds an ExpenseFilter from query parameters. The
// second return value is a client error message, empty when valid.
func (s *Server) parseExpenseFilter(r *http.Request) (core.ExpenseFilter, string) {
	var filter core.ExpenseFilter

	filter.Category = sanitizeInput(r.URL.Query().Get("category"))

	year, ok := parseIntParam(r, "year")
	if !ok {
		return filter, "invalid year"
	}
	month, ok := parseIntParam(r, "month")
	if !ok {
		return filter, "invalid month"
	}
	if month != 0 {
		if month < 1 || month > 12 {
			return filter, "invalid month"
		}
		if year == 0 {
			return filter, "year is required when month is provided"
		}
	}
	filter.Year = year
	filter.Month = month

	if raw := r.URL.Query().Get("start_date"); raw != "" {
		t, err := parseDate(raw, s.loc)
		if err != nil {
			return filter, "invalid start_date, expected YYYY-MM-DD"
		}
		filter.StartDate = t
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		t, err := parseDate(raw, s.loc)
		if err != nil {
			return filter, "invalid end_date, expected YYYY-MM-DD"
		}
		filter.EndDate = t
	}

	limit, ok := parseIntParam(r, "limit")
	if !ok || limit < 0 {
		return filter, "invalid limit"
	}
	filter.Limit = limit

	return filter, ""
}

func (s *Server) handleCategorySummaries(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())
	summaries, err := s.expenses.CategorySummaries(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to aggregate categories")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"categories": summaries,
	})
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, ok := parseIntParam(r, "year")
	if !ok || year < 0 {
		respondError(w, http.StatusBadRequest, "invalid year")
		return
	}
	if year == 0 {
		year = s.clock.Now().In(s.loc).Year()
	}

	username := usernameFromContext(r.Context())
	summaries, err := s.expenses.MonthlySummaries(r.Context(), username, year)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to aggregate monthly summary")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"year":      year,
		"summaries": summaries,
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	username := usernameFromContext(r.Context())
	if err := s.expenses.DeleteExpense(r.Context(), id, username); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			respondError(w, http.StatusNotFound, "expense not found")
			return
		}
		s.slogger.LogError(r.Context(), "Failed to delete expense", err,
			applog.ComponentHTTP, applog.OpDelete, applog.NewFields().WithUser(username))
		respondError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
