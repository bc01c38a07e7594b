package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

type accountResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	InitialBalance int64  `json:"initial_balance"`
	Balance        int64  `json:"balance"`
}

type createAccountRequest struct {
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	InitialBalance int64  `json:"initial_balance"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List accounts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{
			ID:             a.ID,
			Name:           a.Name,
			Currency:       a.Currency,
			InitialBalance: a.InitialBalance.Cents,
			Balance:        a.Balance.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	account := core.Account{
		Name:           sanitizeInput(req.Name),
		Currency:       strings.ToUpper(strings.TrimSpace(req.Currency)),
		InitialBalance: core.Money{Cents: req.InitialBalance},
	}
	id, err := s.store.CreateAccount(r.Context(), account)
	if err != nil {
		if errors.Is(err, core.ErrEmptyName) || errors.Is(err, core.ErrInvalidCurrency) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create account failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	if err := s.store.DeleteAccount(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete account failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}
	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}

type categoryResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type createCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name, Color: c.Color})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.store.CreateCategory(r.Context(), core.Category{
		Name:  sanitizeInput(req.Name),
		Color: strings.TrimSpace(req.Color),
	})
	if err != nil {
		if errors.Is(err, core.ErrEmptyName) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create category failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete category failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}

type transactionResponse struct {
	ID          int64  `json:"id"`
	AccountID   int64  `json:"account_id"`
	CategoryID  int64  `json:"category_id"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

type createTransactionRequest struct {
	AccountID   int64  `json:"account_id"`
	CategoryID  int64  `json:"category_id"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseReportQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := s.store.ListTransactions(r.Context(), storage.TransactionFilter{
		From:        q.From,
		To:          q.To,
		AccountIDs:  q.AccountIDs,
		CategoryIDs: q.CategoryIDs,
		Type:        q.Type,
		Search:      q.Search,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, transactionResponse{
			ID:          t.ID,
			AccountID:   t.AccountID,
			CategoryID:  t.CategoryID,
			Type:        string(t.Type),
			Date:        t.Date.Format("2006-01-02"),
			Amount:      t.Amount.Cents,
			Description: t.Description,
			Currency:    t.Currency,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := parseDate(strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "date: expected YYYY-MM-DD")
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "amount: "+err.Error())
		return
	}

	txn := core.Transaction{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        core.TransactionType(req.Type),
		Date:        date,
		Amount:      core.Money{Cents: cents},
		Description: sanitizeInput(req.Description),
	}
	id, err := s.store.CreateTransaction(r.Context(), txn)
	if err != nil {
		if errors.Is(err, core.ErrInvalidType) || errors.Is(err, core.ErrInvalidAmount) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if err := s.store.SoftDeleteTransaction(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}

type budgetResponse struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Type       string `json:"type"`
	Target     int64  `json:"target"`
}

type upsertBudgetRequest struct {
	CategoryID int64  `json:"category_id"`
	Type       string `json:"type"`
	Target     string `json:"target"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListBudgets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list budgets")
		return
	}

	out := make([]budgetResponse, 0, len(entries))
	for _, b := range entries {
		out = append(out, budgetResponse{
			ID:         b.ID,
			CategoryID: b.CategoryID,
			Type:       string(b.Type),
			Target:     b.Target.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req upsertBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Target)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "target: "+err.Error())
		return
	}

	id, err := s.store.UpsertBudget(r.Context(), core.BudgetEntry{
		CategoryID: req.CategoryID,
		Type:       core.TransactionType(req.Type),
		Target:     core.Money{Cents: cents},
	})
	if err != nil {
		if errors.Is(err, core.ErrInvalidType) || errors.Is(err, core.ErrInvalidAmount) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Upsert budget failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save budget")
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid budget id")
		return
	}
	if err := s.store.DeleteBudget(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete budget failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete budget")
		return
	}
	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}
