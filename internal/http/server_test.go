package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/services"
	"bilancio/internal/storage/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	reports := services.NewReportService(store, "EUR", core.Monthly)
	exports := services.NewExportService(nil)
	srv := NewServer(":0", store, reports, exports)
	t.Cleanup(func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, store
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(w, r)
	return w
}

func createAccount(t *testing.T, srv *Server, name, currency string) int64 {
	t.Helper()
	w := doJSON(t, srv, "POST", "/api/accounts", map[string]any{
		"name": name, "currency": currency,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create account: status %d, body %s", w.Code, w.Body.String())
	}
	var resp map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create account response: %v", err)
	}
	return resp["id"]
}

func createCategory(t *testing.T, srv *Server, name string) int64 {
	t.Helper()
	w := doJSON(t, srv, "POST", "/api/categories", map[string]any{"name": name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category: status %d, body %s", w.Code, w.Body.String())
	}
	var resp map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create category response: %v", err)
	}
	return resp["id"]
}

func createTransaction(t *testing.T, srv *Server, accountID, categoryID int64, typ, date, amount string) {
	t.Helper()
	w := doJSON(t, srv, "POST", "/api/transactions", map[string]any{
		"account_id":  accountID,
		"category_id": categoryID,
		"type":        typ,
		"date":        date,
		"amount":      amount,
		"description": "test entry",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create transaction: status %d, body %s", w.Code, w.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		w := doJSON(t, srv, "GET", path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, w.Code)
		}
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	accountID := createAccount(t, srv, "Checking", "EUR")
	categoryID := createCategory(t, srv, "Groceries")
	createTransaction(t, srv, accountID, categoryID, "expense", "2025-03-05", "-45.00")

	w := doJSON(t, srv, "GET", "/api/transactions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list transactions: status %d", w.Code)
	}
	var txns []transactionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &txns); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0].Amount != -4500 {
		t.Errorf("Amount = %d, want -4500", txns[0].Amount)
	}
	if txns[0].Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR (denormalized from account)", txns[0].Currency)
	}

	// Account balance reflects the transaction.
	w = doJSON(t, srv, "GET", "/api/accounts", nil)
	var accounts []accountResponse
	if err := json.Unmarshal(w.Body.Bytes(), &accounts); err != nil {
		t.Fatalf("decode accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Balance != -4500 {
		t.Errorf("accounts = %+v, want single account with balance -4500", accounts)
	}

	// Soft-delete removes it from the listing.
	w = doJSON(t, srv, "DELETE", fmt.Sprintf("/api/transactions/%d", txns[0].ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete transaction: status %d", w.Code)
	}
	w = doJSON(t, srv, "GET", "/api/transactions", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &txns); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("expected 0 transactions after delete, got %d", len(txns))
	}
}

func TestCreateTransaction_Validation(t *testing.T) {
	srv, _ := newTestServer(t)
	accountID := createAccount(t, srv, "Checking", "EUR")

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "zero amount",
			body: map[string]any{"account_id": accountID, "type": "expense", "date": "2025-01-01", "amount": "0"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad date",
			body: map[string]any{"account_id": accountID, "type": "expense", "date": "January 1", "amount": "-5.00"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown type",
			body: map[string]any{"account_id": accountID, "type": "refund", "date": "2025-01-01", "amount": "-5.00"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "missing account",
			body: map[string]any{"account_id": 999, "type": "expense", "date": "2025-01-01", "amount": "-5.00"},
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, srv, "POST", "/api/transactions", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestIncomeExpensesReportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	accountID := createAccount(t, srv, "Checking", "EUR")
	salary := createCategory(t, srv, "Salary")
	groceries := createCategory(t, srv, "Groceries")
	createTransaction(t, srv, accountID, salary, "income", "2025-04-01", "1000.00")
	createTransaction(t, srv, accountID, groceries, "expense", "2025-04-10", "-400.00")

	w := doJSON(t, srv, "GET", "/api/reports/income-expenses?granularity=monthly", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report status = %d, body %s", w.Code, w.Body.String())
	}

	var buckets []struct {
		Bucket     string `json:"bucket"`
		Income     int64  `json:"income"`
		Expenses   int64  `json:"expenses"`
		Difference int64  `json:"difference"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &buckets); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if buckets[0].Bucket != "2025-04" || buckets[0].Income != 100000 || buckets[0].Expenses != 40000 || buckets[0].Difference != 60000 {
		t.Errorf("bucket = %+v", buckets[0])
	}
}

func TestReportEndpoint_BadQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, "GET", "/api/reports/income-expenses?granularity=weekly", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestReportCacheInvalidation(t *testing.T) {
	srv, _ := newTestServer(t)

	accountID := createAccount(t, srv, "Checking", "EUR")
	salary := createCategory(t, srv, "Salary")
	createTransaction(t, srv, accountID, salary, "income", "2025-04-01", "1000.00")

	path := "/api/reports/income-expenses?granularity=monthly"
	first := doJSON(t, srv, "GET", path, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first report status = %d", first.Code)
	}

	second := doJSON(t, srv, "GET", path, nil)
	if second.Header().Get("X-Cache") != "hit" {
		t.Error("second identical request should be served from cache")
	}

	// A write flushes the cache and the next read sees new data.
	createTransaction(t, srv, accountID, salary, "income", "2025-04-15", "500.00")
	third := doJSON(t, srv, "GET", path, nil)
	if third.Header().Get("X-Cache") == "hit" {
		t.Error("report cache should be invalidated by a ledger write")
	}
	var buckets []struct {
		Income int64 `json:"income"`
	}
	if err := json.Unmarshal(third.Body.Bytes(), &buckets); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(buckets) != 1 || buckets[0].Income != 150000 {
		t.Errorf("buckets = %+v, want income 150000", buckets)
	}
}

func TestSnapshotExportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	// Without AMQP configured the request is accepted and dropped.
	w := doJSON(t, srv, "POST", "/api/exports/snapshots?granularity=monthly", nil)
	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202 (body %s)", w.Code, w.Body.String())
	}
}

func TestBudgetEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	accountID := createAccount(t, srv, "Checking", "EUR")
	groceries := createCategory(t, srv, "Groceries")
	createTransaction(t, srv, accountID, groceries, "expense", "2025-07-03", "-150.00")

	w := doJSON(t, srv, "PUT", "/api/budgets", map[string]any{
		"category_id": groceries,
		"type":        "expense",
		"target":      "300.00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("upsert budget: status %d, body %s", w.Code, w.Body.String())
	}

	report := doJSON(t, srv, "GET", "/api/budgets/comparison?granularity=monthly", nil)
	if report.Code != http.StatusOK {
		t.Fatalf("comparison status = %d", report.Code)
	}
	var lines []struct {
		Name   string  `json:"name"`
		Target int64   `json:"target"`
		Actual int64   `json:"actual"`
		Ratio  float64 `json:"ratio"`
	}
	if err := json.Unmarshal(report.Body.Bytes(), &lines); err != nil {
		t.Fatalf("decode comparison: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Target != 30000 || lines[0].Actual != 15000 || lines[0].Ratio != 0.5 {
		t.Errorf("line = %+v, want target 30000, actual 15000, ratio 0.5", lines[0])
	}
}
