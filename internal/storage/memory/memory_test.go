package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/report"
	"bilancio/internal/storage"
)

func newAccount(t *testing.T, s *Store, name, currency string, initialCents int64) int64 {
	t.Helper()
	id, err := s.CreateAccount(context.Background(), core.Account{
		Name:           name,
		Currency:       currency,
		InitialBalance: core.Money{Cents: initialCents},
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return id
}

func newTransaction(t *testing.T, s *Store, accountID, categoryID int64, typ core.TransactionType, cents int64, date core.Date, desc string) int64 {
	t.Helper()
	id, err := s.CreateTransaction(context.Background(), core.Transaction{
		AccountID:   accountID,
		CategoryID:  categoryID,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: desc,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return id
}

func TestStore_BalanceIncludesInitialAndTransactions(t *testing.T) {
	s := New()
	ctx := context.Background()

	accountID := newAccount(t, s, "Checking", "EUR", 10000)
	newTransaction(t, s, accountID, 0, core.Income, 50000, core.NewDate(2025, 3, 1), "salary")
	txnID := newTransaction(t, s, accountID, 0, core.Expense, -7500, core.NewDate(2025, 3, 5), "groceries")

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if got := accounts[0].Balance.Cents; got != 52500 {
		t.Errorf("balance = %d, want 52500", got)
	}

	// Soft-deleted transactions no longer count toward the balance.
	if err := s.SoftDeleteTransaction(ctx, txnID); err != nil {
		t.Fatalf("SoftDeleteTransaction: %v", err)
	}
	accounts, _ = s.ListAccounts(ctx)
	if got := accounts[0].Balance.Cents; got != 60000 {
		t.Errorf("balance after delete = %d, want 60000", got)
	}
}

func TestStore_TransactionCurrencyFollowsAccount(t *testing.T) {
	s := New()
	ctx := context.Background()

	accountID := newAccount(t, s, "Brokerage", "USD", 0)
	newTransaction(t, s, accountID, 0, core.Income, 12500, core.NewDate(2025, 5, 1), "dividend")

	txns, err := s.ListTransactions(ctx, storage.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0].Currency != "USD" {
		t.Errorf("currency = %q, want USD", txns[0].Currency)
	}
}

func TestStore_CreateTransactionUnknownAccount(t *testing.T) {
	s := New()
	_, err := s.CreateTransaction(context.Background(), core.Transaction{
		AccountID: 42,
		Type:      core.Expense,
		Amount:    core.Money{Cents: -100},
		Date:      core.NewDate(2025, 1, 1),
	})
	if err == nil {
		t.Fatal("expected error for unknown account")
	}
}

func TestStore_SoftDeleteTwiceFails(t *testing.T) {
	s := New()
	ctx := context.Background()

	accountID := newAccount(t, s, "Checking", "EUR", 0)
	txnID := newTransaction(t, s, accountID, 0, core.Expense, -100, core.NewDate(2025, 1, 1), "")

	if err := s.SoftDeleteTransaction(ctx, txnID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := s.SoftDeleteTransaction(ctx, txnID); err == nil {
		t.Error("second delete should fail")
	}
}

func TestStore_ListTransactionsFilters(t *testing.T) {
	s := New()
	ctx := context.Background()

	checking := newAccount(t, s, "Checking", "EUR", 0)
	savings := newAccount(t, s, "Savings", "EUR", 0)
	groceries, err := s.CreateCategory(ctx, core.Category{Name: "Groceries"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	newTransaction(t, s, checking, groceries, core.Expense, -2000, core.NewDate(2025, 2, 10), "weekly shop")
	newTransaction(t, s, checking, 0, core.Income, 300000, core.NewDate(2025, 2, 25), "February salary")
	newTransaction(t, s, savings, 0, core.Transfer, 50000, core.NewDate(2025, 3, 1), "top up")

	cases := []struct {
		name   string
		filter storage.TransactionFilter
		want   int
	}{
		{"all", storage.TransactionFilter{}, 3},
		{"by account", storage.TransactionFilter{AccountIDs: []int64{savings}}, 1},
		{"by category", storage.TransactionFilter{CategoryIDs: []int64{groceries}}, 1},
		{"by type", storage.TransactionFilter{Type: core.Income}, 1},
		{"by window", storage.TransactionFilter{From: core.NewDate(2025, 2, 20), To: core.NewDate(2025, 2, 28)}, 1},
		{"by search", storage.TransactionFilter{Search: "SALARY"}, 1},
		{"no match", storage.TransactionFilter{Search: "rent"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			txns, err := s.ListTransactions(ctx, tc.filter)
			if err != nil {
				t.Fatalf("ListTransactions: %v", err)
			}
			if len(txns) != tc.want {
				t.Errorf("got %d transactions, want %d", len(txns), tc.want)
			}
		})
	}
}

func TestStore_ListTransactionsOrderedByDate(t *testing.T) {
	s := New()
	ctx := context.Background()

	accountID := newAccount(t, s, "Checking", "EUR", 0)
	newTransaction(t, s, accountID, 0, core.Expense, -300, core.NewDate(2025, 3, 15), "later")
	newTransaction(t, s, accountID, 0, core.Expense, -100, core.NewDate(2025, 1, 2), "earlier")

	txns, _ := s.ListTransactions(ctx, storage.TransactionFilter{})
	if len(txns) != 2 || txns[0].Description != "earlier" {
		t.Errorf("expected date order, got %+v", txns)
	}
}

func TestStore_DeleteCategoryUncategorizesTransactions(t *testing.T) {
	s := New()
	ctx := context.Background()

	accountID := newAccount(t, s, "Checking", "EUR", 0)
	categoryID, _ := s.CreateCategory(ctx, core.Category{Name: "Travel"})
	newTransaction(t, s, accountID, categoryID, core.Expense, -4000, core.NewDate(2025, 6, 1), "train")
	if _, err := s.UpsertBudget(ctx, core.BudgetEntry{CategoryID: categoryID, Type: core.Expense, Target: core.Money{Cents: 10000}}); err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}

	if err := s.DeleteCategory(ctx, categoryID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	txns, _ := s.ListTransactions(ctx, storage.TransactionFilter{})
	if len(txns) != 1 || txns[0].CategoryID != 0 {
		t.Errorf("transaction should become uncategorized, got %+v", txns)
	}
	budgets, _ := s.ListBudgets(ctx)
	if len(budgets) != 0 {
		t.Errorf("budgets for deleted category should be gone, got %+v", budgets)
	}
}

func TestStore_UpsertBudgetReplacesExisting(t *testing.T) {
	s := New()
	ctx := context.Background()

	categoryID, _ := s.CreateCategory(ctx, core.Category{Name: "Groceries"})

	first, err := s.UpsertBudget(ctx, core.BudgetEntry{CategoryID: categoryID, Type: core.Expense, Target: core.Money{Cents: 20000}})
	if err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}
	second, err := s.UpsertBudget(ctx, core.BudgetEntry{CategoryID: categoryID, Type: core.Expense, Target: core.Money{Cents: 35000}})
	if err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}
	if first != second {
		t.Errorf("upsert created a new entry: %d != %d", first, second)
	}

	budgets, _ := s.ListBudgets(ctx)
	if len(budgets) != 1 || budgets[0].Target.Cents != 35000 {
		t.Errorf("expected single budget of 35000, got %+v", budgets)
	}
}

func TestStore_LatestClose(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.LatestClose(ctx, "EURUSD")
	if !errors.Is(err, report.ErrNoRate) {
		t.Fatalf("expected ErrNoRate, got %v", err)
	}

	_ = s.UpsertRate(ctx, core.RatePoint{Ticker: "EURUSD", Date: core.NewDate(2025, 8, 1), Close: 1.10})
	_ = s.UpsertRate(ctx, core.RatePoint{Ticker: "EURUSD", Date: core.NewDate(2025, 8, 15), Close: 1.12})
	_ = s.UpsertRate(ctx, core.RatePoint{Ticker: "EURUSD", Date: core.NewDate(2025, 8, 15), Close: 1.13})

	got, err := s.LatestClose(ctx, "EURUSD")
	if err != nil {
		t.Fatalf("LatestClose: %v", err)
	}
	if got != 1.13 {
		t.Errorf("close = %v, want 1.13 (latest date, last upsert wins)", got)
	}
}

func TestStore_LatestCloseIgnoresFutureDates(t *testing.T) {
	s := New()
	ctx := context.Background()
	future := time.Now().AddDate(0, 0, 7)

	_ = s.UpsertRate(ctx, core.RatePoint{
		Ticker: "EURUSD",
		Date:   core.NewDate(future.Year(), int(future.Month()), future.Day()),
		Close:  2.50,
	})

	// A series holding only future points has no usable close yet.
	if _, err := s.LatestClose(ctx, "EURUSD"); !errors.Is(err, report.ErrNoRate) {
		t.Fatalf("expected ErrNoRate for future-only series, got %v", err)
	}

	_ = s.UpsertRate(ctx, core.RatePoint{Ticker: "EURUSD", Date: core.NewDate(2025, 8, 1), Close: 1.10})

	got, err := s.LatestClose(ctx, "EURUSD")
	if err != nil {
		t.Fatalf("LatestClose: %v", err)
	}
	if got != 1.10 {
		t.Errorf("close = %v, want 1.10 (future point must not win)", got)
	}
}
