package report

import (
	"testing"

	"bilancio/internal/core"
)

func tx(accountID, categoryID int64, typ core.TransactionType, y, m, d int, cents int64, currency string) core.Transaction {
	return core.Transaction{
		AccountID:  accountID,
		CategoryID: categoryID,
		Type:       typ,
		Date:       core.NewDate(y, m, d),
		Amount:     core.Money{Cents: cents},
		Currency:   currency,
	}
}

var testCategories = []core.Category{
	{ID: 1, Name: "Groceries", Color: "#4caf50"},
	{ID: 2, Name: "Rent", Color: "#f44336"},
	{ID: 3, Name: "Salary", Color: "#2196f3"},
}

func TestSumByCategory(t *testing.T) {
	rates := NewRates("EUR", map[string]float64{"USD": 2.0})
	txns := []core.Transaction{
		tx(1, 1, core.Expense, 2025, 1, 5, -2500, "EUR"),
		tx(1, 1, core.Expense, 2025, 1, 12, -1500, "EUR"),
		tx(1, 2, core.Expense, 2025, 1, 1, -80000, "EUR"),
		tx(2, 1, core.Expense, 2025, 1, 20, -2000, "USD"), // = -1000 EUR
		tx(1, 0, core.Expense, 2025, 1, 25, -300, "EUR"),  // uncategorized
	}

	got := SumByCategory(txns, testCategories, "EUR", rates)

	want := []CategoryTotal{
		{CategoryID: 2, Name: "Rent", Color: "#f44336", Value: 80000},
		{CategoryID: 1, Name: "Groceries", Color: "#4caf50", Value: 5000},
		{CategoryID: 0, Name: UncategorizedName, Value: 300},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d totals, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("total %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSumByCategoryMagnitudeInvariant(t *testing.T) {
	// Reported values are non-negative regardless of the signs of the
	// underlying amounts.
	rates := NewRates("EUR", nil)
	txns := []core.Transaction{
		tx(1, 1, core.Expense, 2025, 1, 1, -500, "EUR"),
		tx(1, 1, core.Expense, 2025, 1, 2, 200, "EUR"), // refund
		tx(1, 2, core.Expense, 2025, 1, 3, -100, "EUR"),
	}
	for _, total := range SumByCategory(txns, testCategories, "EUR", rates) {
		if total.Value < 0 {
			t.Fatalf("category %d has negative value %d", total.CategoryID, total.Value)
		}
	}
}

func TestSumByCategoryEmpty(t *testing.T) {
	got := SumByCategory(nil, testCategories, "EUR", NewRates("EUR", nil))
	if len(got) != 0 {
		t.Fatalf("expected empty series, got %+v", got)
	}
}

func TestSumByBucket(t *testing.T) {
	rates := NewRates("EUR", nil)
	txns := []core.Transaction{
		tx(1, 1, core.Expense, 2025, 3, 5, -2000, "EUR"),
		tx(1, 1, core.Expense, 2025, 1, 12, -1000, "EUR"),
		tx(1, 2, core.Expense, 2025, 3, 20, -500, "EUR"),
	}

	got := SumByBucket(txns, core.Monthly, "EUR", rates)

	want := []BucketTotal{
		{Bucket: "2025-01", Label: "Jan 2025", Value: 1000},
		{Bucket: "2025-03", Label: "Mar 2025", Value: 2500},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d buckets, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bucket %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestIncomeVsExpenses(t *testing.T) {
	rates := NewRates("EUR", map[string]float64{"USD": 2.0})
	txns := []core.Transaction{
		tx(1, 3, core.Income, 2025, 1, 1, 300000, "EUR"),
		tx(1, 1, core.Expense, 2025, 1, 10, -50000, "EUR"),
		tx(2, 1, core.Expense, 2025, 1, 15, -20000, "USD"), // = -10000 EUR
		tx(1, 0, core.Transfer, 2025, 1, 20, -99999, "EUR"), // ignored
		tx(1, 3, core.Income, 2025, 2, 1, 300000, "EUR"),
	}

	got := IncomeVsExpenses(txns, core.Monthly, "EUR", rates)

	want := []IncomeExpenseBucket{
		{Bucket: "2025-01", Label: "Jan 2025", Income: 300000, Expenses: 60000, Difference: 240000},
		{Bucket: "2025-02", Label: "Feb 2025", Income: 300000, Expenses: 0, Difference: 300000},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d buckets, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bucket %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestIncomeVsExpensesEmpty(t *testing.T) {
	got := IncomeVsExpenses(nil, core.Monthly, "EUR", NewRates("EUR", nil))
	if len(got) != 0 {
		t.Fatalf("expected empty series, got %+v", got)
	}
}
