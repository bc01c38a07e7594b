package report

import (
	"testing"

	"bilancio/internal/core"
)

func TestCompareBudgets(t *testing.T) {
	rates := NewRates("EUR", map[string]float64{"USD": 2.0})
	entries := []core.BudgetEntry{
		{CategoryID: 1, Type: core.Expense, Target: core.Money{Cents: 40000}},
		{CategoryID: 2, Type: core.Expense, Target: core.Money{Cents: 80000}},
	}
	actuals := []CategoryTotal{
		{CategoryID: 1, Name: "Groceries", Color: "#4caf50", Value: 35000},
		{CategoryID: 2, Name: "Rent", Color: "#f44336", Value: 80000},
	}

	got := CompareBudgets(entries, actuals, testCategories, core.Monthly, core.Monthly, "USD", rates)

	// Sorted by name: Groceries, Rent. Targets converted EUR -> USD at 2.0
	// and actuals left as given (they are already in the target currency).
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(got), got)
	}
	if got[0].Name != "Groceries" || got[0].Target != 80000 || got[0].Actual != 35000 {
		t.Fatalf("groceries line wrong: %+v", got[0])
	}
	if got[1].Name != "Rent" || got[1].Target != 160000 || got[1].Actual != 80000 {
		t.Fatalf("rent line wrong: %+v", got[1])
	}
	if got[1].Ratio != 0.5 {
		t.Fatalf("rent ratio: expected 0.5, got %v", got[1].Ratio)
	}
}

func TestCompareBudgetsGranularityRescale(t *testing.T) {
	rates := NewRates("EUR", nil)
	entries := []core.BudgetEntry{
		{CategoryID: 1, Type: core.Expense, Target: core.Money{Cents: 30000}},
	}
	actuals := []CategoryTotal{{CategoryID: 1, Name: "Groceries", Value: 85000}}

	got := CompareBudgets(entries, actuals, testCategories, core.Monthly, core.Quarterly, "EUR", rates)

	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	if got[0].Target != 90000 {
		t.Fatalf("monthly 30000 as quarterly target: expected 90000, got %d", got[0].Target)
	}
}

func TestCompareBudgetsMissingEntry(t *testing.T) {
	// A category with spend but no budget entry appears with target 0,
	// Expense type, and a zero ratio.
	rates := NewRates("EUR", nil)
	actuals := []CategoryTotal{
		{CategoryID: 7, Name: "Impulse", Color: "#999999", Value: 12345},
	}

	got := CompareBudgets(nil, actuals, testCategories, core.Monthly, core.Monthly, "EUR", rates)

	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	line := got[0]
	if line.Target != 0 || line.Actual != 12345 || line.Type != core.Expense {
		t.Fatalf("unexpected line: %+v", line)
	}
	if line.Ratio != 0 {
		t.Fatalf("target 0 must give ratio 0, got %v", line.Ratio)
	}
}

func TestCompareBudgetsEntryWithoutActuals(t *testing.T) {
	rates := NewRates("EUR", nil)
	entries := []core.BudgetEntry{
		{CategoryID: 3, Type: core.Income, Target: core.Money{Cents: 250000}},
	}

	got := CompareBudgets(entries, nil, testCategories, core.Monthly, core.Monthly, "EUR", rates)

	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	// The category label must survive a period with no transactions: the
	// name and color come from the category list, not from the actuals.
	if got[0].Name != "Salary" || got[0].Color != "#2196f3" {
		t.Fatalf("expected Salary label, got %+v", got[0])
	}
	if got[0].Target != 250000 || got[0].Actual != 0 || got[0].Ratio != 0 {
		t.Fatalf("unexpected line: %+v", got[0])
	}
}

func TestBudgetOverTime(t *testing.T) {
	rates := NewRates("EUR", nil)
	entries := []core.BudgetEntry{
		{CategoryID: 1, Type: core.Expense, Target: core.Money{Cents: 40000}},
	}
	txns := []core.Transaction{
		tx(1, 1, core.Expense, 2025, 1, 5, -30000, "EUR"),
		tx(1, 1, core.Expense, 2025, 2, 5, -50000, "EUR"),
	}

	got := BudgetOverTime(entries, txns, testCategories, core.Monthly, core.Monthly, "EUR", rates)

	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(got))
	}
	// The target is bucket-invariant: the same full-period value repeats.
	for _, point := range got {
		if len(point.Categories) != 1 {
			t.Fatalf("bucket %s: expected 1 line, got %d", point.Bucket, len(point.Categories))
		}
		if point.Categories[0].Target != 40000 {
			t.Fatalf("bucket %s: target should stay 40000, got %d", point.Bucket, point.Categories[0].Target)
		}
	}
	if got[0].Categories[0].Actual != 30000 || got[1].Categories[0].Actual != 50000 {
		t.Fatalf("actuals wrong: %+v", got)
	}
}
