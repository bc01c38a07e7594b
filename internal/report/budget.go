package report

import (
	"sort"

	"bilancio/internal/core"
)

// BudgetComparison lines up a category's scaled budget target against its
// actual aggregated amount for the period. Target and Actual are in the
// requested currency at the requested granularity. Ratio is
// actual/target, or 0 when there is no target (never NaN or Inf).
type BudgetComparison struct {
	CategoryID int64                `json:"category_id"`
	Name       string               `json:"name"`
	Color      string               `json:"color"`
	Type       core.TransactionType `json:"type"`
	Target     int64                `json:"target"`
	Actual     int64                `json:"actual"`
	Ratio      float64              `json:"ratio"`
}

// BudgetOverTimePoint layers the comparison per time bucket. The target
// repeats unchanged in every bucket: it is the full-period target, kept
// bucket-invariant so actual bars can be read against a constant line.
type BudgetOverTimePoint struct {
	Bucket     string             `json:"bucket"`
	Label      string             `json:"label"`
	Categories []BudgetComparison `json:"categories"`
}

// scaleTarget converts a stored reference-currency target to the
// requested currency and granularity. Currency conversion happens on the
// unscaled stored value and the granularity multiplier is applied once
// after, so rounding error is taken exactly once per step instead of
// compounding.
func scaleTarget(target int64, stored, requested core.Granularity, currency string, rates Rates) int64 {
	converted := Convert(target, rates.Reference(), currency, rates)
	return core.RescaleBudget(converted, stored, requested)
}

// CompareBudgets merges budget entries with actual per-category
// aggregates. Entries are scaled to the requested currency and
// granularity; categories that have actuals but no budget entry still
// appear, with a zero target and Expense type, so unplanned spend stays
// visible. Names and colors come from the category list, so a budgeted
// category keeps its label even when nothing was spent in the period.
func CompareBudgets(
	entries []core.BudgetEntry,
	actuals []CategoryTotal,
	categories []core.Category,
	stored, requested core.Granularity,
	currency string,
	rates Rates,
) []BudgetComparison {
	byID := make(map[int64]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	actualByCategory := make(map[int64]CategoryTotal, len(actuals))
	for _, a := range actuals {
		actualByCategory[a.CategoryID] = a
	}

	out := make([]BudgetComparison, 0, len(entries))
	covered := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		covered[entry.CategoryID] = struct{}{}
		line := BudgetComparison{
			CategoryID: entry.CategoryID,
			Name:       UncategorizedName,
			Type:       entry.Type,
			Target:     scaleTarget(entry.Target.Cents, stored, requested, currency, rates),
		}
		if c, ok := byID[entry.CategoryID]; ok {
			line.Name = c.Name
			line.Color = c.Color
		}
		if actual, ok := actualByCategory[entry.CategoryID]; ok {
			line.Actual = actual.Value
		}
		line.Ratio = safeRatio(line.Actual, line.Target)
		out = append(out, line)
	}

	for _, actual := range actuals {
		if _, ok := covered[actual.CategoryID]; ok {
			continue
		}
		out = append(out, BudgetComparison{
			CategoryID: actual.CategoryID,
			Name:       actual.Name,
			Color:      actual.Color,
			Type:       core.Expense,
			Target:     0,
			Actual:     actual.Value,
			Ratio:      0,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// BudgetOverTime computes the comparison per time bucket: each bucket's
// actuals against the same full-period target. Buckets come from the
// transactions themselves and are sorted by key.
func BudgetOverTime(
	entries []core.BudgetEntry,
	txns []core.Transaction,
	categories []core.Category,
	stored, requested core.Granularity,
	currency string,
	rates Rates,
) []BudgetOverTimePoint {
	byBucket := make(map[string][]core.Transaction)
	for _, tx := range txns {
		key := requested.BucketKey(tx.Date.Time)
		byBucket[key] = append(byBucket[key], tx)
	}

	keys := make([]string, 0, len(byBucket))
	for key := range byBucket {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]BudgetOverTimePoint, 0, len(keys))
	for _, key := range keys {
		actuals := SumByCategory(byBucket[key], categories, currency, rates)
		out = append(out, BudgetOverTimePoint{
			Bucket:     key,
			Label:      requested.Label(key),
			Categories: CompareBudgets(entries, actuals, categories, stored, requested, currency, rates),
		})
	}
	return out
}

// safeRatio guards the target==0 case explicitly instead of letting a
// division produce NaN or Inf.
func safeRatio(actual, target int64) float64 {
	if target == 0 {
		return 0
	}
	return float64(actual) / float64(target)
}
