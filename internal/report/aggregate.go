package report

import (
	"sort"

	"bilancio/internal/core"
)

// UncategorizedID is the sentinel category for transactions without a
// category. It never exists in storage.
const (
	UncategorizedID   int64 = 0
	UncategorizedName       = "Uncategorized"
)

// CategoryTotal is one slice of a category breakdown. Value is a
// magnitude: the report communicates size per category, with the
// income/expense context implied by the type filter the caller applied
// before aggregating.
type CategoryTotal struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Value      int64  `json:"value"`
}

// BucketTotal is one point of a bucketed time series.
type BucketTotal struct {
	Bucket string `json:"bucket"`
	Label  string `json:"label"`
	Value  int64  `json:"value"`
}

// IncomeExpenseBucket holds income and expense totals for one bucket.
// Expenses are reported as a positive magnitude; Difference is
// income - expenses.
type IncomeExpenseBucket struct {
	Bucket     string `json:"bucket"`
	Label      string `json:"label"`
	Income     int64  `json:"income"`
	Expenses   int64  `json:"expenses"`
	Difference int64  `json:"difference"`
}

// SumByCategory groups transactions by category and sums their amounts in
// the target currency. Each transaction is converted before summing;
// amounts in different currencies are never added directly. The absolute
// value of each signed sum is reported, and the slices are ordered
// largest first for chart rendering.
func SumByCategory(txns []core.Transaction, categories []core.Category, currency string, rates Rates) []CategoryTotal {
	byID := make(map[int64]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	sums := make(map[int64]int64)
	for _, tx := range txns {
		sums[tx.CategoryID] += Convert(tx.Amount.Cents, tx.Currency, currency, rates)
	}

	out := make([]CategoryTotal, 0, len(sums))
	for id, sum := range sums {
		if sum < 0 {
			sum = -sum
		}
		total := CategoryTotal{CategoryID: id, Name: UncategorizedName, Value: sum}
		if c, ok := byID[id]; ok {
			total.Name = c.Name
			total.Color = c.Color
		}
		out = append(out, total)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SumByBucket groups transactions into time buckets and sums their
// amounts in the target currency. Buckets are sorted ascending by key;
// display labels are attached only after sorting. As with SumByCategory,
// each bucket reports the magnitude of its signed sum.
func SumByBucket(txns []core.Transaction, g core.Granularity, currency string, rates Rates) []BucketTotal {
	sums := make(map[string]int64)
	for _, tx := range txns {
		key := g.BucketKey(tx.Date.Time)
		sums[key] += Convert(tx.Amount.Cents, tx.Currency, currency, rates)
	}

	keys := sortedKeys(sums)
	out := make([]BucketTotal, 0, len(keys))
	for _, key := range keys {
		sum := sums[key]
		if sum < 0 {
			sum = -sum
		}
		out = append(out, BucketTotal{Bucket: key, Label: g.Label(key), Value: sum})
	}
	return out
}

// IncomeVsExpenses buckets transactions by time and, within each bucket,
// sums income and expense transactions separately in the target currency.
// Transfers are skipped: moving money between own accounts is neither
// income nor spending.
func IncomeVsExpenses(txns []core.Transaction, g core.Granularity, currency string, rates Rates) []IncomeExpenseBucket {
	type bucketSums struct {
		income   int64
		expenses int64
	}
	sums := make(map[string]*bucketSums)

	for _, tx := range txns {
		if tx.Type == core.Transfer {
			continue
		}
		key := g.BucketKey(tx.Date.Time)
		b := sums[key]
		if b == nil {
			b = &bucketSums{}
			sums[key] = b
		}
		converted := Convert(tx.Amount.Cents, tx.Currency, currency, rates)
		switch tx.Type {
		case core.Income:
			b.income += converted
		case core.Expense:
			// expenses carry negative amounts; negate to report magnitude
			b.expenses += -converted
		}
	}

	keys := make([]string, 0, len(sums))
	for key := range sums {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]IncomeExpenseBucket, 0, len(keys))
	for _, key := range keys {
		b := sums[key]
		out = append(out, IncomeExpenseBucket{
			Bucket:     key,
			Label:      g.Label(key),
			Income:     b.income,
			Expenses:   b.expenses,
			Difference: b.income - b.expenses,
		})
	}
	return out
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
