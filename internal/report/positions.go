package report

import (
	"time"

	"bilancio/internal/core"
)

// BalancePoint is one bucket of the account balance time series.
// Accounts maps account ID to that account's balance converted to the
// target currency; Total is their sum.
type BalancePoint struct {
	Bucket   string          `json:"bucket"`
	Label    string          `json:"label"`
	Accounts map[int64]int64 `json:"accounts"`
	Total    int64           `json:"total"`
}

// BuildPositions reconstructs per-account balance series by carrying each
// account's balance forward bucket by bucket: the first bucket starts
// from the account's initial balance, and every bucket adds that bucket's
// transaction sum to the previous balance.
//
// The transaction slice must cover all history up to the requested end,
// not just the [from, to] window: carry-forward balances depend on
// everything that came before. The window trims which buckets are
// returned, after every balance has been computed.
//
// Carry-forward arithmetic runs in each account's native currency;
// conversion to the target currency happens per bucket afterwards, at the
// latest rate. Converting before accumulating would silently mix rates
// across periods.
func BuildPositions(
	txns []core.Transaction,
	accounts []core.Account,
	g core.Granularity,
	currency string,
	rates Rates,
	from, to core.Date,
) []BalancePoint {
	if len(accounts) == 0 {
		return nil
	}

	// Per-account transaction sums per bucket, in native currency.
	sums := make(map[string]map[int64]int64)
	var first, last time.Time
	for _, tx := range txns {
		key := g.BucketKey(tx.Date.Time)
		if sums[key] == nil {
			sums[key] = make(map[int64]int64)
		}
		sums[key][tx.AccountID] += tx.Amount.Cents
		if first.IsZero() || tx.Date.Before(first) {
			first = tx.Date.Time
		}
		if tx.Date.After(last) {
			last = tx.Date.Time
		}
	}

	start, end := seriesRange(first, last, from, to)
	if start.IsZero() {
		return nil
	}

	var fromKey, toKey string
	if !from.IsZero() {
		fromKey = g.BucketKey(from.Time)
	}
	if !to.IsZero() {
		toKey = g.BucketKey(to.Time)
	}

	balances := make(map[int64]int64, len(accounts))
	for _, acct := range accounts {
		balances[acct.ID] = acct.InitialBalance.Cents
	}

	var out []BalancePoint
	endKey := g.BucketKey(end)
	for cursor := g.Truncate(start); ; cursor = g.Next(cursor) {
		key := g.BucketKey(cursor)
		if key > endKey {
			break
		}
		for acctID, sum := range sums[key] {
			balances[acctID] += sum
		}
		if key < fromKey || (toKey != "" && key > toKey) {
			continue
		}

		point := BalancePoint{
			Bucket:   key,
			Label:    g.Label(key),
			Accounts: make(map[int64]int64, len(accounts)),
		}
		for _, acct := range accounts {
			converted := Convert(balances[acct.ID], acct.Currency, currency, rates)
			point.Accounts[acct.ID] = converted
			point.Total += converted
		}
		out = append(out, point)
	}
	return out
}

// seriesRange picks the first and last instants the series must cover.
// Balances start at the earliest transaction so carry-forward sees full
// history, and run through the requested end (or the last transaction
// when no end is given).
func seriesRange(firstTxn, lastTxn time.Time, from, to core.Date) (start, end time.Time) {
	start = firstTxn
	if !from.IsZero() && (start.IsZero() || from.Before(start)) {
		// The window opens before the first transaction (or there are no
		// transactions): the leading buckets are flat initial balances.
		start = from.Time
	}
	if start.IsZero() {
		start = to.Time
	}

	end = lastTxn
	if !to.IsZero() {
		end = to.Time
	}
	if end.Before(start) {
		end = start
	}
	return start, end
}
