package services

import (
	"context"
	"fmt"

	"bilancio/internal/core"
	"bilancio/internal/report"
	"bilancio/internal/storage"
)

// ReportQuery carries the parameters shared by every report: the time
// bucketing, an optional date window, the output currency, and optional
// ledger filters.
type ReportQuery struct {
	Granularity core.Granularity
	From        core.Date
	To          core.Date
	Currency    string
	AccountIDs  []int64
	CategoryIDs []int64
	Type        core.TransactionType
	Search      string
}

// ReportService computes reports from the store: it fetches the raw
// ledger, resolves exchange rates once per request, and hands both to
// the report engine.
type ReportService struct {
	store             Store
	reference         string
	budgetGranularity core.Granularity
}

func NewReportService(store Store, referenceCurrency string, budgetGranularity core.Granularity) *ReportService {
	return &ReportService{
		store:             store,
		reference:         referenceCurrency,
		budgetGranularity: budgetGranularity,
	}
}

// ReferenceCurrency is the currency reports fall back to when the
// request names none.
func (s *ReportService) ReferenceCurrency() string {
	return s.reference
}

func (s *ReportService) currency(q ReportQuery) string {
	if q.Currency != "" {
		return q.Currency
	}
	return s.reference
}

// resolveRates fetches every rate one request needs in a single pass:
// the per-account currencies plus the output currency.
func (s *ReportService) resolveRates(ctx context.Context, accounts []core.Account, target string) report.Rates {
	currencies := make([]string, 0, len(accounts)+1)
	for _, a := range accounts {
		currencies = append(currencies, a.Currency)
	}
	currencies = append(currencies, target)
	return report.ResolveRates(ctx, s.store, s.reference, currencies)
}

func (s *ReportService) filter(q ReportQuery) storage.TransactionFilter {
	return storage.TransactionFilter{
		From:        q.From,
		To:          q.To,
		AccountIDs:  q.AccountIDs,
		CategoryIDs: q.CategoryIDs,
		Type:        q.Type,
		Search:      q.Search,
	}
}

func (s *ReportService) fetch(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, []core.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list accounts: %w", err)
	}
	txns, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, accounts, nil
}

// CategoryTotals reports spend and income magnitudes per category over
// the window.
func (s *ReportService) CategoryTotals(ctx context.Context, q ReportQuery) ([]report.CategoryTotal, error) {
	txns, accounts, err := s.fetch(ctx, s.filter(q))
	if err != nil {
		return nil, err
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	currency := s.currency(q)
	rates := s.resolveRates(ctx, accounts, currency)
	return report.SumByCategory(txns, categories, currency, rates), nil
}

// BucketTotals reports transacted magnitudes per time bucket.
func (s *ReportService) BucketTotals(ctx context.Context, q ReportQuery) ([]report.BucketTotal, error) {
	txns, accounts, err := s.fetch(ctx, s.filter(q))
	if err != nil {
		return nil, err
	}

	currency := s.currency(q)
	rates := s.resolveRates(ctx, accounts, currency)
	return report.SumByBucket(txns, q.Granularity, currency, rates), nil
}

// IncomeExpenses reports income against expenses per time bucket.
// Transfers are excluded.
func (s *ReportService) IncomeExpenses(ctx context.Context, q ReportQuery) ([]report.IncomeExpenseBucket, error) {
	txns, accounts, err := s.fetch(ctx, s.filter(q))
	if err != nil {
		return nil, err
	}

	currency := s.currency(q)
	rates := s.resolveRates(ctx, accounts, currency)
	return report.IncomeVsExpenses(txns, q.Granularity, currency, rates), nil
}

// BalancePositions reports carry-forward account balances per bucket.
// The transaction fetch deliberately ignores the date window: balances
// accumulate over all history, and the window only trims the output.
func (s *ReportService) BalancePositions(ctx context.Context, q ReportQuery) ([]report.BalancePoint, error) {
	f := s.filter(q)
	f.From = core.Date{}
	f.To = core.Date{}
	txns, accounts, err := s.fetch(ctx, f)
	if err != nil {
		return nil, err
	}
	accounts = filterAccounts(accounts, q.AccountIDs)

	currency := s.currency(q)
	rates := s.resolveRates(ctx, accounts, currency)
	return report.BuildPositions(txns, accounts, q.Granularity, currency, rates, q.From, q.To), nil
}

// ForecastBalances extends the balance series with a linear trend and a
// projection horizon.
func (s *ReportService) ForecastBalances(ctx context.Context, q ReportQuery) ([]report.ForecastPoint, error) {
	series, err := s.BalancePositions(ctx, q)
	if err != nil {
		return nil, err
	}
	return report.Forecast(series, q.Granularity), nil
}

// BudgetComparisons reports each category's actuals against its budget
// target, rescaled to the requested granularity and currency.
func (s *ReportService) BudgetComparisons(ctx context.Context, q ReportQuery) ([]report.BudgetComparison, error) {
	txns, accounts, err := s.fetch(ctx, s.filter(q))
	if err != nil {
		return nil, err
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	entries, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	currency := s.currency(q)
	rates := s.resolveRates(ctx, accounts, currency)
	actuals := report.SumByCategory(txns, categories, currency, rates)
	return report.CompareBudgets(entries, actuals, categories, s.budgetGranularity, q.Granularity, currency, rates), nil
}

// BudgetOverTime reports the budget comparison per time bucket.
func (s *ReportService) BudgetOverTime(ctx context.Context, q ReportQuery) ([]report.BudgetOverTimePoint, error) {
	txns, accounts, err := s.fetch(ctx, s.filter(q))
	if err != nil {
		return nil, err
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	entries, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	currency := s.currency(q)
	rates := s.resolveRates(ctx, accounts, currency)
	return report.BudgetOverTime(entries, txns, categories, s.budgetGranularity, q.Granularity, currency, rates), nil
}

func filterAccounts(accounts []core.Account, ids []int64) []core.Account {
	if len(ids) == 0 {
		return accounts
	}
	keep := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := make([]core.Account, 0, len(ids))
	for _, a := range accounts {
		if _, ok := keep[a.ID]; ok {
			out = append(out, a)
		}
	}
	return out
}
