// Package memory provides an in-memory store used by tests and the
// memory data backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/report"
	"bilancio/internal/storage"
)

type Store struct {
	mu           sync.Mutex
	nextID       int64
	accounts     map[int64]core.Account
	categories   map[int64]core.Category
	transactions map[int64]core.Transaction
	deleted      map[int64]bool
	budgets      map[int64]core.BudgetEntry
	rates        map[string][]core.RatePoint
}

func New() *Store {
	return &Store{
		nextID:       1,
		accounts:     map[int64]core.Account{},
		categories:   map[int64]core.Category{},
		transactions: map[int64]core.Transaction{},
		deleted:      map[int64]bool{},
		budgets:      map[int64]core.BudgetEntry{},
		rates:        map[string][]core.RatePoint{},
	}
}

func (s *Store) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateAccount(_ context.Context, a core.Account) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.accounts[a.ID] = a
	return a.ID, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		a.Balance = a.InitialBalance
		for id, t := range s.transactions {
			if t.AccountID == a.ID && !s.deleted[id] {
				a.Balance.Cents += t.Amount.Cents
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
	for tid, t := range s.transactions {
		if t.AccountID == id {
			delete(s.transactions, tid)
			delete(s.deleted, tid)
		}
	}
	return nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.categories[c.ID] = c
	return c.ID, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.categories, id)
	for tid, t := range s.transactions {
		if t.CategoryID == id {
			t.CategoryID = 0
			s.transactions[tid] = t
		}
	}
	for bid, b := range s.budgets {
		if b.CategoryID == id {
			delete(s.budgets, bid)
		}
	}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[t.AccountID]
	if !ok {
		return 0, fmt.Errorf("account %d does not exist", t.AccountID)
	}
	t.Currency = a.Currency
	if err := t.Validate(); err != nil {
		return 0, err
	}
	t.ID = s.id()
	s.transactions[t.ID] = t
	return t.ID, nil
}

func (s *Store) SoftDeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok || s.deleted[id] {
		return fmt.Errorf("transaction %d not found", id)
	}
	s.deleted[id] = true
	return nil
}

func (s *Store) ListTransactions(_ context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for id, t := range s.transactions {
		if s.deleted[id] || !matches(t, f) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matches(t core.Transaction, f storage.TransactionFilter) bool {
	if !f.From.IsZero() && t.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To.Time) {
		return false
	}
	if len(f.AccountIDs) > 0 && !containsID(f.AccountIDs, t.AccountID) {
		return false
	}
	if len(f.CategoryIDs) > 0 && !containsID(f.CategoryIDs, t.CategoryID) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		if !strings.Contains(strings.ToLower(t.Description), strings.ToLower(s)) {
			return false
		}
	}
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *Store) UpsertBudget(_ context.Context, b core.BudgetEntry) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.budgets {
		if existing.CategoryID == b.CategoryID && existing.Type == b.Type {
			b.ID = id
			s.budgets[id] = b
			return id, nil
		}
	}
	b.ID = s.id()
	s.budgets[b.ID] = b
	return b.ID, nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.BudgetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.BudgetEntry, 0, len(s.budgets))
	for _, b := range s.budgets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CategoryID != out[j].CategoryID {
			return out[i].CategoryID < out[j].CategoryID
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.budgets, id)
	return nil
}

func (s *Store) UpsertRate(_ context.Context, p core.RatePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	points := s.rates[p.Ticker]
	for i, existing := range points {
		if existing.Date.Equal(p.Date.Time) {
			points[i] = p
			return nil
		}
	}
	s.rates[p.Ticker] = append(points, p)
	return nil
}

// LatestClose implements report.RateSource. Future-dated points are
// skipped so the result is the latest close as of today.
func (s *Store) LatestClose(_ context.Context, ticker string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var best core.RatePoint
	found := false
	for _, p := range s.rates[ticker] {
		if p.Date.After(now) {
			continue
		}
		if !found || p.Date.After(best.Date.Time) {
			best = p
			found = true
		}
	}
	if !found {
		return 0, report.ErrNoRate
	}
	return best.Close, nil
}
