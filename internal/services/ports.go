package services

import (
	"context"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// Store is the persistence surface the services need. Implemented by
// storage.SQLiteRepository and memory.Store.
type Store interface {
	CreateAccount(ctx context.Context, a core.Account) (int64, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	DeleteAccount(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, c core.Category) (int64, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)
	SoftDeleteTransaction(ctx context.Context, id int64) error

	UpsertBudget(ctx context.Context, b core.BudgetEntry) (int64, error)
	ListBudgets(ctx context.Context) ([]core.BudgetEntry, error)
	DeleteBudget(ctx context.Context, id int64) error

	UpsertRate(ctx context.Context, p core.RatePoint) error
	LatestClose(ctx context.Context, ticker string) (float64, error)

	Close() error
}
