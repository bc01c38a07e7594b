// Package storage implements the SQLite-backed store for the ledger:
// accounts, categories, transactions, budget entries, and exchange-rate
// history.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/report"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateAccount inserts an account and returns its ID.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, currency, initial_balance_cents) VALUES (?, ?, ?)`,
		a.Name, a.Currency, a.InitialBalance.Cents)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account insert id: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "id", id, "name", a.Name, "currency", a.Currency)
	return id, nil
}

// ListAccounts returns all accounts with their current balance: initial
// balance plus the sum of non-deleted transaction amounts.
func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.currency, a.initial_balance_cents,
		       a.initial_balance_cents + COALESCE(SUM(t.amount_cents), 0)
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id AND t.deleted_at IS NULL
		GROUP BY a.id
		ORDER BY a.name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &a.InitialBalance.Cents, &a.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DeleteAccount removes an account and all of its transactions.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete account: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = ?`, id); err != nil {
		return fmt.Errorf("delete account transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete account: %w", err)
	}

	slog.InfoContext(ctx, "Account deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, color) VALUES (?, ?)`, c.Name, c.Color)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	// Transactions keep the sentinel uncategorized bucket instead of a
	// dangling reference.
	if _, err := tx.ExecContext(ctx, `UPDATE transactions SET category_id = NULL WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("detach category transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("delete category budgets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return tx.Commit()
}

// CreateTransaction inserts a transaction, denormalizing the owning
// account's currency onto the row.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	var currency string
	err := r.db.QueryRowContext(ctx, `SELECT currency FROM accounts WHERE id = ?`, t.AccountID).Scan(&currency)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("account %d does not exist", t.AccountID)
	}
	if err != nil {
		return 0, fmt.Errorf("look up account currency: %w", err)
	}
	t.Currency = currency
	if err := t.Validate(); err != nil {
		return 0, err
	}

	var categoryID any
	if t.CategoryID != 0 {
		categoryID = t.CategoryID
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (account_id, category_id, type, amount_cents, date, description, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.AccountID, categoryID, string(t.Type), t.Amount.Cents,
		t.Date.Format(dateLayout), t.Description, t.Currency)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id,
		"account_id", t.AccountID,
		"type", string(t.Type),
		"amount_cents", t.Amount.Cents,
		"date", t.Date.Format(dateLayout))
	return id, nil
}

// SoftDeleteTransaction marks a transaction deleted without removing the
// row.
func (r *SQLiteRepository) SoftDeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = datetime('now') WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d not found", id)
	}

	slog.InfoContext(ctx, "Transaction soft deleted", "id", id)
	return nil
}

// TransactionFilter narrows ListTransactions. Zero values mean "no
// constraint".
type TransactionFilter struct {
	From        core.Date
	To          core.Date
	AccountIDs  []int64
	CategoryIDs []int64
	Type        core.TransactionType
	Search      string
}

// ListTransactions returns non-deleted transactions matching the filter,
// ordered by date.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, account_id, COALESCE(category_id, 0), type, amount_cents, date, description, currency
		FROM transactions
		WHERE deleted_at IS NULL`)
	var args []any

	if !f.From.IsZero() {
		query.WriteString(` AND date >= ?`)
		args = append(args, f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		query.WriteString(` AND date <= ?`)
		args = append(args, f.To.Format(dateLayout))
	}
	if len(f.AccountIDs) > 0 {
		query.WriteString(` AND account_id IN (` + placeholders(len(f.AccountIDs)) + `)`)
		for _, id := range f.AccountIDs {
			args = append(args, id)
		}
	}
	if len(f.CategoryIDs) > 0 {
		query.WriteString(` AND COALESCE(category_id, 0) IN (` + placeholders(len(f.CategoryIDs)) + `)`)
		for _, id := range f.CategoryIDs {
			args = append(args, id)
		}
	}
	if f.Type != "" {
		query.WriteString(` AND type = ?`)
		args = append(args, string(f.Type))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		query.WriteString(` AND description LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(s)+"%")
	}
	query.WriteString(` ORDER BY date, id`)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		var (
			t       core.Transaction
			typ     string
			dateStr string
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &t.CategoryID, &typ, &t.Amount.Cents, &dateStr, &t.Description, &t.Currency); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		parsed, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
		}
		t.Date = core.Date{Time: parsed}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// UpsertBudget inserts or replaces the target for a category and type.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.BudgetEntry) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (category_id, type, target_cents)
		VALUES (?, ?, ?)
		ON CONFLICT (category_id, type) DO UPDATE SET target_cents = excluded.target_cents`,
		b.CategoryID, string(b.Type), b.Target.Cents)
	if err != nil {
		return 0, fmt.Errorf("upsert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("budget insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.BudgetEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, type, target_cents FROM budgets ORDER BY category_id, type`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var entries []core.BudgetEntry
	for rows.Next() {
		var (
			b   core.BudgetEntry
			typ string
		)
		if err := rows.Scan(&b.ID, &b.CategoryID, &typ, &b.Target.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Type = core.TransactionType(typ)
		entries = append(entries, b)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// UpsertRate records one exchange-rate row, replacing an existing row for
// the same ticker and date.
func (r *SQLiteRepository) UpsertRate(ctx context.Context, p core.RatePoint) error {
	if p.Ticker == "" || p.Date.IsZero() {
		return errors.New("rate point needs a ticker and a date")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exchange_rates (ticker, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT (ticker, date) DO UPDATE SET close = excluded.close`,
		p.Ticker, p.Date.Format(dateLayout), p.Close)
	if err != nil {
		return fmt.Errorf("upsert rate: %w", err)
	}
	return nil
}

// LatestClose implements report.RateSource: the most recent close on or
// before today for the given ticker.
func (r *SQLiteRepository) LatestClose(ctx context.Context, ticker string) (float64, error) {
	var close float64
	err := r.db.QueryRowContext(ctx, `
		SELECT close FROM exchange_rates
		WHERE ticker = ? AND date <= date('now')
		ORDER BY date DESC
		LIMIT 1`, ticker).Scan(&close)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, report.ErrNoRate
	}
	if err != nil {
		return 0, fmt.Errorf("latest close for %s: %w", ticker, err)
	}
	return close, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
