package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Account is a ledger account holding transactions in a single currency.
	// Balance is maintained by the storage layer as
	// InitialBalance + sum of non-deleted transaction amounts.
	Account struct {
		ID             int64
		Name           string
		Currency       string
		InitialBalance Money
		Balance        Money
	}

	Category struct {
		ID    int64
		Name  string
		Color string
	}

	// Transaction is a single ledger entry. The sign of Amount encodes
	// direction (positive credits the account, negative debits it)
	// independently of Type. Currency is the currency of the owning
	// account, denormalized so reports never need a join.
	Transaction struct {
		ID          int64
		AccountID   int64
		CategoryID  int64 // 0 means uncategorized
		Type        TransactionType
		Date        Date
		Amount      Money
		Description string
		Currency    string
	}

	// BudgetEntry is a planned amount per category and type. Targets are
	// always stored in the reference currency at the budget granularity
	// configured for the whole installation.
	BudgetEntry struct {
		ID         int64
		CategoryID int64
		Type       TransactionType
		Target     Money
	}

	// RatePoint is one row of an exchange-rate time series. The ticker is
	// the reference currency concatenated with the quoted currency
	// (e.g. "EURUSD"), and Close is units of the quoted currency per one
	// unit of the reference currency.
	RatePoint struct {
		Ticker string
		Date   Date
		Close  float64
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidGranularity = errors.New("invalid granularity")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense, Transfer:
		return nil
	default:
		return ErrInvalidType
	}
}

// NewDate creates a new Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// ValidCurrency reports whether s looks like an ISO-4217 code:
// exactly three ASCII upper-case letters.
func ValidCurrency(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !ValidCurrency(a.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if t.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if t.AccountID == 0 {
		return errors.New("transaction must reference an account")
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (b BudgetEntry) Validate() error {
	if b.CategoryID == 0 {
		return errors.New("budget entry must reference a category")
	}
	switch b.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	if b.Target.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
