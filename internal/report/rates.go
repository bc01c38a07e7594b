// Package report is the aggregation engine behind every report endpoint.
//
// It turns caller-supplied snapshots of transactions, accounts, budget
// entries, and exchange rates into ready-to-render series: category
// breakdowns, bucketed income/expense totals, balance positions, budget
// comparisons, and balance forecasts. Nothing in this package persists
// state or mutates its inputs; every call is a request-scoped computation.
package report

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrNoRate is returned by a RateSource when no rate row exists for a
// ticker.
var ErrNoRate = errors.New("no exchange rate recorded")

// RateSource provides the most recent close for an exchange-rate ticker.
type RateSource interface {
	LatestClose(ctx context.Context, ticker string) (float64, error)
}

// Ticker builds the exchange-rate series name for a currency quoted
// against the reference currency, e.g. Ticker("EUR", "USD") == "EURUSD".
func Ticker(reference, code string) string {
	return reference + code
}

// Rates is an immutable per-request snapshot of reference-relative
// exchange rates. It is built once by ResolveRates and then passed by
// value into the pure conversion and aggregation functions.
type Rates struct {
	reference string
	byCode    map[string]float64
}

// Reference returns the pivot currency all rates are quoted against.
func (r Rates) Reference() string {
	return r.reference
}

// For returns the price of one reference unit in the given currency. The
// reference currency is always exactly 1.0. An unknown currency also
// resolves to 1.0: missing rates degrade to a no-op conversion rather
// than breaking a whole report.
func (r Rates) For(code string) float64 {
	if code == r.reference {
		return 1.0
	}
	if rate, ok := r.byCode[code]; ok {
		return rate
	}
	return 1.0
}

// NewRates builds a snapshot from an explicit code-to-rate map. Used by
// tests and by callers that already hold resolved rates.
func NewRates(reference string, byCode map[string]float64) Rates {
	rates := make(map[string]float64, len(byCode))
	for code, rate := range byCode {
		rates[code] = rate
	}
	return Rates{reference: reference, byCode: rates}
}

// ResolveRates fetches the latest close for every requested currency
// against the reference. Lookups are independent, so they run
// concurrently and are joined before returning. A missing or failed
// lookup never aborts the others: that currency falls back to 1.0, which
// keeps reports available when rate history is incomplete.
func ResolveRates(ctx context.Context, src RateSource, reference string, currencies []string) Rates {
	seen := make(map[string]struct{}, len(currencies))
	codes := make([]string, 0, len(currencies))
	for _, code := range currencies {
		if code == reference {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	var (
		mu     sync.Mutex
		byCode = make(map[string]float64, len(codes))
	)
	var g errgroup.Group
	for _, code := range codes {
		g.Go(func() error {
			close, err := src.LatestClose(ctx, Ticker(reference, code))
			if err != nil {
				if !errors.Is(err, ErrNoRate) {
					slog.WarnContext(ctx, "Exchange rate lookup failed, falling back to parity",
						"currency", code, "reference", reference, "error", err)
				} else {
					slog.WarnContext(ctx, "No exchange rate recorded, falling back to parity",
						"currency", code, "reference", reference)
				}
				close = 1.0
			}
			mu.Lock()
			byCode[code] = close
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // lookups never return errors; failures degrade in place

	return Rates{reference: reference, byCode: byCode}
}
