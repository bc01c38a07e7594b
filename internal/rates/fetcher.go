// Package rates pulls daily exchange rates from an HTTP provider and
// stores them as ticker history.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/report"
)

// RateStore persists fetched rate points.
type RateStore interface {
	UpsertRate(ctx context.Context, p core.RatePoint) error
}

// Fetcher retrieves reference-relative quotes from a Frankfurter-style
// endpoint: GET {base}/latest?base=EUR&symbols=USD,GBP returning
// {"base":"EUR","date":"2025-08-29","rates":{"USD":1.08,...}}.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	reference string
	store     RateStore
}

func NewFetcher(baseURL, referenceCurrency string, store RateStore) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: 15 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		reference: referenceCurrency,
		store:     store,
	}
}

type latestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// FetchLatest retrieves the latest quotes for the given symbols and
// upserts one rate point per currency. The reference currency itself is
// skipped.
func (f *Fetcher) FetchLatest(ctx context.Context, symbols []string) error {
	wanted := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || s == f.reference {
			continue
		}
		wanted = append(wanted, s)
	}
	if len(wanted) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("%s/latest?base=%s&symbols=%s",
		f.baseURL, url.QueryEscape(f.reference), url.QueryEscape(strings.Join(wanted, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build rates request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rates provider returned status %d", resp.StatusCode)
	}

	var parsed latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode rates response: %w", err)
	}

	date, err := time.Parse("2006-01-02", parsed.Date)
	if err != nil {
		return fmt.Errorf("parse rates date %q: %w", parsed.Date, err)
	}

	for code, close := range parsed.Rates {
		point := core.RatePoint{
			Ticker: report.Ticker(f.reference, code),
			Date:   core.Date{Time: date.UTC()},
			Close:  close,
		}
		if err := f.store.UpsertRate(ctx, point); err != nil {
			return fmt.Errorf("store rate %s: %w", point.Ticker, err)
		}
	}

	slog.InfoContext(ctx, "Stored latest exchange rates",
		"reference", f.reference,
		"date", parsed.Date,
		"count", len(parsed.Rates))
	return nil
}

// Run fetches immediately and then on every tick until the context is
// cancelled. Fetch failures are logged and retried on the next tick.
func (f *Fetcher) Run(ctx context.Context, symbols []string, interval time.Duration) error {
	if err := f.FetchLatest(ctx, symbols); err != nil {
		slog.ErrorContext(ctx, "Initial rates fetch failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.FetchLatest(ctx, symbols); err != nil {
				slog.ErrorContext(ctx, "Rates fetch failed", "error", err)
			}
		}
	}
}
