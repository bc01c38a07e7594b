package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

// ParseReportQuery extracts the shared report parameters from a
// request. Granularity defaults to monthly; everything else is
// optional.
func ParseReportQuery(r *http.Request) (services.ReportQuery, error) {
	query := r.URL.Query()
	q := services.ReportQuery{Granularity: core.Monthly}

	if v := strings.TrimSpace(query.Get("granularity")); v != "" {
		g, err := core.ParseGranularity(v)
		if err != nil {
			return q, fmt.Errorf("granularity %q: must be daily, monthly, quarterly, or yearly", v)
		}
		q.Granularity = g
	}

	var err error
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		if q.From, err = parseDate(v); err != nil {
			return q, fmt.Errorf("from %q: expected YYYY-MM-DD", v)
		}
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		if q.To, err = parseDate(v); err != nil {
			return q, fmt.Errorf("to %q: expected YYYY-MM-DD", v)
		}
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From.Time) {
		return q, fmt.Errorf("to %s precedes from %s", query.Get("to"), query.Get("from"))
	}

	if v := strings.ToUpper(strings.TrimSpace(query.Get("currency"))); v != "" {
		if !core.ValidCurrency(v) {
			return q, fmt.Errorf("currency %q: expected a 3-letter code", v)
		}
		q.Currency = v
	}

	if q.AccountIDs, err = parseIDList(query, "accounts"); err != nil {
		return q, err
	}
	if q.CategoryIDs, err = parseIDList(query, "categories"); err != nil {
		return q, err
	}

	if v := strings.TrimSpace(query.Get("type")); v != "" {
		t := core.TransactionType(v)
		if err := t.Validate(); err != nil {
			return q, fmt.Errorf("type %q: must be income, expense, or transfer", v)
		}
		q.Type = t
	}

	q.Search = sanitizeInput(query.Get("q"))

	return q, nil
}

// parseIDList parses a comma-separated list of numeric IDs.
func parseIDList(query url.Values, key string) ([]int64, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %q: expected numeric IDs", key, p)
		}
		out = append(out, id)
	}
	return out, nil
}
