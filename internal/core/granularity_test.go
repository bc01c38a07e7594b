package core

import (
	"math/rand"
	"sort"
	"testing"
	"time"
)

func TestParseGranularity(t *testing.T) {
	cases := []struct {
		in  string
		out Granularity
		ok  bool
	}{
		{"daily", Daily, true},
		{"Monthly", Monthly, true},
		{" QUARTERLY ", Quarterly, true},
		{"yearly", Yearly, true},
		{"weekly", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseGranularity(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestBucketKey(t *testing.T) {
	d := time.Date(2025, time.August, 9, 15, 4, 5, 0, time.UTC)
	cases := []struct {
		g   Granularity
		key string
	}{
		{Daily, "2025-08-09"},
		{Monthly, "2025-08"},
		{Quarterly, "2025-Q3"},
		{Yearly, "2025"},
	}
	for _, tc := range cases {
		if got := tc.g.BucketKey(d); got != tc.key {
			t.Fatalf("%s: expected %q, got %q", tc.g, tc.key, got)
		}
	}
}

func TestBucketKeyOrdering(t *testing.T) {
	// Lexicographic order of monthly keys must match chronological order
	// of the underlying dates. Report code sorts on keys directly.
	rng := rand.New(rand.NewSource(42))
	dates := make([]time.Time, 0, 50)
	for i := 0; i < 50; i++ {
		dates = append(dates, NewDate(2025, 1+rng.Intn(12), 1+rng.Intn(28)).Time)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = Monthly.BucketKey(d)
	}
	if !sort.StringsAreSorted(keys) {
		t.Fatalf("monthly keys not sorted: %v", keys)
	}

	// Quarterly keys sort across year boundaries too.
	q := []string{
		Quarterly.BucketKey(NewDate(2024, 11, 1).Time),
		Quarterly.BucketKey(NewDate(2025, 2, 1).Time),
		Quarterly.BucketKey(NewDate(2025, 7, 1).Time),
	}
	if !sort.StringsAreSorted(q) {
		t.Fatalf("quarterly keys not sorted: %v", q)
	}
}

func TestBucketStartRoundTrip(t *testing.T) {
	d := time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC)
	for _, g := range []Granularity{Daily, Monthly, Quarterly, Yearly} {
		key := g.BucketKey(d)
		start := g.BucketStart(key)
		if g.BucketKey(start) != key {
			t.Fatalf("%s: key %q not stable through BucketStart (got %q)", g, key, g.BucketKey(start))
		}
		if !start.Equal(g.Truncate(d)) {
			t.Fatalf("%s: BucketStart %v != Truncate %v", g, start, g.Truncate(d))
		}
	}
}

func TestLabel(t *testing.T) {
	cases := []struct {
		g     Granularity
		key   string
		label string
	}{
		{Daily, "2025-08-09", "09 Aug 2025"},
		{Monthly, "2025-08", "Aug 2025"},
		{Quarterly, "2025-Q3", "Q3 2025"},
		{Yearly, "2025", "2025"},
	}
	for _, tc := range cases {
		if got := tc.g.Label(tc.key); got != tc.label {
			t.Fatalf("%s %q: expected %q, got %q", tc.g, tc.key, tc.label, got)
		}
	}
}

func TestNext(t *testing.T) {
	start := NewDate(2025, 11, 1).Time
	cases := []struct {
		g    Granularity
		want string
	}{
		{Daily, "2025-11-02"},
		{Monthly, "2025-12"},
		{Quarterly, "2026-Q1"},
		{Yearly, "2026"},
	}
	for _, tc := range cases {
		if got := tc.g.BucketKey(tc.g.Next(start)); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.g, tc.want, got)
		}
	}
}

func TestRescaleBudget(t *testing.T) {
	cases := []struct {
		target   int64
		from, to Granularity
		want     int64
	}{
		{30000, Monthly, Monthly, 30000},
		{30000, Monthly, Quarterly, 90000},
		{30000, Monthly, Yearly, 360000},
		{90000, Quarterly, Monthly, 30000},
		{360000, Yearly, Monthly, 30000},
		{100, Yearly, Quarterly, 25},
	}
	for _, tc := range cases {
		if got := RescaleBudget(tc.target, tc.from, tc.to); got != tc.want {
			t.Fatalf("%d %s->%s: expected %d, got %d", tc.target, tc.from, tc.to, tc.want, got)
		}
	}
}

func TestRescaleBudgetRoundTrip(t *testing.T) {
	grans := []Granularity{Monthly, Quarterly, Yearly}
	targets := []int64{0, 1, 99, 1000, 12345, 999999}
	for _, g1 := range grans {
		for _, g2 := range grans {
			for _, target := range targets {
				back := RescaleBudget(RescaleBudget(target, g1, g2), g2, g1)
				diff := back - target
				if diff < -1 || diff > 1 {
					t.Fatalf("%d %s->%s->%s: got %d, drift %d", target, g1, g2, g1, back, diff)
				}
			}
		}
	}
}
