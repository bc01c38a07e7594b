package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Granularity is the size of a report time bucket. It is a closed set:
// every switch below covers all four values and treats anything else as a
// programming error.
type Granularity string

const (
	Daily     Granularity = "daily"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

// ParseGranularity maps a request string to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case Daily, Monthly, Quarterly, Yearly:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

func (g Granularity) Validate() error {
	switch g {
	case Daily, Monthly, Quarterly, Yearly:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGranularity, string(g))
	}
}

// BucketKey returns the bucket identifier for t. Keys sort
// lexicographically in chronological order, which downstream report code
// relies on instead of re-parsing dates.
func (g Granularity) BucketKey(t time.Time) string {
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Monthly:
		return t.Format("2006-01")
	case Quarterly:
		return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case Yearly:
		return t.Format("2006")
	default:
		panic("unknown granularity: " + string(g))
	}
}

// BucketStart parses a bucket key back to the first instant of the bucket
// (midnight UTC). Keys are produced by BucketKey only; a malformed key is
// a programming error, not bad input, so this panics instead of returning
// an error.
func (g Granularity) BucketStart(key string) time.Time {
	var (
		t   time.Time
		err error
	)
	switch g {
	case Daily:
		t, err = time.Parse("2006-01-02", key)
	case Monthly:
		t, err = time.Parse("2006-01", key)
	case Quarterly:
		var year, quarter int
		if _, err = fmt.Sscanf(key, "%4d-Q%1d", &year, &quarter); err == nil {
			if quarter < 1 || quarter > 4 {
				err = fmt.Errorf("quarter out of range: %d", quarter)
			} else {
				t = time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
			}
		}
	case Yearly:
		t, err = time.Parse("2006", key)
	default:
		panic("unknown granularity: " + string(g))
	}
	if err != nil {
		panic(fmt.Sprintf("malformed %s bucket key %q: %v", g, key, err))
	}
	return t
}

// Label returns the human display form of a bucket key. Sorting always
// happens on keys; labels are attached only at output time.
func (g Granularity) Label(key string) string {
	t := g.BucketStart(key)
	switch g {
	case Daily:
		return t.Format("02 Jan 2006")
	case Monthly:
		return t.Format("Jan 2006")
	case Quarterly:
		return fmt.Sprintf("Q%d %d", (int(t.Month())-1)/3+1, t.Year())
	case Yearly:
		return t.Format("2006")
	default:
		panic("unknown granularity: " + string(g))
	}
}

// Truncate returns the first instant of the bucket containing t.
func (g Granularity) Truncate(t time.Time) time.Time {
	switch g {
	case Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Quarterly:
		m := time.Month((int(t.Month())-1)/3*3 + 1)
		return time.Date(t.Year(), m, 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		panic("unknown granularity: " + string(g))
	}
}

// Next advances t by exactly one bucket.
func (g Granularity) Next(t time.Time) time.Time {
	switch g {
	case Daily:
		return t.AddDate(0, 0, 1)
	case Monthly:
		return t.AddDate(0, 1, 0)
	case Quarterly:
		return t.AddDate(0, 3, 0)
	case Yearly:
		return t.AddDate(1, 0, 0)
	default:
		panic("unknown granularity: " + string(g))
	}
}

// MonthlyFactor converts a per-bucket amount at this granularity to its
// monthly equivalent. Daily is never a budget granularity, so it has no
// factor.
func (g Granularity) MonthlyFactor() float64 {
	switch g {
	case Monthly:
		return 1.0
	case Quarterly:
		return 1.0 / 3.0
	case Yearly:
		return 1.0 / 12.0
	case Daily:
		panic("daily is not a budget granularity")
	default:
		panic("unknown granularity: " + string(g))
	}
}

// FromMonthlyFactor converts a monthly-equivalent amount to a per-bucket
// amount at this granularity.
func (g Granularity) FromMonthlyFactor() float64 {
	switch g {
	case Monthly:
		return 1.0
	case Quarterly:
		return 3.0
	case Yearly:
		return 12.0
	case Daily:
		panic("daily is not a budget granularity")
	default:
		panic("unknown granularity: " + string(g))
	}
}

// RescaleBudget converts a per-bucket target from one budget granularity
// to another, pivoting through the monthly equivalent and rounding half
// away from zero. The identity case returns the input untouched so the
// common path has no rounding drift.
func RescaleBudget(target int64, from, to Granularity) int64 {
	if from == to {
		return target
	}
	multiplier := from.MonthlyFactor() * to.FromMonthlyFactor()
	return int64(math.Round(float64(target) * multiplier))
}
