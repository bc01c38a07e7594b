package report

import (
	"bilancio/internal/core"
)

// ForecastPoint extends a balance point with a trend value. Realized
// points carry both the actual total and the trend line; future points
// carry only the projection.
type ForecastPoint struct {
	Bucket   string `json:"bucket"`
	Label    string `json:"label"`
	Realized bool   `json:"realized"`
	Total    int64  `json:"total"`
	Forecast int64  `json:"forecast"`
}

// Forecast projects the total balance series forward using the average
// per-bucket delta. This is deliberately a straight line, not a
// statistical model: averageDelta is the mean of consecutive realized
// deltas (zero when only one bucket exists), the trend is overlaid on the
// realized buckets for visual comparison, and a fixed number of future
// buckets is appended with the projection clamped at zero.
func Forecast(series []BalancePoint, g core.Granularity) []ForecastPoint {
	if len(series) == 0 {
		return nil
	}

	averageDelta := 0.0
	if len(series) > 1 {
		var sum int64
		for i := 1; i < len(series); i++ {
			sum += series[i].Total - series[i-1].Total
		}
		averageDelta = float64(sum) / float64(len(series)-1)
	}

	out := make([]ForecastPoint, 0, len(series)+horizon(g))
	for i, point := range series {
		out = append(out, ForecastPoint{
			Bucket:   point.Bucket,
			Label:    point.Label,
			Realized: true,
			Total:    point.Total,
			Forecast: series[0].Total + roundHalfAway(averageDelta*float64(i)),
		})
	}

	lastTotal := series[len(series)-1].Total
	cursor := g.BucketStart(series[len(series)-1].Bucket)
	for k := 1; k <= horizon(g); k++ {
		cursor = g.Next(cursor)
		projected := lastTotal + roundHalfAway(averageDelta*float64(k))
		if projected < 0 {
			projected = 0
		}
		key := g.BucketKey(cursor)
		out = append(out, ForecastPoint{
			Bucket:   key,
			Label:    g.Label(key),
			Forecast: projected,
		})
	}
	return out
}

// horizon is the fixed number of future buckets appended per granularity.
func horizon(g core.Granularity) int {
	switch g {
	case core.Daily:
		return 31
	case core.Monthly:
		return 12
	case core.Quarterly:
		return 9
	case core.Yearly:
		return 6
	default:
		panic("unknown granularity: " + string(g))
	}
}
