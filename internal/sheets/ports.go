package sheets

import "context"

// SnapshotRow is one exported report line: an income-versus-expenses
// bucket in the snapshot's currency.
type SnapshotRow struct {
	Bucket     string
	Label      string
	Income     int64
	Expenses   int64
	Difference int64
	Currency   string
}

// SnapshotWriter is the outbound port for snapshot exports.
type SnapshotWriter interface {
	AppendSnapshot(ctx context.Context, granularity string, rows []SnapshotRow) error
}
