// Package memory is an in-memory snapshot writer used by tests and the
// memory data backend.
package memory

import (
	"context"
	"sync"

	"bilancio/internal/sheets"
)

type Snapshot struct {
	Granularity string
	Rows        []sheets.SnapshotRow
}

type Writer struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

var _ sheets.SnapshotWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) AppendSnapshot(_ context.Context, granularity string, rows []sheets.SnapshotRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshots = append(w.snapshots, Snapshot{
		Granularity: granularity,
		Rows:        append([]sheets.SnapshotRow(nil), rows...),
	})
	return nil
}

// Snapshots returns a copy of everything written so far.
func (w *Writer) Snapshots() []Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Snapshot(nil), w.snapshots...)
}
