package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotExportMessage asks the worker to export a report snapshot to
// the configured spreadsheet. It carries the report parameters only; the
// worker recomputes the report from the database.
type SnapshotExportMessage struct {
	Granularity string    `json:"granularity"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	Currency    string    `json:"currency"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewSnapshotExportMessage(granularity, from, to, currency string) *SnapshotExportMessage {
	return &SnapshotExportMessage{
		Granularity: granularity,
		From:        from,
		To:          to,
		Currency:    currency,
		RequestedAt: time.Now(),
	}
}

func (m *SnapshotExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotExportMessageFromJSON(data []byte) (*SnapshotExportMessage, error) {
	var msg SnapshotExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
