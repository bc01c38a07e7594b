package services

import (
	"context"
	"fmt"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/sheets"
)

// SnapshotProcessor handles snapshot export messages on the worker
// side: it recomputes the income-versus-expenses report from the store
// and appends the result to the configured spreadsheet.
type SnapshotProcessor struct {
	reports *ReportService
	writer  sheets.SnapshotWriter
}

func NewSnapshotProcessor(reports *ReportService, writer sheets.SnapshotWriter) *SnapshotProcessor {
	return &SnapshotProcessor{
		reports: reports,
		writer:  writer,
	}
}

// Process executes one export request end to end.
func (p *SnapshotProcessor) Process(ctx context.Context, msg *amqp.SnapshotExportMessage) error {
	q, err := p.queryFromMessage(msg)
	if err != nil {
		return err
	}

	buckets, err := p.reports.IncomeExpenses(ctx, q)
	if err != nil {
		return fmt.Errorf("compute snapshot report: %w", err)
	}

	currency := q.Currency
	if currency == "" {
		currency = p.reports.ReferenceCurrency()
	}

	rows := make([]sheets.SnapshotRow, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, sheets.SnapshotRow{
			Bucket:     b.Bucket,
			Label:      b.Label,
			Income:     b.Income,
			Expenses:   b.Expenses,
			Difference: b.Difference,
			Currency:   currency,
		})
	}

	if err := p.writer.AppendSnapshot(ctx, string(q.Granularity), rows); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (p *SnapshotProcessor) queryFromMessage(msg *amqp.SnapshotExportMessage) (ReportQuery, error) {
	g, err := core.ParseGranularity(msg.Granularity)
	if err != nil {
		return ReportQuery{}, fmt.Errorf("snapshot granularity: %w", err)
	}

	q := ReportQuery{Granularity: g, Currency: msg.Currency}
	if q.From, err = parseDate(msg.From); err != nil {
		return ReportQuery{}, fmt.Errorf("snapshot from date: %w", err)
	}
	if q.To, err = parseDate(msg.To); err != nil {
		return ReportQuery{}, fmt.Errorf("snapshot to date: %w", err)
	}
	return q, nil
}

func parseDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t.UTC()}, nil
}
