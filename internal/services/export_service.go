package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
)

// ExportService enqueues snapshot export requests. The worker picks
// them up, recomputes the report, and writes it to the spreadsheet.
type ExportService struct {
	amqpClient *amqp.Client
}

func NewExportService(amqpClient *amqp.Client) *ExportService {
	return &ExportService{amqpClient: amqpClient}
}

// RequestSnapshotExport publishes an export request. Without an AMQP
// client the request is logged and dropped, so the API keeps working in
// standalone setups.
func (s *ExportService) RequestSnapshotExport(ctx context.Context, q ReportQuery) error {
	if err := q.Granularity.Validate(); err != nil {
		return err
	}

	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping snapshot export")
		return nil
	}

	msg := amqp.NewSnapshotExportMessage(
		string(q.Granularity),
		formatDate(q.From),
		formatDate(q.To),
		q.Currency,
	)
	if err := s.amqpClient.PublishSnapshotExport(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot export: %w", err)
	}
	return nil
}

func (s *ExportService) Close() error {
	if s.amqpClient != nil {
		return s.amqpClient.Close()
	}
	return nil
}

func formatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}
