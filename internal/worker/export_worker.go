// Package worker runs the snapshot export consumer that bridges the
// message queue to the spreadsheet writer.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/services"
)

// ExportWorker consumes snapshot export requests and renders each one
// into the configured spreadsheet.
type ExportWorker struct {
	client    *amqp.Client
	processor *services.SnapshotProcessor
}

func NewExportWorker(client *amqp.Client, processor *services.SnapshotProcessor) *ExportWorker {
	return &ExportWorker{
		client:    client,
		processor: processor,
	}
}

// Run blocks consuming export requests until the context is cancelled.
func (w *ExportWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Starting snapshot export worker")

	err := w.client.ConsumeSnapshotExports(ctx, func(msg *amqp.SnapshotExportMessage) error {
		return w.handleMessage(ctx, msg)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("snapshot export consumer stopped: %w", err)
	}
	return nil
}

func (w *ExportWorker) handleMessage(ctx context.Context, msg *amqp.SnapshotExportMessage) error {
	slog.InfoContext(ctx, "Processing snapshot export request",
		"granularity", msg.Granularity,
		"currency", msg.Currency,
		"requested_at", msg.RequestedAt,
	)

	if err := w.processor.Process(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to process snapshot export",
			"granularity", msg.Granularity,
			"error", err,
		)
		return err
	}

	slog.InfoContext(ctx, "Snapshot export completed", "granularity", msg.Granularity)
	return nil
}
