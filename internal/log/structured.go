package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger emits the standard entries for HTTP traffic and
// report activity, using the shared field vocabulary.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart records the beginning of a request.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd records a completed request. 4xx logs at Warn, 5xx at
// Error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogReportServed records a successfully computed report.
func (sl *StructuredLogger) LogReportServed(ctx context.Context, report, granularity, currency string, durationMs int64) {
	fields := NewFields().
		WithReport(granularity, currency).
		WithOperation(OpReport).
		WithComponent(ComponentReport).
		ToSlice()

	fields = append(fields, "report", report, FieldDuration, durationMs)

	sl.logger.InfoContext(ctx, "Report served", fields...)
}

// LogError records a failure with component and operation context.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.ErrorContext(ctx, msg, all.ToSlice()...)
}

// WarnContext logs at Warn through the underlying component logger.
func (sl *StructuredLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	sl.logger.WarnContext(ctx, msg, args...)
}
