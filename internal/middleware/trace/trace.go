// Package trace tags every request with an ID and keeps coarse request
// metrics. Access logging itself lives with the HTTP server; this layer
// only provides the correlation ID downstream log calls pick up.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Metrics is a point-in-time snapshot of the request counters.
type Metrics struct {
	TotalRequests  int64
	LastDurationMs int64
}

// Middleware assigns request IDs and records request counts and timing.
type Middleware struct {
	extractIP func(*http.Request) string

	totalRequests  atomic.Int64
	lastDurationMs atomic.Int64
}

func NewMiddleware(extractIP func(*http.Request) string) *Middleware {
	return &Middleware{extractIP: extractIP}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.totalRequests.Add(1)

		ctx := context.WithValue(r.Context(), requestIDKey, NewRequestID())
		next.ServeHTTP(w, r.WithContext(ctx))

		m.lastDurationMs.Store(time.Since(start).Milliseconds())
	})
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:  m.totalRequests.Load(),
		LastDurationMs: m.lastDurationMs.Load(),
	}
}

// NewRequestID returns a fresh correlation ID. Falls back to a
// timestamp when the random source fails.
func NewRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// RequestID returns the correlation ID stored in ctx, or "" when the
// trace middleware did not run.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
