// Package http exposes the JSON API: ledger CRUD, the report
// endpoints, and snapshot export requests.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/cache"
	applog "bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
)

type Server struct {
	http.Server

	store   services.Store
	reports *services.ReportService
	exports *services.ExportService

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	cacheMgr    *cache.Manager
	accessLog   *applog.StructuredLogger

	// Report responses are cached briefly; any ledger write invalidates
	// the whole report cache.
	reportCache *cache.LRUCache[[]byte]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, store services.Store, reports *services.ReportService, exports *services.ExportService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:       store,
		reports:     reports,
		exports:     exports,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),
		cacheMgr:    cache.NewManager(),
		accessLog:   applog.NewStructuredLogger(applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)),
		reportCache: cache.NewLRUCache[[]byte](200, 5*time.Minute),
	}

	s.cacheMgr.Register(s.reportCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/reports/categories", s.cached(s.handleCategoriesReport))
	mux.HandleFunc("GET /api/reports/buckets", s.cached(s.handleBucketsReport))
	mux.HandleFunc("GET /api/reports/income-expenses", s.cached(s.handleIncomeExpensesReport))
	mux.HandleFunc("GET /api/reports/balances", s.cached(s.handleBalancesReport))
	mux.HandleFunc("GET /api/reports/forecast", s.cached(s.handleForecastReport))
	mux.HandleFunc("GET /api/budgets/comparison", s.cached(s.handleBudgetComparison))
	mux.HandleFunc("GET /api/budgets/over-time", s.cached(s.handleBudgetOverTime))

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /api/budgets", s.handleUpsertBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("POST /api/exports/snapshots", s.handleSnapshotExport)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ClientIP)
	limited := s.rateLimiter.Middleware(s.detector.ClientIP, nil)

	s.Server = http.Server{
		Addr:    addr,
		Handler: tracer.Middleware(headers.Middleware(limited(s.logged(mux)))),
	}

	return s
}

// Shutdown stops the HTTP server and the background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// logged writes an access log entry per request with status and timing.
func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := s.detector.ClientIP(r)
		if s.detector.IsSuspicious(r) {
			s.accessLog.WarnContext(r.Context(), "Suspicious request", "method", r.Method, "path", r.URL.Path, "client_ip", ip)
		}
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.accessLog.LogHTTPEnd(r.Context(), r, sw.status, time.Since(start).Milliseconds(), ip)
	})
}

// cached serves report responses from the LRU cache, keyed by path and
// query string.
func (s *Server) cached(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path + "?" + r.URL.RawQuery
		if body, ok := s.reportCache.Get(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			_, _ = w.Write(body)
			return
		}

		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		if rec.status == http.StatusOK {
			s.reportCache.Set(key, rec.body)
		}
	}
}

// invalidateReports drops every cached report. Ledger writes are rare
// enough that a full flush is simpler than tracking which reports a
// write touches.
func (s *Server) invalidateReports() {
	s.reportCache.Clear()
}

// statusWriter tracks the status code for access logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// recordingWriter captures the response for caching.
type recordingWriter struct {
	http.ResponseWriter
	status int
	body   []byte
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	if w.status == http.StatusOK {
		w.body = append(w.body, b...)
	}
	return w.ResponseWriter.Write(b)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
