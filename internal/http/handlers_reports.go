package http

import (
	"context"
	"net/http"
	"time"

	applog "bilancio/internal/log"
	"bilancio/internal/services"
)

// serveReport runs the shared parse/compute/respond cycle for report
// endpoints and records an access entry for successful reports.
func serveReport[T any](s *Server, name string, w http.ResponseWriter, r *http.Request,
	compute func(context.Context, services.ReportQuery) ([]T, error)) {

	q, err := ParseReportQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	result, err := compute(r.Context(), q)
	if err != nil {
		s.accessLog.LogError(r.Context(), "Report computation failed", err,
			applog.ComponentReport, applog.OpReport, applog.NewFields().WithReport(string(q.Granularity), q.Currency))
		writeError(w, http.StatusInternalServerError, "failed to compute report")
		return
	}

	currency := q.Currency
	if currency == "" {
		currency = s.reports.ReferenceCurrency()
	}
	s.accessLog.LogReportServed(r.Context(), name, string(q.Granularity), currency, time.Since(start).Milliseconds())

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCategoriesReport(w http.ResponseWriter, r *http.Request) {
	serveReport(s, "categories", w, r, s.reports.CategoryTotals)
}

func (s *Server) handleBucketsReport(w http.ResponseWriter, r *http.Request) {
	serveReport(s, "buckets", w, r, s.reports.BucketTotals)
}

func (s *Server) handleIncomeExpensesReport(w http.ResponseWriter, r *http.Request) {
	serveReport(s, "income-expenses", w, r, s.reports.IncomeExpenses)
}

func (s *Server) handleBalancesReport(w http.ResponseWriter, r *http.Request) {
	serveReport(s, "balances", w, r, s.reports.BalancePositions)
}

func (s *Server) handleForecastReport(w http.ResponseWriter, r *http.Request) {
	serveReport(s, "forecast", w, r, s.reports.ForecastBalances)
}

func (s *Server) handleBudgetComparison(w http.ResponseWriter, r *http.Request) {
	serveReport(s, "budget-comparison", w, r, s.reports.BudgetComparisons)
}

func (s *Server) handleBudgetOverTime(w http.ResponseWriter, r *http.Request) {
	serveReport(s, "budget-over-time", w, r, s.reports.BudgetOverTime)
}

func (s *Server) handleSnapshotExport(w http.ResponseWriter, r *http.Request) {
	q, err := ParseReportQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.exports.RequestSnapshotExport(r.Context(), q); err != nil {
		s.accessLog.LogError(r.Context(), "Snapshot export request failed", err,
			applog.ComponentReport, applog.OpExport, applog.NewFields().WithReport(string(q.Granularity), q.Currency))
		writeError(w, http.StatusInternalServerError, "failed to enqueue export")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
