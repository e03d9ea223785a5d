package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bcfdigital/mediareport/internal/report"
	"github.com/bcfdigital/mediareport/internal/utils"
)

// ReportService is what the HTTP layer needs from the pipeline.
type ReportService interface {
	Overview(ctx context.Context, start, end time.Time) report.OverviewReport
	ManagerRanking(ctx context.Context, start, end time.Time, sortMetric string) report.RankingReport
	ProjectRanking(ctx context.Context, start, end time.Time, sortMetric string) report.RankingReport
	Daily(ctx context.Context, start, end time.Time) report.DailyReport
	SiteRevenue(ctx context.Context, start, end time.Time) report.SiteReport
	Goal(ctx context.Context, start, end time.Time) report.GoalReport
}

func NewRouter(log *slog.Logger, svc ReportService) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(Instrument)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/api/v1/reports", func(r chi.Router) {
		r.Get("/overview", func(w http.ResponseWriter, r *http.Request) {
			start, end, ok := dateRange(w, r)
			if !ok {
				return
			}
			writeJSON(w, svc.Overview(r.Context(), start, end))
		})
		r.Get("/rankings/managers", func(w http.ResponseWriter, r *http.Request) {
			start, end, ok := dateRange(w, r)
			if !ok {
				return
			}
			writeJSON(w, svc.ManagerRanking(r.Context(), start, end, r.URL.Query().Get("sort")))
		})
		r.Get("/rankings/projects", func(w http.ResponseWriter, r *http.Request) {
			start, end, ok := dateRange(w, r)
			if !ok {
				return
			}
			writeJSON(w, svc.ProjectRanking(r.Context(), start, end, r.URL.Query().Get("sort")))
		})
		r.Get("/daily", func(w http.ResponseWriter, r *http.Request) {
			start, end, ok := dateRange(w, r)
			if !ok {
				return
			}
			writeJSON(w, svc.Daily(r.Context(), start, end))
		})
		r.Get("/sites", func(w http.ResponseWriter, r *http.Request) {
			start, end, ok := dateRange(w, r)
			if !ok {
				return
			}
			writeJSON(w, svc.SiteRevenue(r.Context(), start, end))
		})
		r.Get("/goal", func(w http.ResponseWriter, r *http.Request) {
			start, end, ok := dateRange(w, r)
			if !ok {
				return
			}
			writeJSON(w, svc.Goal(r.Context(), start, end))
		})
	})

	return mux
}

// dateRange reads from/to query params, defaulting to the last 30 days.
// This is where start <= end gets enforced; the core never re-checks it.
func dateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()
	end := dayUTC(time.Now())
	start := end.AddDate(0, 0, -30)

	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "bad 'to' date (YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		end = t
		start = end.AddDate(0, 0, -30)
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "bad 'from' date (YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		start = t
	}
	if start.After(end) {
		http.Error(w, "'from' must not be after 'to'", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func dayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
