package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "governance_atlas"

var (
	// Labels: method, route (chi pattern), status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests handled",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})

	assessments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "assessment",
		Name:      "runs_total",
		Help:      "Total assessment runs",
	})

	// Labels: status (PASS, FAIL, WARN, SKIP, MANUAL)
	testResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "assessment",
		Name:      "test_results_total",
		Help:      "Test results produced by assessment runs",
	}, []string{"status"})

	// Labels: trend (IMPROVING, STABLE, DEGRADING)
	deltas = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "delta",
		Name:      "reports_total",
		Help:      "Delta reports computed, by trend verdict",
	}, []string{"trend"})

	compositeScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "assessment",
		Name:      "composite_score",
		Help:      "Posture composite score of the most recent assessment",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func ObserveAssessment(counts map[domain.TestStatus]int, score domain.PostureScore) {
	assessments.Inc()
	for status, n := range counts {
		testResults.WithLabelValues(string(status)).Add(float64(n))
	}
	compositeScore.Set(score.Composite)
}

func ObserveDelta(trend domain.Trend) {
	deltas.WithLabelValues(string(trend)).Inc()
}
