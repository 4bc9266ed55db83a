// Package metrics exposes Prometheus collectors for the ledger layer.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledger_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger_layer",
			Subsystem: "token",
			Name:      "operations_total",
			Help:      "Total number of ledger operations attempted.",
		},
		[]string{"op", "status"},
	)

	totalSupply = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger_layer",
			Subsystem: "token",
			Name:      "total_supply",
			Help:      "Current total supply (float approximation for large values).",
		},
	)

	haltedState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger_layer",
			Subsystem: "token",
			Name:      "halted",
			Help:      "1 when the operational switch is halted, 0 when active.",
		},
	)

	auditRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger_layer",
			Subsystem: "audit",
			Name:      "runs_total",
			Help:      "Total number of supply-invariant audit runs.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerOperations,
		totalSupply,
		haltedState,
		auditRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordOperation counts a ledger operation attempt.
func RecordOperation(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ledgerOperations.WithLabelValues(op, status).Inc()
}

// SetSupply updates the total-supply gauge from a decimal string. Values too
// large for float64 lose precision; the gauge is a trend indicator, the
// journal holds exact figures.
func SetSupply(dec string) {
	if v, err := strconv.ParseFloat(dec, 64); err == nil {
		totalSupply.Set(v)
	}
}

// SetHalted updates the operational-switch gauge.
func SetHalted(halted bool) {
	if halted {
		haltedState.Set(1)
	} else {
		haltedState.Set(0)
	}
}

// RecordAudit counts a supply-invariant audit run.
func RecordAudit(ok bool) {
	result := "violation"
	if ok {
		result = "ok"
	}
	auditRuns.WithLabelValues(result).Inc()
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses identifier segments so the label set stays bounded.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "token" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/token"
	}
	switch parts[1] {
	case "balances":
		return "/token/balances/:address"
	case "allowances":
		return "/token/allowances/:owner/:spender"
	default:
		return "/token/" + parts[1]
	}
}
