package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// OpsMetrics counts requests served by the ops router.
type OpsMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewOpsMetrics registers the ops router collectors on reg.
func NewOpsMetrics(namespace string, reg prometheus.Registerer) *OpsMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &OpsMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ops_requests_total",
			Help:      "Requests served by the ops endpoints.",
		}, []string{"route", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ops_request_duration_ms",
			Help:      "Ops endpoint latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500},
		}, []string{"route"}),
	}
	mustRegisterCollector(reg, m.Requests, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.Requests = v
		}
	})
	mustRegisterCollector(reg, m.Duration, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.HistogramVec); ok {
			m.Duration = v
		}
	})
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// OpsMiddleware records metrics and a debug log line for every ops request.
// Route labels use the chi pattern so probes do not explode cardinality.
func OpsMiddleware(logger zerolog.Logger, m *OpsMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			elapsed := DurationMillis(time.Since(start))

			route := "unknown"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			if m != nil {
				m.Requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
				m.Duration.WithLabelValues(route).Observe(elapsed)
			}
			logger.Debug().Str("route", route).Int("status", rec.status).Float64("duration_ms", elapsed).Msg("ops request")
		})
	}
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
