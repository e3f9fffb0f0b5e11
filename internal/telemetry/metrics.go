package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	SSEClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sse_clients",
		Help: "Number of currently connected SSE clients",
	})

	// Resolutions counts template selections by the cascade tier that produced them.
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "responder_resolutions_total",
			Help: "Template selections by cascade tier",
		},
		[]string{"tier"},
	)
	// DefaultFallbacks counts selections that fell through to the default template.
	DefaultFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "responder_default_fallbacks_total",
		Help: "Selections that used the default template",
	})
	// RenderIssues counts degraded renders (missing partials, partial depth exceeded).
	RenderIssues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "responder_render_issues_total",
			Help: "Render issues by kind",
		},
		[]string{"kind"},
	)
	CatalogReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "responder_catalog_reloads_total",
			Help: "Catalog reload attempts by result",
		},
		[]string{"result"},
	)
	CatalogStates = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "responder_catalog_states",
		Help: "Number of state definitions in the active catalog",
	})
)

var initOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpReqs, httpDur, SSEClients,
			Resolutions, DefaultFallbacks, RenderIssues, CatalogReloads, CatalogStates,
		)
	})
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		// the route pattern is only complete once chi has finished routing
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
