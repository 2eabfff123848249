// Package metrics exposes Prometheus instrumentation for habitual.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/btouchard/habitual/internal/notify"
)

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Mutations           *prometheus.CounterVec
	Completions         *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the collectors. habitCount backs the habitual_habits gauge;
// it may be nil.
func New(habitCount func() int) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		Mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habitual_mutations_total",
				Help: "Store mutations by operation and result",
			},
			[]string{"op", "result"},
		),
		Completions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "habitual_completions_total",
				Help: "Completion toggles by direction",
			},
			[]string{"direction"}, // direction: done, undone
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "habitual_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"method", "route", "status"},
		),
	}

	if habitCount != nil {
		factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "habitual_habits",
				Help: "Number of stored habits",
			},
			func() float64 { return float64(habitCount()) },
		)
	}

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordMutation counts one store mutation attempt.
func (m *Metrics) RecordMutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Mutations.WithLabelValues(op, result).Inc()
}

// Notify counts completion toggles. It implements notify.Notifier.
func (m *Metrics) Notify(event notify.Event) {
	switch event.Type {
	case "habit.completed":
		m.Completions.WithLabelValues("done").Inc()
	case "habit.uncompleted":
		m.Completions.WithLabelValues("undone").Inc()
	}
}

// Middleware records request durations labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
