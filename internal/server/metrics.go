package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus metrics for the score endpoint.
type Metrics struct {
	gatherer prometheus.Gatherer

	Requests    *prometheus.CounterVec
	Durations   *prometheus.HistogramVec
	ScoresSaved prometheus.Counter
	ScoreValues prometheus.Histogram
}

// NewMetrics registers endpoint metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flappy_http_requests_total",
		Help: "Handled HTTP requests, labeled by route and status code.",
	}, []string{"route", "code"}))
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flappy_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"route"}))
	if err != nil {
		return nil, err
	}

	saved, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flappy_scores_saved_total",
		Help: "Score records persisted by the endpoint.",
	}))
	if err != nil {
		return nil, err
	}

	values, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flappy_score_value",
		Help:    "Distribution of submitted scores.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:    gatherer,
		Requests:    requests,
		Durations:   durations,
		ScoresSaved: saved,
		ScoreValues: values,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := m.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// instrument wraps h with request count and latency recording.
func (m *Metrics) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		m.Requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.Durations.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// observeSaved records one persisted score.
func (m *Metrics) observeSaved(score int) {
	if m == nil {
		return
	}
	m.ScoresSaved.Inc()
	m.ScoreValues.Observe(float64(score))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// register adds c to reg. If an equal collector is already registered, the
// existing one is returned so repeated NewMetrics calls share series.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
		err = fmt.Errorf("already registered with another type: %w", err)
	}
	var zero T
	return zero, fmt.Errorf("server: cannot register metric: %w", err)
}
