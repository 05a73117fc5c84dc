package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ispot"

// Outcome labels for API requests
const (
	OutcomeSuccess      = "success"
	OutcomeRateLimited  = "rate_limited"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

// Metrics holds the counters for one process.
type Metrics struct {
	registry *prometheus.Registry

	APIRequestsTotal    *prometheus.CounterVec
	RateLimitedTotal    prometheus.Counter
	BackoffSecondsTotal prometheus.Counter
	TracksTotal         *prometheus.CounterVec
	AppendFailuresTotal prometheus.Counter
	LastRunTimestamp    prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of Spotify API calls",
			},
			[]string{"op", "outcome"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_rate_limited_total",
				Help:      "Total number of rate limit responses that triggered a backoff",
			},
		),
		BackoffSecondsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_backoff_seconds_total",
				Help:      "Total seconds spent waiting before retrying rate limited calls",
			},
		),
		TracksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tracks_total",
				Help:      "Total number of local tracks searched, by outcome",
			},
			[]string{"outcome"},
		),
		AppendFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "append_failures_total",
				Help:      "Total number of matched tracks that could not be added to a playlist",
			},
		),
		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix timestamp of the last completed reconciliation run",
			},
		),
	}

	m.registry.MustRegister(
		m.APIRequestsTotal,
		m.RateLimitedTotal,
		m.BackoffSecondsTotal,
		m.TracksTotal,
		m.AppendFailuresTotal,
		m.LastRunTimestamp,
	)
	return m
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest counts one API call attempt.
func (m *Metrics) ObserveRequest(op, outcome string) {
	if m == nil {
		return
	}
	m.APIRequestsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveBackoff records a rate limit wait of d.
func (m *Metrics) ObserveBackoff(d time.Duration) {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
	m.BackoffSecondsTotal.Add(d.Seconds())
}

// ObserveTrack counts a local track by its search outcome.
func (m *Metrics) ObserveTrack(outcome string) {
	if m == nil {
		return
	}
	m.TracksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAppendFailure() {
	if m == nil {
		return
	}
	m.AppendFailuresTotal.Inc()
}

// MarkRun stamps the completion time of a command run.
func (m *Metrics) MarkRun(t time.Time) {
	if m == nil {
		return
	}
	m.LastRunTimestamp.Set(float64(t.Unix()))
}

// WriteFile writes every metric in the text exposition format to path.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
