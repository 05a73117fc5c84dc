// Package metrics provides Prometheus instrumentation for a single ispot run.
//
// ispot is a batch job, so nothing is served over HTTP. Counters live on a
// private registry owned by [Metrics] and are flushed to a node_exporter
// textfile with [Metrics.WriteFile] when the run finishes.
//
// # Metric Categories
//
// ## API Metrics
//
//   - ispot_api_requests_total: Counter of Spotify API calls by op and outcome
//   - ispot_api_rate_limited_total: Counter of 429 responses that triggered a backoff
//   - ispot_api_backoff_seconds_total: Counter of seconds spent waiting on Retry-After
//
// ## Reconciliation Metrics
//
//   - ispot_tracks_total: Counter of local tracks by search outcome
//   - ispot_append_failures_total: Counter of tracks that could not be added
//   - ispot_last_run_timestamp_seconds: Gauge set when an ispot command finishes, whatever its outcome
//
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics
