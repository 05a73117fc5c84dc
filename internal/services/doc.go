// Package services implements the rate limited Spotify Web API client behind the [Catalog] interface.
//
// # Calls
//
// Every remote operation on [SpotifyService] is wrapped by [Call], which classifies the outcome:
//   - success: the decoded result is returned unchanged
//   - HTTP 401: [shared.ErrUnauthorized], never retried
//   - HTTP 429: a [RateLimitError] carrying the Retry-After wait, retried after sleeping
//   - anything else: a [TransportError] that matches [shared.ErrFatalTransport]
//
// Rate limit retries loop under a [RetryPolicy] (max attempts, max elapsed time). Each backoff is
// logged as a warning and counted in [metrics.Metrics]. When the policy gives up the error wraps
// [shared.ErrRetryExhausted].
//
// Requests are also paced up front with a token bucket from golang.org/x/time/rate so a large
// playlist does not hit the limit in the first place.
//
// # Pagination
//
// [Paginate] drains any endpoint returning a [Page], advancing the offset by the number of items
// received until the page has no next link.
//
// # API Mappings
//
// API objects convert to the display models in package models:
//   - [SpotifyTrack] → [models.RemoteTrack] with artist names in order
//   - [SpotifyPlaylist] → [models.RemotePlaylist] and [models.PlaylistSummary]
package services
