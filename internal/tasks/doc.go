// Package tasks matches local iTunes playlists against the Spotify catalog with real-time progress reporting.
//
// # Exact-Match Search
//
// [BuildQuery] renders a [TrackQuery] as "name artist:<artist> album:<album>", omitting empty fields.
// [Matcher.Match] requests a single result and classifies it with [Classify] using the reported total:
//   - 0: [OutcomeNoResults]
//   - 1: [OutcomeMatched], carrying the track
//   - more: [OutcomeAmbiguous], carrying the count
//
// # Reconciliation
//
// [PlaylistEngine.MatchPlaylist] is the single workflow behind both "print matches" and "create a playlist".
// [MatchOptions] selects whether a remote playlist is created and whether mismatches are counted or dropped.
//
// Tracks are searched sequentially in playlist order. Unclassified search errors abort the run and return
// the partial [ReconciliationResult]. Zero matches fail with [shared.ErrNoMatches]. Append failures are
// collected per track and surfaced as a [*shared.AppendError] once every matched track was attempted.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
package tasks
