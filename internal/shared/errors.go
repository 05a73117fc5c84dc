package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed   = fmt.Errorf("failure authenticating with Spotify")
	ErrUnauthorized = fmt.Errorf("unauthorized api call")
	ErrTimeout      = fmt.Errorf("operation timed out")

	// API errors
	ErrFatalTransport = fmt.Errorf("spotify api call failed")
	ErrRetryExhausted = fmt.Errorf("rate limit retries exhausted")

	// Search errors
	ErrNoResults       = fmt.Errorf("no results returned")
	ErrMultipleResults = fmt.Errorf("multiple results returned")

	// Playlist file errors
	ErrFileNotFound = fmt.Errorf("can't find playlist file")
	ErrNotAFile     = fmt.Errorf("expected a playlist file, found a directory")
	ErrParse        = fmt.Errorf("failed to load plist")

	// Workflow errors
	ErrNoMatches     = fmt.Errorf("no tracks were matched")
	ErrAppendFailure = fmt.Errorf("failed to add tracks to playlist")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// MultipleResultsError reports a search that matched more than one catalog entry.
//
// It matches [ErrMultipleResults] with errors.Is.
type MultipleResultsError struct {
	Count int
}

func (e *MultipleResultsError) Error() string {
	return fmt.Sprintf("expected 1 result, found %d", e.Count)
}

func (e *MultipleResultsError) Is(target error) bool {
	return target == ErrMultipleResults
}

// AppendError summarizes the tracks that could not be added to a remote playlist.
// Per-track causes live on the workflow result.
type AppendError struct {
	PlaylistID string
	Failed     int
	Total      int
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("%v: %d of %d tracks could not be added to %s", ErrAppendFailure, e.Failed, e.Total, e.PlaylistID)
}

func (e *AppendError) Unwrap() error {
	return ErrAppendFailure
}
