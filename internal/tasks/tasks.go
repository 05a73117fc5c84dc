// package tasks implements the playlist reconciliation workflow.
//
// The core abstraction is PlaylistEngine, which matches a local playlist against the Spotify catalog
// and optionally materializes the matches as a new remote playlist.
// Progress is reported via channels for non-blocking status reporting to the CLI.
package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ispot/internal/itunes"
	"github.com/desertthunder/ispot/internal/metrics"
	"github.com/desertthunder/ispot/internal/models"
	"github.com/desertthunder/ispot/internal/services"
	"github.com/desertthunder/ispot/internal/shared"
)

// DefaultNamePrefix is used for generated playlist names when no prefix is configured.
const DefaultNamePrefix = "iTunes"

const playlistNameLayout = "2006-01-02 15:04:05"

// PlaylistSource loads a local playlist export.
type PlaylistSource interface {
	LoadPlaylist(path string) (*itunes.Playlist, error)
}

// MatchOptions selects the behavior of one reconciliation run.
type MatchOptions struct {
	Path             string // Local playlist export
	CreateRemote     bool   // Create and populate a Spotify playlist from the matches
	RemoteName       string // Name of the created playlist; generated when empty
	ReportMismatches bool   // Count tracks with no or multiple results instead of dropping them
	NamePrefix       string // Prefix of generated playlist names
	Public           bool   // Visibility of the created playlist
}

// Mismatch is a local track that did not resolve to exactly one catalog track.
type Mismatch struct {
	Track   models.LocalTrack
	Outcome SearchOutcome
}

// AppendFailure is a matched track that could not be added to the remote playlist.
type AppendFailure struct {
	Track models.RemoteTrack
	Err   error
}

// ReconciliationResult is the outcome of one [PlaylistEngine.MatchPlaylist] run.
//
// Matched, Appended and AppendFailures follow local playlist order.
type ReconciliationResult struct {
	RunID           string
	Source          string
	Matched         []models.RemoteTrack
	Mismatches      []Mismatch
	MatchedCount    int
	MismatchedCount int
	TotalCount      int
	Playlist        *models.RemotePlaylist
	Appended        []models.RemoteTrack
	AppendFailures  []AppendFailure
}

// PlaylistEngine runs reconciliation workflows.
// Contains dependencies on the remote catalog and the local playlist source.
type PlaylistEngine struct {
	catalog services.Catalog
	source  PlaylistSource
	matcher *Matcher
	logger  *log.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewPlaylistEngine creates a new PlaylistEngine. logger and m may be nil.
func NewPlaylistEngine(catalog services.Catalog, source PlaylistSource, logger *log.Logger, m *metrics.Metrics) *PlaylistEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PlaylistEngine{
		catalog: catalog,
		source:  source,
		matcher: NewMatcher(catalog),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for generated playlist names.
func (e *PlaylistEngine) WithClock(now func() time.Time) *PlaylistEngine {
	e.now = now
	return e
}

// Matcher exposes the engine's search engine for single track lookups.
func (e *PlaylistEngine) Matcher() *Matcher {
	return e.matcher
}

// DefaultPlaylistName returns "<prefix> - YYYY-MM-DD HH:MM:SS" in local time.
func DefaultPlaylistName(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	return fmt.Sprintf("%s - %s", prefix, t.Local().Format(playlistNameLayout))
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// CreatePlaylist creates an empty private playlist for the current user.
func (e *PlaylistEngine) CreatePlaylist(ctx context.Context, name string, public bool) (*models.RemotePlaylist, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}
	user, err := e.catalog.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	created, err := e.catalog.CreatePlaylist(ctx, user.ID, name, public, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist %q: %w", name, err)
	}
	pl := created.RemotePlaylist()
	return &pl, nil
}

// ListPlaylists returns every playlist of the current user.
func (e *PlaylistEngine) ListPlaylists(ctx context.Context, pageSize int) ([]models.PlaylistSummary, error) {
	playlists, err := e.catalog.ListPlaylists(ctx, pageSize)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.PlaylistSummary, 0, len(playlists))
	for _, p := range playlists {
		summaries = append(summaries, p.Summary())
	}
	return summaries, nil
}

// MatchPlaylist matches every track of a local playlist and, when opts.CreateRemote is set, creates a
// playlist holding the matches.
//
// Tracks are processed one at a time in playlist order. A search that fails for any reason other than
// no or multiple results aborts the run and returns the partial result. A run with zero matches fails
// with [shared.ErrNoMatches]. Tracks that cannot be appended are collected on the result and reported
// with a [*shared.AppendError] after every other track has been attempted.
func (e *PlaylistEngine) MatchPlaylist(ctx context.Context, opts MatchOptions, progress chan<- ProgressUpdate) (*ReconciliationResult, error) {
	result := &ReconciliationResult{RunID: shared.GenerateID(), Source: opts.Path}
	logger := shared.WithLogger(e.logger, "run_id", result.RunID)

	e.sendProgress(progress, loadPlaylistUpdate(opts.Path))
	playlist, err := e.source.LoadPlaylist(opts.Path)
	if err != nil {
		return nil, err
	}

	total := playlist.Len()
	result.TotalCount = total
	logger.Info("matching playlist", "name", playlist.Name, "tracks", total, "create_remote", opts.CreateRemote)

	for i, track := range playlist.Tracks {
		outcome, err := e.matcher.Match(ctx, QueryFor(track))
		if err != nil {
			logger.Error("search failed", "track", track.Name, "error", err)
			return result, fmt.Errorf("searching for %q: %w", track.Name, err)
		}
		e.metrics.ObserveTrack(outcome.Kind.String())
		e.sendProgress(progress, searchTrackUpdate(i+1, total, track, outcome.Kind))

		switch outcome.Kind {
		case OutcomeMatched:
			result.Matched = append(result.Matched, *outcome.Track)
			result.MatchedCount++
		default:
			logger.Debug("track not matched", "track", track.Name, "outcome", outcome.Kind, "count", outcome.Count)
			if opts.ReportMismatches {
				result.Mismatches = append(result.Mismatches, Mismatch{Track: track, Outcome: outcome})
				result.MismatchedCount++
			}
		}
	}

	if result.MatchedCount == 0 {
		return result, fmt.Errorf("%w: 0 of %d tracks in %s", shared.ErrNoMatches, total, opts.Path)
	}

	if !opts.CreateRemote {
		return result, nil
	}

	name := opts.RemoteName
	if name == "" {
		name = DefaultPlaylistName(opts.NamePrefix, e.now())
	}

	pl, err := e.CreatePlaylist(ctx, name, opts.Public)
	if err != nil {
		return result, err
	}
	result.Playlist = pl
	e.sendProgress(progress, createPlaylistUpdate(pl))
	logger.Info("created playlist", "id", pl.ID, "name", pl.Name)

	for i, track := range result.Matched {
		_, err := e.catalog.AddTracks(ctx, pl.ID, track.URI)
		e.sendProgress(progress, addTrackUpdate(i+1, result.MatchedCount, track, err))
		if err != nil {
			if ctx.Err() != nil {
				return result, fmt.Errorf("adding tracks to %s: %w", pl.ID, err)
			}
			logger.Warn("failed to add track", "track", track.Name, "uri", track.URI, "error", err)
			e.metrics.ObserveAppendFailure()
			result.AppendFailures = append(result.AppendFailures, AppendFailure{Track: track, Err: err})
			continue
		}
		result.Appended = append(result.Appended, track)
	}

	if len(result.AppendFailures) > 0 {
		return result, &shared.AppendError{
			PlaylistID: pl.ID,
			Failed:     len(result.AppendFailures),
			Total:      result.MatchedCount,
		}
	}
	return result, nil
}
