package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ispot/internal/auth"
	"github.com/desertthunder/ispot/internal/itunes"
	"github.com/desertthunder/ispot/internal/metrics"
	"github.com/desertthunder/ispot/internal/models"
	"github.com/desertthunder/ispot/internal/services"
	"github.com/desertthunder/ispot/internal/shared"
	tu "github.com/desertthunder/ispot/internal/testing"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	playlist *itunes.Playlist
	err      error
	paths    []string
}

func (s *staticSource) LoadPlaylist(path string) (*itunes.Playlist, error) {
	s.paths = append(s.paths, path)
	if s.err != nil {
		return nil, s.err
	}
	return s.playlist, nil
}

func localTrack(id, name, artist, album string) models.LocalTrack {
	return models.LocalTrack{ID: id, Name: name, Artist: artist, Album: album}
}

func remoteTrack(id, name, artist, album string) services.SpotifyTrack {
	return services.SpotifyTrack{
		ID:      id,
		Name:    name,
		Artists: []services.SpotifyArtist{{Name: artist}},
		Album:   services.SpotifyAlbum{Name: album},
		URI:     "spotify:track:" + id,
	}
}

// threeTrackFixture has two unique matches and one track without results.
func threeTrackFixture() (*staticSource, *tu.MockCatalog) {
	source := &staticSource{playlist: &itunes.Playlist{
		Name: "Road Trip",
		Tracks: []models.LocalTrack{
			localTrack("1", "Bohemian Rhapsody", "Queen", "A Night at the Opera"),
			localTrack("2", "Unreleased Demo", "Nobody", ""),
			localTrack("3", "Teardrop", "Massive Attack", "Mezzanine"),
		},
	}}

	catalog := tu.NewMockCatalog()
	catalog.Match("Bohemian Rhapsody artist:Queen album:A Night at the Opera", remoteTrack("bohemian", "Bohemian Rhapsody", "Queen", "A Night at the Opera"))
	catalog.Match("Teardrop artist:Massive Attack album:Mezzanine", remoteTrack("teardrop", "Teardrop", "Massive Attack", "Mezzanine"))
	return source, catalog
}

func TestPlaylistEngine_MatchPlaylist(t *testing.T) {
	ctx := context.Background()

	t.Run("counts matches and mismatches", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		engine := NewPlaylistEngine(catalog, source, nil, nil)

		result, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml", ReportMismatches: true}, nil)
		require.NoError(t, err)

		assert.Equal(t, 2, result.MatchedCount)
		assert.Equal(t, 1, result.MismatchedCount)
		assert.Equal(t, 3, result.TotalCount)
		require.Len(t, result.Matched, 2)
		assert.Equal(t, "Bohemian Rhapsody", result.Matched[0].Name)
		assert.Equal(t, "Teardrop", result.Matched[1].Name)
		require.Len(t, result.Mismatches, 1)
		assert.Equal(t, "Unreleased Demo", result.Mismatches[0].Track.Name)
		assert.Equal(t, OutcomeNoResults, result.Mismatches[0].Outcome.Kind)
		assert.NotEmpty(t, result.RunID)
		assert.Equal(t, []string{"road.xml"}, source.paths)
	})

	t.Run("print only creates nothing", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		engine := NewPlaylistEngine(catalog, source, nil, nil)

		result, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml", ReportMismatches: true, CreateRemote: false}, nil)
		require.NoError(t, err)

		assert.Empty(t, catalog.Created)
		assert.Empty(t, catalog.Appended)
		assert.Nil(t, result.Playlist)
		assert.Equal(t, 2, result.MatchedCount)
		assert.Equal(t, 1, result.MismatchedCount)
		assert.Equal(t, 3, result.TotalCount)
	})

	t.Run("dropping mismatches", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		engine := NewPlaylistEngine(catalog, source, nil, nil)

		result, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml", ReportMismatches: false}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, result.MatchedCount)
		assert.Equal(t, 0, result.MismatchedCount)
		assert.Empty(t, result.Mismatches)
		assert.Equal(t, 3, result.TotalCount)
	})

	t.Run("ambiguous results count as mismatches", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		catalog.Replies["Unreleased Demo artist:Nobody"] = tu.SearchReply{Total: 4}
		engine := NewPlaylistEngine(catalog, source, nil, nil)

		result, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml", ReportMismatches: true}, nil)
		require.NoError(t, err)
		require.Len(t, result.Mismatches, 1)
		assert.Equal(t, OutcomeAmbiguous, result.Mismatches[0].Outcome.Kind)
		assert.Equal(t, 4, result.Mismatches[0].Outcome.Count)
	})

	t.Run("creates and populates a playlist in matched order", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		m := metrics.New()
		engine := NewPlaylistEngine(catalog, source, nil, m)

		result, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml", CreateRemote: true, RemoteName: "Road Trip", ReportMismatches: true}, nil)
		require.NoError(t, err)

		require.Len(t, catalog.Created, 1)
		assert.Equal(t, "Road Trip", catalog.Created[0].Name)
		assert.Equal(t, "mock-user", catalog.Created[0].Owner.ID)
		assert.False(t, catalog.Created[0].Public)
		assert.Equal(t, []string{"spotify:track:bohemian", "spotify:track:teardrop"}, catalog.Appended)

		require.NotNil(t, result.Playlist)
		assert.Equal(t, "playlist-1", result.Playlist.ID)
		assert.Len(t, result.Appended, 2)
		assert.Empty(t, result.AppendFailures)

		assert.Equal(t, 2.0, testutil.ToFloat64(m.TracksTotal.WithLabelValues("matched")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.TracksTotal.WithLabelValues("no_results")))
	})

	t.Run("generated playlist name", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		fixed := time.Date(2024, 5, 17, 9, 3, 7, 0, time.Local)
		engine := NewPlaylistEngine(catalog, source, nil, nil).WithClock(func() time.Time { return fixed })

		_, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml", CreateRemote: true, NamePrefix: "Library"}, nil)
		require.NoError(t, err)
		require.Len(t, catalog.Created, 1)
		assert.Equal(t, "Library - 2024-05-17 09:03:07", catalog.Created[0].Name)
	})

	t.Run("empty playlist fails with no matches", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		source := &staticSource{playlist: &itunes.Playlist{Name: "Empty"}}
		engine := NewPlaylistEngine(catalog, source, nil, nil)

		result, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "empty.xml", CreateRemote: true}, nil)
		assert.ErrorIs(t, err, shared.ErrNoMatches)
		require.NotNil(t, result)
		assert.Equal(t, 0, result.TotalCount)
		assert.Empty(t, catalog.Created)
	})

	t.Run("zero matches fails for print only runs", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		source := &staticSource{playlist: &itunes.Playlist{Tracks: []models.LocalTrack{localTrack("1", "Ghost", "", "")}}}
		engine := NewPlaylistEngine(catalog, source, nil, nil)

		result, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "ghost.xml", ReportMismatches: true}, nil)
		assert.ErrorIs(t, err, shared.ErrNoMatches)
		assert.Equal(t, 1, result.MismatchedCount)
		assert.Equal(t, 1, result.TotalCount)
	})

	t.Run("is idempotent over an unchanged catalog", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		engine := NewPlaylistEngine(catalog, source, nil, nil)
		opts := MatchOptions{Path: "road.xml", ReportMismatches: true}

		first, err := engine.MatchPlaylist(ctx, opts, nil)
		require.NoError(t, err)
		second, err := engine.MatchPlaylist(ctx, opts, nil)
		require.NoError(t, err)

		assert.Equal(t, first.MatchedCount, second.MatchedCount)
		assert.Equal(t, first.MismatchedCount, second.MismatchedCount)
		assert.Equal(t, first.TotalCount, second.TotalCount)
		assert.Equal(t, first.Matched, second.Matched)
		assert.NotEqual(t, first.RunID, second.RunID)
	})

	t.Run("source errors are returned as is", func(t *testing.T) {
		source := &staticSource{err: fmt.Errorf("%w: nope.xml", shared.ErrFileNotFound)}
		engine := NewPlaylistEngine(tu.NewMockCatalog(), source, nil, nil)

		result, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "nope.xml"}, nil)
		assert.ErrorIs(t, err, shared.ErrFileNotFound)
		assert.Nil(t, result)
	})

	t.Run("unclassified search error aborts with partial result", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		catalog.Replies["Unreleased Demo artist:Nobody"] = tu.SearchReply{Err: fmt.Errorf("%w: status 500", shared.ErrFatalTransport)}
		engine := NewPlaylistEngine(catalog, source, nil, nil)

		result, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml", CreateRemote: true, ReportMismatches: true}, nil)
		assert.ErrorIs(t, err, shared.ErrFatalTransport)
		require.NotNil(t, result)
		assert.Equal(t, 1, result.MatchedCount)
		assert.Len(t, catalog.Queries, 2, "third track must not be searched")
		assert.Empty(t, catalog.Created)
	})

	t.Run("unauthorized search aborts", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		catalog.Replies["Bohemian Rhapsody artist:Queen album:A Night at the Opera"] = tu.SearchReply{Err: shared.ErrUnauthorized}
		engine := NewPlaylistEngine(catalog, source, nil, nil)

		_, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml"}, nil)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("append failures are collected per track", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		catalog.FailAppend["spotify:track:bohemian"] = fmt.Errorf("%w: status 500", shared.ErrFatalTransport)
		m := metrics.New()
		engine := NewPlaylistEngine(catalog, source, nil, m)

		result, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml", CreateRemote: true, RemoteName: "x"}, nil)
		assert.ErrorIs(t, err, shared.ErrAppendFailure)

		var appendErr *shared.AppendError
		require.True(t, errors.As(err, &appendErr))
		assert.Equal(t, 1, appendErr.Failed)
		assert.Equal(t, 2, appendErr.Total)
		assert.Equal(t, "playlist-1", appendErr.PlaylistID)

		require.NotNil(t, result)
		require.Len(t, result.AppendFailures, 1)
		assert.Equal(t, "Bohemian Rhapsody", result.AppendFailures[0].Track.Name)
		assert.ErrorIs(t, result.AppendFailures[0].Err, shared.ErrFatalTransport)
		assert.Equal(t, []string{"spotify:track:teardrop"}, catalog.Appended, "later tracks are still attempted")
		assert.Len(t, result.Appended, 1)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.AppendFailuresTotal))
	})

	t.Run("playlist creation failure keeps matches", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		catalog.CreateErr = shared.ErrUnauthorized
		engine := NewPlaylistEngine(catalog, source, nil, nil)

		result, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml", CreateRemote: true}, nil)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		assert.Equal(t, 2, result.MatchedCount)
		assert.Nil(t, result.Playlist)
	})

	t.Run("sends progress without blocking", func(t *testing.T) {
		source, catalog := threeTrackFixture()
		engine := NewPlaylistEngine(catalog, source, nil, nil)
		progress := make(chan ProgressUpdate, 100)

		_, err := engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml", CreateRemote: true, RemoteName: "x"}, progress)
		require.NoError(t, err)
		close(progress)

		phases := map[Phase]int{}
		var messages []string
		for u := range progress {
			phases[u.Phase]++
			messages = append(messages, u.Message)
		}
		assert.Equal(t, 1, phases[LoadPlaylist])
		assert.Equal(t, 3, phases[SearchTracks])
		assert.Equal(t, 1, phases[CreatePlaylist])
		assert.Equal(t, 2, phases[AddTracks])
		assert.True(t, strings.Contains(strings.Join(messages, "\n"), "[2/3] ✗ Nobody - Unreleased Demo"))

		unbuffered := make(chan ProgressUpdate)
		_, err = engine.MatchPlaylist(ctx, MatchOptions{Path: "road.xml"}, unbuffered)
		require.NoError(t, err)
	})
}

func TestPlaylistEngine_CreatePlaylist(t *testing.T) {
	ctx := context.Background()

	t.Run("creates for current user", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		pl, err := NewPlaylistEngine(catalog, nil, nil, nil).CreatePlaylist(ctx, "Mixtape", false)
		require.NoError(t, err)
		assert.Equal(t, "Mixtape", pl.Name)
		assert.Equal(t, "spotify:playlist:playlist-1", pl.URI)
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := NewPlaylistEngine(tu.NewMockCatalog(), nil, nil, nil).CreatePlaylist(ctx, "", false)
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})

	t.Run("current user failure", func(t *testing.T) {
		catalog := tu.NewMockCatalog()
		catalog.UserErr = shared.ErrUnauthorized
		_, err := NewPlaylistEngine(catalog, nil, nil, nil).CreatePlaylist(ctx, "Mixtape", false)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestPlaylistEngine_ListPlaylists(t *testing.T) {
	catalog := tu.NewMockCatalog()
	catalog.Playlists = []services.SpotifyPlaylist{
		{ID: "a", Name: "A", Owner: services.Owner{DisplayName: "Me"}},
		{ID: "b", Name: "B", Owner: services.Owner{ID: "me"}, Public: true},
	}

	summaries, err := NewPlaylistEngine(catalog, nil, nil, nil).ListPlaylists(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Me", summaries[0].Owner)
	assert.Equal(t, "me", summaries[1].Owner)
	assert.True(t, summaries[1].Public)
}

func TestDefaultPlaylistName(t *testing.T) {
	ts := time.Date(2023, 12, 31, 23, 59, 58, 0, time.Local)
	assert.Equal(t, "iTunes - 2023-12-31 23:59:58", DefaultPlaylistName("", ts))
	assert.Equal(t, "Mix - 2023-12-31 23:59:58", DefaultPlaylistName("Mix", ts))
}

// rateLimitedSearch answers /search with 429 and Retry-After: 5 for the first limited calls.
func rateLimitedSearch(t *testing.T, limited int) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= limited {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"tracks":{"items":[{"id":"teardrop","name":"Teardrop","uri":"spotify:track:teardrop","artists":[{"name":"Massive Attack"}],"album":{"name":"Mezzanine"}}],"total":1,"limit":1,"offset":0,"next":null}}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestPlaylistEngine_RateLimitedSearch(t *testing.T) {
	source := &staticSource{playlist: &itunes.Playlist{
		Name:   "Single",
		Tracks: []models.LocalTrack{localTrack("3", "Teardrop", "Massive Attack", "Mezzanine")},
	}}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("backs off and matches", func(t *testing.T) {
		srv, calls := rateLimitedSearch(t, 3)
		clock := tu.NewSleepRecorder(start)
		m := metrics.New()
		svc, err := services.NewSpotifyService(services.SpotifyOptions{
			BaseURL:    srv.URL,
			Credential: &auth.Credential{AccessToken: "token"},
			Retry:      services.DefaultRetryPolicy(),
			Metrics:    m,
			Sleep:      clock.Sleep,
			Now:        clock.Now,
		})
		require.NoError(t, err)

		result, err := NewPlaylistEngine(svc, source, nil, m).MatchPlaylist(context.Background(), MatchOptions{Path: "single.xml", ReportMismatches: true}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.MatchedCount)
		assert.Equal(t, 4, *calls)
		assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, clock.Waits)
		assert.Equal(t, 15.0, testutil.ToFloat64(m.BackoffSecondsTotal))
	})

	t.Run("cancellation during backoff aborts the run", func(t *testing.T) {
		srv, _ := rateLimitedSearch(t, 1000)
		clock := tu.NewSleepRecorder(start)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		clock.CancelAfter(2, cancel)

		svc, err := services.NewSpotifyService(services.SpotifyOptions{
			BaseURL:    srv.URL,
			Credential: &auth.Credential{AccessToken: "token"},
			Retry:      services.DefaultRetryPolicy(),
			Sleep:      clock.Sleep,
			Now:        clock.Now,
		})
		require.NoError(t, err)

		result, err := NewPlaylistEngine(svc, source, nil, nil).MatchPlaylist(ctx, MatchOptions{Path: "single.xml"}, nil)
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, result)
		assert.Zero(t, result.MatchedCount)
		assert.Len(t, clock.Waits, 2)
	})
}
