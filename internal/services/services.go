// package services defines interface Catalog for the remote music catalog
//
// Spotify
package services

import (
	"context"
)

// Catalog is the remote surface the matching workflow depends on.
// [SpotifyService] implements it; tests substitute fakes.
type Catalog interface {
	// CurrentUser returns the profile that owns the credential.
	CurrentUser(ctx context.Context) (*SpotifyUser, error)

	// SearchTracks runs a track search and returns one page of results.
	// Page.Total is the remote total, independent of how many items were requested.
	SearchTracks(ctx context.Context, query string, limit, offset int) (*Page[SpotifyTrack], error)

	// CreatePlaylist creates an empty playlist for userID.
	CreatePlaylist(ctx context.Context, userID, name string, public bool, description string) (*SpotifyPlaylist, error)

	// AddTracks appends uris to the playlist.
	AddTracks(ctx context.Context, playlistID string, uris ...string) (string, error)

	// ListPlaylists drains the current user's playlists.
	ListPlaylists(ctx context.Context, pageSize int) ([]SpotifyPlaylist, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

var _ Catalog = (*SpotifyService)(nil)
