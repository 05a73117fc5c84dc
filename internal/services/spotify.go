// Spotify Web API client
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ispot/internal/auth"
	"github.com/desertthunder/ispot/internal/metrics"
	"github.com/desertthunder/ispot/internal/models"
	"github.com/desertthunder/ispot/internal/shared"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL  = "https://api.spotify.com/v1"
	defaultPageSize = 20
	maxPageSize     = 50
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	URI         string `json:"uri"`
}

// SpotifyArtist is the simplified artist object embedded in tracks.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum is the simplified album object embedded in tracks.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// RemoteTrack projects the API object onto the display model.
func (t SpotifyTrack) RemoteTrack() models.RemoteTrack {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return models.RemoteTrack{
		ID:      t.ID,
		Name:    t.Name,
		Artists: artists,
		Album:   t.Album.Name,
		URI:     t.URI,
	}
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

// SpotifyPlaylist is the playlist object returned by list and create endpoints.
type SpotifyPlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Owner       Owner             `json:"owner"`
	Public      bool              `json:"public"`
	Tracks      playlistTracksRef `json:"tracks"`
	URI         string            `json:"uri"`
}

// RemotePlaylist projects the API object onto the display model.
func (p SpotifyPlaylist) RemotePlaylist() models.RemotePlaylist {
	return models.RemotePlaylist{ID: p.ID, Name: p.Name, URI: p.URI}
}

// Summary projects the API object onto the listing model.
func (p SpotifyPlaylist) Summary() models.PlaylistSummary {
	owner := p.Owner.DisplayName
	if owner == "" {
		owner = p.Owner.ID
	}
	return models.PlaylistSummary{
		ID:         p.ID,
		Name:       p.Name,
		URI:        p.URI,
		Owner:      owner,
		TrackCount: p.Tracks.Total,
		Public:     p.Public,
	}
}

type searchResponse struct {
	Tracks Page[SpotifyTrack] `json:"tracks"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Public      bool   `json:"public"`
	Description string `json:"description,omitempty"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

type errorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyOptions configures a [SpotifyService]. Zero values fall back to defaults.
type SpotifyOptions struct {
	BaseURL           string
	HTTPClient        *http.Client
	Credential        *auth.Credential
	Retry             RetryPolicy
	RequestsPerSecond float64
	Logger            *log.Logger
	Metrics           *metrics.Metrics
	Sleep             func(context.Context, time.Duration) error
	Now               func() time.Time
}

// SpotifyService is a rate limited Spotify Web API client bound to a single credential.
//
// Every remote operation goes through [Call], so rate limits are retried according to the
// configured [RetryPolicy] and other failures surface as typed errors.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	credential *auth.Credential
	retry      RetryPolicy
	limiter    *rate.Limiter
	logger     *log.Logger
	metrics    *metrics.Metrics
	sleep      func(context.Context, time.Duration) error
	now        func() time.Time
}

// NewSpotifyService creates a client. A credential with an access token is required.
func NewSpotifyService(opts SpotifyOptions) (*SpotifyService, error) {
	if opts.Credential == nil || opts.Credential.AccessToken == "" {
		return nil, fmt.Errorf("%w: spotify access token", shared.ErrMissingCredentials)
	}

	s := &SpotifyService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		credential: opts.Credential,
		retry:      opts.Retry,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		sleep:      opts.Sleep,
		now:        opts.Now,
	}

	if s.baseURL == "" {
		s.baseURL = spotifyBaseURL
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if s.retry.DefaultRetryAfter <= 0 {
		s.retry.DefaultRetryAfter = DefaultRetryAfter
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.credential.Expired(s.now()) {
		s.logger.Warn("spotify access token has already expired", "expiry", s.credential.Expiry)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	s.limiter = rate.NewLimiter(limit, 1)

	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Credential returns the bearer credential this client was built with.
func (s *SpotifyService) Credential() *auth.Credential {
	return s.credential
}

// doRequest performs a single authenticated request and classifies the response.
//
// 401 becomes [shared.ErrUnauthorized], 429 becomes a [*RateLimitError], and every other
// non-2xx status or transport failure becomes a [*TransportError].
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &TransportError{Method: method, Endpoint: endpoint, Err: err}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Method: method, Endpoint: endpoint, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return &TransportError{Method: method, Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Authorization", s.credential.Header())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("spotify request", "method", method, "endpoint", endpoint)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s %s: %s", shared.ErrUnauthorized, method, endpoint, apiMessage(respBody))
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header, s.now(), s.retry.DefaultRetryAfter)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &TransportError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Message: apiMessage(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &TransportError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return nil
}

func apiMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// CurrentUser retrieves the profile of the user that owns the credential.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	return Call(ctx, s, "current_user", func(ctx context.Context) (*SpotifyUser, error) {
		var user SpotifyUser
		if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
			return nil, err
		}
		return &user, nil
	})
}

// SearchTracks runs a catalog search restricted to tracks.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit, offset int) (*Page[SpotifyTrack], error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", fmt.Sprint(clampLimit(limit)))
	params.Set("offset", fmt.Sprint(offset))
	endpoint := "/search?" + params.Encode()

	return Call(ctx, s, "search", func(ctx context.Context) (*Page[SpotifyTrack], error) {
		var response searchResponse
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}
		return &response.Tracks, nil
	})
}

// CreatePlaylist creates a playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name string, public bool, description string) (*SpotifyPlaylist, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	body := createPlaylistRequest{Name: name, Public: public, Description: description}

	return Call(ctx, s, "create_playlist", func(ctx context.Context) (*SpotifyPlaylist, error) {
		var playlist SpotifyPlaylist
		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
			return nil, err
		}
		return &playlist, nil
	})
}

// AddTracks appends uris to the end of a playlist and returns the new snapshot id.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris ...string) (string, error) {
	if len(uris) == 0 {
		return "", fmt.Errorf("%w: no track uris", shared.ErrMissingArgument)
	}
	if len(uris) > 100 {
		return "", fmt.Errorf("%w: at most 100 uris per request", shared.ErrInvalidArgument)
	}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := addTracksRequest{URIs: uris}

	return Call(ctx, s, "add_tracks", func(ctx context.Context) (string, error) {
		var response snapshotResponse
		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &response); err != nil {
			return "", err
		}
		return response.SnapshotID, nil
	})
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*Page[SpotifyPlaylist], error) {
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", clampLimit(limit), offset)

	return Call(ctx, s, "user_playlists", func(ctx context.Context) (*Page[SpotifyPlaylist], error) {
		var response Page[SpotifyPlaylist]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}
		return &response, nil
	})
}

// ListPlaylists retrieves every playlist of the current user.
func (s *SpotifyService) ListPlaylists(ctx context.Context, pageSize int) ([]SpotifyPlaylist, error) {
	return Paginate[SpotifyPlaylist](ctx, clampLimit(pageSize), s.UserPlaylists)
}
