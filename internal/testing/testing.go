// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ispot/internal/services"
)

// SearchReply scripts the response of [MockCatalog.SearchTracks] for one query.
type SearchReply struct {
	Total  int
	Tracks []services.SpotifyTrack
	Err    error
}

// MockCatalog is a test double for [services.Catalog].
//
// Searches are answered from Replies keyed by the exact query string; unknown queries return zero results.
// Tracks whose URI is in FailAppend fail to be added.
type MockCatalog struct {
	mu sync.Mutex

	User       *services.SpotifyUser
	UserErr    error
	Replies    map[string]SearchReply
	CreateErr  error
	FailAppend map[string]error
	Playlists  []services.SpotifyPlaylist

	Queries   []string
	Created   []services.SpotifyPlaylist
	Appended  []string
	nextIndex int
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		User:       &services.SpotifyUser{ID: "mock-user", DisplayName: "Mock User"},
		Replies:    map[string]SearchReply{},
		FailAppend: map[string]error{},
	}
}

// Match scripts a unique hit for query.
func (m *MockCatalog) Match(query string, track services.SpotifyTrack) {
	m.Replies[query] = SearchReply{Total: 1, Tracks: []services.SpotifyTrack{track}}
}

func (m *MockCatalog) CurrentUser(ctx context.Context) (*services.SpotifyUser, error) {
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	return m.User, nil
}

func (m *MockCatalog) SearchTracks(ctx context.Context, query string, limit, offset int) (*services.Page[services.SpotifyTrack], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, query)
	reply := m.Replies[query]
	if reply.Err != nil {
		return nil, reply.Err
	}

	items := reply.Tracks
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return &services.Page[services.SpotifyTrack]{Items: items, Limit: limit, Offset: offset, Total: reply.Total}, nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, userID, name string, public bool, description string) (*services.SpotifyPlaylist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextIndex++
	p := services.SpotifyPlaylist{
		ID:          fmt.Sprintf("playlist-%d", m.nextIndex),
		Name:        name,
		Description: description,
		Public:      public,
		Owner:       services.Owner{ID: userID},
		URI:         fmt.Sprintf("spotify:playlist:playlist-%d", m.nextIndex),
	}
	m.Created = append(m.Created, p)
	return &p, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, uris ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, uri := range uris {
		if err, ok := m.FailAppend[uri]; ok {
			return "", err
		}
	}
	m.Appended = append(m.Appended, uris...)
	return fmt.Sprintf("snapshot-%d", len(m.Appended)), nil
}

func (m *MockCatalog) ListPlaylists(ctx context.Context, pageSize int) ([]services.SpotifyPlaylist, error) {
	return m.Playlists, nil
}

func (m *MockCatalog) Name() string { return "mock" }

var _ services.Catalog = (*MockCatalog)(nil)

// SleepRecorder replaces the backoff sleep and records each requested wait.
type SleepRecorder struct {
	mu     sync.Mutex
	Waits  []time.Duration
	clock  time.Time
	cancel context.CancelFunc
	after  int
}

// NewSleepRecorder starts a fake clock at start that advances by each recorded wait.
func NewSleepRecorder(start time.Time) *SleepRecorder {
	return &SleepRecorder{clock: start}
}

// CancelAfter calls cancel once n sleeps have been recorded.
func (s *SleepRecorder) CancelAfter(n int, cancel context.CancelFunc) {
	s.after = n
	s.cancel = cancel
}

func (s *SleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.Waits = append(s.Waits, d)
	s.clock = s.clock.Add(d)
	if s.cancel != nil && len(s.Waits) >= s.after {
		s.cancel()
	}
	s.mu.Unlock()
	return ctx.Err()
}

func (s *SleepRecorder) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// WriteFixture writes content to name under a fresh temp dir and returns the path.
func WriteFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := t.TempDir() + string(os.PathSeparator) + name
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}
	return path
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
