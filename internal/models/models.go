package models

import "strings"

// DisplayTrack is the read-only view of a track used for tabular output.
type DisplayTrack interface {
	TrackName() string
	TrackArtist() string
	TrackAlbum() string // empty when unknown
	TrackURI() string
}

// LocalTrack is a track read from an iTunes playlist export.
type LocalTrack struct {
	ID     string
	Name   string
	Artist string
	Album  string // optional
	Year   int    // optional, 0 when absent
	Genre  string // optional
}

func (t LocalTrack) TrackName() string   { return t.Name }
func (t LocalTrack) TrackArtist() string { return t.Artist }
func (t LocalTrack) TrackAlbum() string  { return t.Album }

// TrackURI is always "n/a"; local tracks have no Spotify URI.
func (t LocalTrack) TrackURI() string { return "n/a" }

// RemoteTrack is a read-only projection of a Spotify catalog track.
type RemoteTrack struct {
	ID      string
	Name    string
	Artists []string
	Album   string
	URI     string
}

func (t RemoteTrack) TrackName() string { return t.Name }

// TrackArtist joins the credited artists with "; ".
func (t RemoteTrack) TrackArtist() string { return strings.Join(t.Artists, "; ") }

func (t RemoteTrack) TrackAlbum() string { return t.Album }
func (t RemoteTrack) TrackURI() string   { return t.URI }

// RemotePlaylist is a playlist created on Spotify.
type RemotePlaylist struct {
	ID   string
	Name string
	URI  string
}

// PlaylistSummary is one row of the current user's playlist listing.
type PlaylistSummary struct {
	ID         string
	Name       string
	URI        string
	Owner      string
	TrackCount int
	Public     bool
}

var (
	_ DisplayTrack = LocalTrack{}
	_ DisplayTrack = RemoteTrack{}
)
