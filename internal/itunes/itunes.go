// Package itunes reads playlists exported from iTunes or Music.app ("File > Library > Export Playlist...").
//
// Exports are property lists (XML or binary). Only the fields needed for matching are decoded.
package itunes

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/desertthunder/ispot/internal/models"
	"github.com/desertthunder/ispot/internal/shared"
	"howett.net/plist"
)

// Playlist is a decoded export with its tracks in playlist order.
type Playlist struct {
	Name         string
	MajorVersion int
	MusicFolder  string
	Tracks       []models.LocalTrack
}

// Len returns the number of distinct tracks in the export.
func (p *Playlist) Len() int {
	return len(p.Tracks)
}

type exportFile struct {
	MajorVersion int                    `plist:"Major Version"`
	MusicFolder  string                 `plist:"Music Folder"`
	Tracks       map[string]exportTrack `plist:"Tracks"`
	Playlists    []exportPlaylist       `plist:"Playlists"`
}

type exportTrack struct {
	Name   string `plist:"Name"`
	Artist string `plist:"Artist"`
	Album  string `plist:"Album"`
	Year   int    `plist:"Year"`
	Genre  string `plist:"Genre"`
}

type exportPlaylist struct {
	Name  string       `plist:"Name"`
	Items []exportItem `plist:"Playlist Items"`
}

type exportItem struct {
	TrackID int `plist:"Track ID"`
}

// Loader implements the local playlist source for the matching workflow.
type Loader struct{}

// LoadPlaylist delegates to the package-level [LoadPlaylist].
func (Loader) LoadPlaylist(path string) (*Playlist, error) {
	return LoadPlaylist(path)
}

// LoadPlaylist reads and decodes the export at path.
//
// Errors wrap [shared.ErrFileNotFound], [shared.ErrNotAFile] or [shared.ErrParse].
func LoadPlaylist(path string) (*Playlist, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat playlist: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotAFile, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	return Parse(data)
}

// Parse decodes an export held in memory.
func Parse(data []byte) (*Playlist, error) {
	var f exportFile
	if _, err := plist.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrParse, err)
	}

	for id, t := range f.Tracks {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: track %s has no name", shared.ErrParse, id)
		}
	}

	p := &Playlist{
		MajorVersion: f.MajorVersion,
		MusicFolder:  f.MusicFolder,
	}
	if len(f.Playlists) > 0 {
		p.Name = f.Playlists[0].Name
	}

	for _, id := range trackOrder(f) {
		t := f.Tracks[id]
		p.Tracks = append(p.Tracks, models.LocalTrack{
			ID:     id,
			Name:   t.Name,
			Artist: t.Artist,
			Album:  t.Album,
			Year:   t.Year,
			Genre:  t.Genre,
		})
	}

	return p, nil
}

// trackOrder lists every track id once: first in the order of the first playlist's items,
// then any remaining ids ascending.
func trackOrder(f exportFile) []string {
	order := make([]string, 0, len(f.Tracks))
	seen := make(map[string]bool, len(f.Tracks))

	if len(f.Playlists) > 0 {
		for _, item := range f.Playlists[0].Items {
			id := strconv.Itoa(item.TrackID)
			if _, ok := f.Tracks[id]; !ok || seen[id] {
				continue
			}
			seen[id] = true
			order = append(order, id)
		}
	}

	rest := make([]string, 0, len(f.Tracks)-len(order))
	for id := range f.Tracks {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return lessID(rest[i], rest[j]) })

	return append(order, rest...)
}

// lessID orders numeric ids numerically and puts them before non-numeric ids.
func lessID(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return ai < bi
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}
