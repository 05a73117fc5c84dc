package models

import "testing"

func TestDisplayTrack(t *testing.T) {
	tests := []struct {
		name   string
		track  DisplayTrack
		artist string
		album  string
		uri    string
	}{
		{
			name:   "local track has no uri",
			track:  LocalTrack{Name: "Song", Artist: "Band", Album: "Record"},
			artist: "Band",
			album:  "Record",
			uri:    "n/a",
		},
		{
			name:   "remote track joins artists",
			track:  RemoteTrack{Name: "Song", Artists: []string{"A", "B"}, Album: "Record", URI: "spotify:track:1"},
			artist: "A; B",
			album:  "Record",
			uri:    "spotify:track:1",
		},
		{
			name:   "remote track without artists",
			track:  RemoteTrack{Name: "Song", URI: "spotify:track:2"},
			artist: "",
			uri:    "spotify:track:2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.TrackName(); got != "Song" {
				t.Errorf("TrackName() = %q, want Song", got)
			}
			if got := tt.track.TrackArtist(); got != tt.artist {
				t.Errorf("TrackArtist() = %q, want %q", got, tt.artist)
			}
			if got := tt.track.TrackAlbum(); got != tt.album {
				t.Errorf("TrackAlbum() = %q, want %q", got, tt.album)
			}
			if got := tt.track.TrackURI(); got != tt.uri {
				t.Errorf("TrackURI() = %q, want %q", got, tt.uri)
			}
		})
	}
}
