package itunes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/ispot/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportHeader = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Major Version</key><integer>1</integer>
	<key>Minor Version</key><integer>1</integer>
	<key>Music Folder</key><string>file:///Users/me/Music/iTunes/iTunes%20Media/</string>
`

const sampleExport = exportHeader + `	<key>Tracks</key>
	<dict>
		<key>1021</key>
		<dict>
			<key>Track ID</key><integer>1021</integer>
			<key>Name</key><string>Bohemian Rhapsody</string>
			<key>Artist</key><string>Queen</string>
			<key>Album</key><string>A Night at the Opera</string>
			<key>Genre</key><string>Rock</string>
			<key>Year</key><integer>1975</integer>
			<key>Total Time</key><integer>354000</integer>
		</dict>
		<key>87</key>
		<dict>
			<key>Track ID</key><integer>87</integer>
			<key>Name</key><string>Windowlicker</string>
			<key>Artist</key><string>Aphex Twin</string>
		</dict>
		<key>300</key>
		<dict>
			<key>Track ID</key><integer>300</integer>
			<key>Name</key><string>Teardrop</string>
			<key>Artist</key><string>Massive Attack</string>
			<key>Album</key><string>Mezzanine</string>
		</dict>
	</dict>
	<key>Playlists</key>
	<array>
		<dict>
			<key>Name</key><string>Road Trip</string>
			<key>Playlist Items</key>
			<array>
				<dict><key>Track ID</key><integer>300</integer></dict>
				<dict><key>Track ID</key><integer>1021</integer></dict>
				<dict><key>Track ID</key><integer>300</integer></dict>
				<dict><key>Track ID</key><integer>9999</integer></dict>
			</array>
		</dict>
	</array>
</dict>
</plist>
`

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playlist.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPlaylist(t *testing.T) {
	t.Run("decodes tracks in playlist order", func(t *testing.T) {
		p, err := LoadPlaylist(writeExport(t, sampleExport))
		require.NoError(t, err)

		assert.Equal(t, "Road Trip", p.Name)
		assert.Equal(t, 1, p.MajorVersion)
		assert.Equal(t, "file:///Users/me/Music/iTunes/iTunes%20Media/", p.MusicFolder)
		require.Equal(t, 3, p.Len())

		ids := []string{p.Tracks[0].ID, p.Tracks[1].ID, p.Tracks[2].ID}
		assert.Equal(t, []string{"300", "1021", "87"}, ids, "playlist items first, then leftovers ascending")

		queen := p.Tracks[1]
		assert.Equal(t, "Bohemian Rhapsody", queen.Name)
		assert.Equal(t, "Queen", queen.Artist)
		assert.Equal(t, "A Night at the Opera", queen.Album)
		assert.Equal(t, 1975, queen.Year)
		assert.Equal(t, "Rock", queen.Genre)

		assert.Empty(t, p.Tracks[2].Album)
	})

	t.Run("without playlists sorts ids numerically", func(t *testing.T) {
		content := exportHeader + `	<key>Tracks</key>
	<dict>
		<key>100</key><dict><key>Name</key><string>C</string><key>Artist</key><string>x</string></dict>
		<key>20</key><dict><key>Name</key><string>B</string><key>Artist</key><string>x</string></dict>
		<key>3</key><dict><key>Name</key><string>A</string><key>Artist</key><string>x</string></dict>
	</dict>
</dict>
</plist>
`
		p, err := LoadPlaylist(writeExport(t, content))
		require.NoError(t, err)
		require.Equal(t, 3, p.Len())
		assert.Equal(t, "A", p.Tracks[0].Name)
		assert.Equal(t, "B", p.Tracks[1].Name)
		assert.Equal(t, "C", p.Tracks[2].Name)
	})

	t.Run("empty export", func(t *testing.T) {
		p, err := LoadPlaylist(writeExport(t, exportHeader+"</dict>\n</plist>\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, p.Len())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPlaylist(filepath.Join(t.TempDir(), "nope.xml"))
		assert.ErrorIs(t, err, shared.ErrFileNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := LoadPlaylist(t.TempDir())
		assert.ErrorIs(t, err, shared.ErrNotAFile)
	})

	t.Run("truncated xml", func(t *testing.T) {
		_, err := LoadPlaylist(writeExport(t, exportHeader+"	<key>Tracks</key>\n	<dict>\n"))
		assert.ErrorIs(t, err, shared.ErrParse)
	})

	t.Run("track without name", func(t *testing.T) {
		content := exportHeader + `	<key>Tracks</key>
	<dict>
		<key>1</key><dict><key>Artist</key><string>Nobody</string></dict>
	</dict>
</dict>
</plist>
`
		_, err := LoadPlaylist(writeExport(t, content))
		assert.ErrorIs(t, err, shared.ErrParse)
	})

	t.Run("Loader satisfies the source contract", func(t *testing.T) {
		p, err := Loader{}.LoadPlaylist(writeExport(t, sampleExport))
		require.NoError(t, err)
		assert.Equal(t, 3, p.Len())
	})
}

func TestLessID(t *testing.T) {
	assert.True(t, lessID("9", "10"))
	assert.False(t, lessID("10", "9"))
	assert.True(t, lessID("10", "abc"))
	assert.False(t, lessID("abc", "10"))
	assert.True(t, lessID("abc", "abd"))
}
