// package formatter renders matching results as plain text tables and CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/ispot/internal/models"
	"github.com/desertthunder/ispot/internal/tasks"
	"github.com/dustin/go-humanize"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderHeader(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header.PaddingRight(1)
			}
			return lipgloss.NewStyle().PaddingRight(1)
		})
}

// TrackTable renders one row per track with name, artist, album and Spotify URI.
func TrackTable[T models.DisplayTrack](tracks []T) string {
	t := newTable("Name", "Artist", "Album", "Spotify URI")
	for _, tr := range tracks {
		t.Row(tr.TrackName(), tr.TrackArtist(), tr.TrackAlbum(), tr.TrackURI())
	}
	return t.String()
}

// TrackDetail renders a single track as field/value rows.
func TrackDetail(tr models.DisplayTrack) string {
	return newTable("Field", "Value").
		Row("Name", tr.TrackName()).
		Row("Artist", tr.TrackArtist()).
		Row("Album", tr.TrackAlbum()).
		Row("Spotify URI", tr.TrackURI()).
		String()
}

// PlaylistTable renders a single remote playlist.
func PlaylistTable(p models.RemotePlaylist) string {
	return newTable("ID", "Name", "Spotify URI").
		Row(p.ID, p.Name, p.URI).
		String()
}

// PlaylistsTable renders the user's playlists.
func PlaylistsTable(playlists []models.PlaylistSummary) string {
	t := newTable("Name", "Owner", "Tracks", "Visibility", "Spotify URI")
	for _, p := range playlists {
		t.Row(p.Name, p.Owner, humanize.Comma(int64(p.TrackCount)), visibility(p.Public), p.URI)
	}
	return t.String()
}

// MismatchTable renders local tracks that did not resolve to a single catalog track.
func MismatchTable(mismatches []tasks.Mismatch) string {
	t := newTable("Name", "Artist", "Album", "Reason")
	for _, m := range mismatches {
		t.Row(m.Track.TrackName(), m.Track.TrackArtist(), m.Track.TrackAlbum(), reason(m.Outcome))
	}
	return t.String()
}

// Summary renders the final counts of a reconciliation run.
func Summary(result *tasks.ReconciliationResult) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "mismatched tracks: %s\n", humanize.Comma(int64(result.MismatchedCount)))
	fmt.Fprintf(&buf, "total tracks: %s\n", humanize.Comma(int64(result.TotalCount)))
	if result.Playlist != nil {
		fmt.Fprintf(&buf, "playlist: %s (%s)\n", result.Playlist.Name, result.Playlist.URI)
		fmt.Fprintf(&buf, "added tracks: %s\n", humanize.Comma(int64(len(result.Appended))))
	}
	if n := len(result.AppendFailures); n > 0 {
		fmt.Fprintf(&buf, "failed to add: %s\n", humanize.Comma(int64(n)))
	}
	return buf.String()
}

func visibility(public bool) string {
	if public {
		return "public"
	}
	return "private"
}

func reason(o tasks.SearchOutcome) string {
	switch o.Kind {
	case tasks.OutcomeAmbiguous:
		return fmt.Sprintf("%s results", humanize.Comma(int64(o.Count)))
	case tasks.OutcomeNoResults:
		return "no results"
	default:
		return o.Kind.String()
	}
}

// ExportToCSV converts a ReconciliationResult to CSV with columns: Status, Name, Artist, Album, URI, Detail.
//
// Matched tracks come first in playlist order, followed by mismatches and append failures.
func ExportToCSV(result *tasks.ReconciliationResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Status", "Name", "Artist", "Album", "URI", "Detail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	records := make([][]string, 0, len(result.Matched)+len(result.Mismatches)+len(result.AppendFailures))
	for _, track := range result.Matched {
		records = append(records, []string{"matched", track.TrackName(), track.TrackArtist(), track.TrackAlbum(), track.TrackURI(), ""})
	}
	for _, m := range result.Mismatches {
		detail := ""
		if m.Outcome.Kind == tasks.OutcomeAmbiguous {
			detail = strconv.Itoa(m.Outcome.Count)
		}
		records = append(records, []string{m.Outcome.Kind.String(), m.Track.TrackName(), m.Track.TrackArtist(), m.Track.TrackAlbum(), "", detail})
	}
	for _, f := range result.AppendFailures {
		records = append(records, []string{"append_failed", f.Track.TrackName(), f.Track.TrackArtist(), f.Track.TrackAlbum(), f.Track.TrackURI(), f.Err.Error()})
	}

	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteCSVExport writes the CSV export of result to path.
//
// Defaults to {run_id}_tracks.csv as the filename.
func WriteCSVExport(result *tasks.ReconciliationResult, path string) (string, error) {
	if path == "" {
		path = result.RunID + "_tracks.csv"
	}

	data, err := ExportToCSV(result)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}
