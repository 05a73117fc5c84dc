package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ispot/internal/formatter"
	"github.com/desertthunder/ispot/internal/shared"
	"github.com/desertthunder/ispot/internal/tasks"
	"github.com/urfave/cli/v3"
)

const (
	outputTable = "table"
	outputCSV   = "csv"
)

// SpotifyAuth only authenticates and reports success.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.authenticate(ctx, cmd); err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.OK("✓ Successfully authenticated to Spotify API"))
}

// SpotifyCreatePlaylist creates an empty playlist and prints it.
func (r *Runner) SpotifyCreatePlaylist(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}

	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	playlist, err := engine.CreatePlaylist(ctx, name, r.config.Playlist.Public)
	if err != nil {
		return err
	}

	r.logger.Info("created playlist", "id", playlist.ID, "name", playlist.Name)
	return r.writePlain("%s\n", formatter.PlaylistTable(*playlist))
}

// SpotifyListPlaylists prints every playlist of the current user.
func (r *Runner) SpotifyListPlaylists(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	playlists, err := engine.ListPlaylists(ctx, r.config.API.PageSize)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}
	return r.writePlain("%s\n", formatter.PlaylistsTable(playlists))
}

// SpotifyMatchTrack looks up one track by exact name, artist and album.
func (r *Runner) SpotifyMatchTrack(ctx context.Context, cmd *cli.Command) error {
	name, artist, album := cmd.StringArg("name"), cmd.StringArg("artist"), cmd.StringArg("album")
	if name == "" || artist == "" || album == "" {
		return fmt.Errorf("%w: name, artist and album are required", shared.ErrMissingArgument)
	}

	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	track, err := engine.Matcher().MatchTrack(ctx, name, artist, album)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.TrackDetail(*track))
}

// SpotifyMatchPlaylist matches a local playlist and, unless --print-only is set, creates the Spotify playlist.
func (r *Runner) SpotifyMatchPlaylist(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("playlist")
	if path == "" {
		return fmt.Errorf("%w: playlist path is required", shared.ErrMissingArgument)
	}

	printOnly := cmd.Bool("print-only")
	if printOnly && cmd.IsSet("playlist-name") {
		return fmt.Errorf("%w: --print-only cannot be used with --playlist-name", shared.ErrInvalidArgument)
	}

	output := cmd.String("output")
	if output != outputTable && output != outputCSV {
		return fmt.Errorf("%w: unknown output format %q", shared.ErrInvalidArgument, output)
	}

	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	opts := tasks.MatchOptions{
		Path:             path,
		CreateRemote:     !printOnly,
		RemoteName:       cmd.String("playlist-name"),
		ReportMismatches: !cmd.Bool("skip-mismatch-count"),
		NamePrefix:       r.config.Playlist.NamePrefix,
		Public:           r.config.Playlist.Public,
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	result, err := engine.MatchPlaylist(ctx, opts, progress)
	close(progress)
	<-done

	if result == nil || !reportable(err) {
		return err
	}

	if renderErr := r.renderResult(result, output, cmd.Bool("show-mismatches")); renderErr != nil {
		return renderErr
	}

	if exportPath := cmd.String("export"); exportPath != "" {
		written, exportErr := formatter.WriteCSVExport(result, exportPath)
		if exportErr != nil {
			return exportErr
		}
		r.logger.Info("exported report", "path", written)
	}

	if errors.Is(err, shared.ErrAppendFailure) {
		if output == outputCSV {
			r.logger.Warn("some tracks were not added", "error", err)
		} else if writeErr := r.writePlainln("%s", formatter.Warn("⚠ "+err.Error())); writeErr != nil {
			return writeErr
		}
	}
	return err
}

// reportable reports whether a run that ended with err still produced a result worth printing.
func reportable(err error) bool {
	return err == nil || errors.Is(err, shared.ErrNoMatches) || errors.Is(err, shared.ErrAppendFailure)
}

func (r *Runner) renderResult(result *tasks.ReconciliationResult, output string, showMismatches bool) error {
	if output == outputCSV {
		data, err := formatter.ExportToCSV(result)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	if err := r.writePlain("%s\n", formatter.TrackTable(result.Matched)); err != nil {
		return err
	}
	if showMismatches && len(result.Mismatches) > 0 {
		if err := r.writePlain("%s\n", formatter.MismatchTable(result.Mismatches)); err != nil {
			return err
		}
	}
	return r.writePlain("%s", formatter.Summary(result))
}
