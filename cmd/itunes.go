package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ispot/internal/formatter"
	"github.com/desertthunder/ispot/internal/shared"
	"github.com/urfave/cli/v3"
)

// ShowPlaylist prints the tracks of a local iTunes export in playlist order.
func (r *Runner) ShowPlaylist(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("playlist")
	if path == "" {
		return fmt.Errorf("%w: playlist path is required", shared.ErrMissingArgument)
	}

	playlist, err := r.source.LoadPlaylist(path)
	if err != nil {
		return err
	}

	r.logger.Debug("loaded playlist", "path", path, "tracks", playlist.Len())
	return r.writePlain("%s\n", formatter.TrackTable(playlist.Tracks))
}
