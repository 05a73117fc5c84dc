package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ispot/internal/formatter"
	"github.com/desertthunder/ispot/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example configuration to --path or the XDG config location.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		var err error
		if path, err = shared.DefaultConfigFile(); err != nil {
			return fmt.Errorf("failed to resolve config location: %w", err)
		}
	}

	r.logger.Info("writing config template", "path", path)
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("%s\n", formatter.OK("✓ Config written to "+path))
	return r.writePlain("Set credentials.spotify.client_id and client_secret, or export SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET.\n")
}
