// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

const version = "0.2.0"

// newApp builds the root command around r.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ispot",
		Usage:   "Convert an iTunes playlist to a Spotify playlist",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default: ./config.toml, then $XDG_CONFIG_HOME/ispot/config.toml)",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics for this run to a textfile",
			},
		},
		Before:   r.Setup,
		After:    r.Teardown,
		Commands: r.register(),
	}
}

// itunesCommand handles local iTunes exports
func itunesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "itunes",
		Usage: "Manage iTunes playlists",
		Commands: []*cli.Command{
			{
				Name:  "show-playlist",
				Usage: "Display an iTunes playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist", UsageText: "Path to iTunes playlist file"},
				},
				Action: r.ShowPlaylist,
			},
		},
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify commands",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "client-id",
				Usage:   "Spotify application client ID",
				Sources: cli.EnvVars("SPOTIFY_CLIENT_ID"),
			},
			&cli.StringFlag{
				Name:    "client-secret",
				Usage:   "Spotify application client secret",
				Sources: cli.EnvVars("SPOTIFY_CLIENT_SECRET"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Authenticate with the Spotify API",
				Action: r.SpotifyAuth,
			},
			{
				Name:  "create-playlist",
				Usage: "Create an empty Spotify playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name", UsageText: "Name of the Spotify playlist"},
				},
				Action: r.SpotifyCreatePlaylist,
			},
			{
				Name:  "list-playlists",
				Usage: "List Spotify playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.SpotifyListPlaylists,
			},
			{
				Name:  "match-track",
				Usage: "Match a track with Spotify",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name", UsageText: "Name of the track"},
					&cli.StringArg{Name: "artist", UsageText: "Name of the artist who appeared on the track"},
					&cli.StringArg{Name: "album", UsageText: "Name of the album the track appeared on"},
				},
				Action: r.SpotifyMatchTrack,
			},
			{
				Name:  "match-playlist",
				Usage: "Match an iTunes playlist with tracks on Spotify",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist", UsageText: "Path to iTunes playlist file"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "print-only",
						Usage: "Only print the matched playlist, don't create the Spotify playlist",
					},
					&cli.StringFlag{
						Name:  "playlist-name",
						Usage: "Name of the created Spotify playlist (generated when omitted)",
					},
					&cli.BoolFlag{
						Name:  "skip-mismatch-count",
						Usage: "Drop tracks with no or multiple results instead of counting them",
					},
					&cli.BoolFlag{
						Name:  "show-mismatches",
						Usage: "List tracks that did not match exactly",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output format: table or csv",
						Value:   outputTable,
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "Also write the CSV report to this file",
					},
				},
				Action: r.SpotifyMatchPlaylist,
			},
		},
	}
}

// configCommand handles configuration files
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Output path (default: $XDG_CONFIG_HOME/ispot/config.toml)",
					},
				},
				Action: r.ConfigInit,
			},
		},
	}
}
