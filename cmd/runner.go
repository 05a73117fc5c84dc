package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ispot/internal/auth"
	"github.com/desertthunder/ispot/internal/itunes"
	"github.com/desertthunder/ispot/internal/metrics"
	"github.com/desertthunder/ispot/internal/services"
	"github.com/desertthunder/ispot/internal/shared"
	"github.com/desertthunder/ispot/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Authenticator acquires the Spotify credential for a command.
type Authenticator interface {
	Authenticate(ctx context.Context, clientID, clientSecret string) (*auth.Credential, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	metrics    *metrics.Metrics
	source     tasks.PlaylistSource
	authn      Authenticator
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from disk before the first command runs.
// A nil Authenticator is built from the loaded config.
type RunnerOpts struct {
	Config        *shared.Config
	HTTPClient    *http.Client
	Logger        *log.Logger
	Output        io.Writer
	Metrics       *metrics.Metrics
	Source        tasks.PlaylistSource
	Authenticator Authenticator
	Now           func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Source == nil {
		opts.Source = itunes.Loader{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		metrics:    opts.Metrics,
		source:     opts.Source,
		authn:      opts.Authenticator,
		now:        opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		itunesCommand, spotifyCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Setup loads the configuration and applies the log level before any action runs.
//
// A missing config file is not an error unless --config names it explicitly.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	explicit := cmd.String("config")

	if r.config == nil {
		path, found := shared.ResolveConfigPath(explicit)
		switch {
		case found:
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
			r.logger.Debug("loaded config", "path", path)
		case explicit != "":
			return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, explicit)
		default:
			r.config = shared.DefaultConfig()
			r.logger.Debug("no config file found, using defaults")
		}
	}

	shared.ConfigureLogger(r.logger, r.config.Logging.Level, cmd.Bool("debug"))
	return ctx, nil
}

// Teardown records the run and writes the metrics textfile when --metrics-file is set.
func (r *Runner) Teardown(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("metrics-file")
	if path == "" {
		return nil
	}

	r.metrics.MarkRun(r.now())
	if err := r.metrics.WriteFile(path); err != nil {
		return err
	}
	r.logger.Debug("wrote metrics", "path", path)
	return nil
}

func (r *Runner) authenticator() Authenticator {
	if r.authn == nil {
		r.authn = auth.NewProviderFromConfig(r.config, r.logger, r.output)
	}
	return r.authn
}

// authenticate resolves the client credentials (flags and env first, then config) and acquires a token.
func (r *Runner) authenticate(ctx context.Context, cmd *cli.Command) (*auth.Credential, error) {
	clientID := cmd.String("client-id")
	if clientID == "" {
		clientID = r.config.Credentials.Spotify.ClientID
	}
	clientSecret := cmd.String("client-secret")
	if clientSecret == "" {
		clientSecret = r.config.Credentials.Spotify.ClientSecret
	}

	return r.authenticator().Authenticate(ctx, clientID, clientSecret)
}

// spotifyService authenticates and builds the API client for one command.
func (r *Runner) spotifyService(ctx context.Context, cmd *cli.Command) (*services.SpotifyService, error) {
	credential, err := r.authenticate(ctx, cmd)
	if err != nil {
		return nil, err
	}

	client := r.httpClient
	if client == nil {
		client = &http.Client{Timeout: r.config.API.Timeout()}
	}

	return services.NewSpotifyService(services.SpotifyOptions{
		BaseURL:           r.config.API.BaseURL,
		HTTPClient:        client,
		Credential:        credential,
		Retry:             services.PolicyFromConfig(r.config.API.Retry),
		RequestsPerSecond: r.config.API.RequestsPerSecond,
		Logger:            r.logger,
		Metrics:           r.metrics,
	})
}

// engine wires a playlist engine around an authenticated Spotify client.
func (r *Runner) engine(ctx context.Context, cmd *cli.Command) (*tasks.PlaylistEngine, error) {
	svc, err := r.spotifyService(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return tasks.NewPlaylistEngine(svc, r.source, r.logger, r.metrics).WithClock(r.now), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
