// Package auth obtains the bearer credential used by the Spotify client.
//
// Three flows are supported, selected by [Options.Flow]:
//   - authorization_code: loopback redirect, browser consent, code exchange via zmb3/spotify/v2/auth
//   - client_credentials: app-only token from golang.org/x/oauth2/clientcredentials
//   - access_token: a pre-issued token used as-is
//
// Credentials are never written to disk.
package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ispot/internal/server"
	"github.com/desertthunder/ispot/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultAuthTimeout = 2 * time.Minute

// Scopes requested by the authorization code flow.
var Scopes = []string{
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// Credential is an opaque bearer token with an optional expiry.
type Credential struct {
	AccessToken string
	TokenType   string
	Expiry      time.Time
}

// FromToken copies the fields ispot needs out of an oauth2 token.
func FromToken(t *oauth2.Token) *Credential {
	if t == nil {
		return nil
	}
	return &Credential{AccessToken: t.AccessToken, TokenType: t.TokenType, Expiry: t.Expiry}
}

// Header returns the Authorization header value.
func (c *Credential) Header() string {
	tokenType := c.TokenType
	if tokenType == "" || tokenType == "bearer" {
		tokenType = "Bearer"
	}
	return tokenType + " " + c.AccessToken
}

// Expired reports whether the credential has a known expiry before now.
func (c *Credential) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

// Options configures a [Provider].
type Options struct {
	Flow        string
	RedirectURI string
	ListenAddr  string
	AccessToken string
	AuthTimeout time.Duration
	// AuthURL and TokenURL override the Spotify accounts endpoints.
	AuthURL     string
	TokenURL    string
	HTTPClient  *http.Client
	Logger      *log.Logger
	Out         io.Writer
	OpenBrowser func(string) error
	// NewState generates the CSRF state for the authorization code flow.
	NewState func() (string, error)
}

// Provider acquires credentials for one command invocation.
type Provider struct {
	opts Options
}

// NewProvider fills in defaults and returns a provider.
func NewProvider(opts Options) *Provider {
	if opts.Flow == "" {
		opts.Flow = shared.FlowAuthorizationCode
	}
	if opts.RedirectURI == "" {
		opts.RedirectURI = "http://127.0.0.1:8080/callback"
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = defaultAuthTimeout
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyauth.AuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyauth.TokenURL
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.NewState == nil {
		opts.NewState = shared.GenerateState
	}
	return &Provider{opts: opts}
}

// NewProviderFromConfig maps the [credentials.spotify] and [server] tables onto [Options].
func NewProviderFromConfig(cfg *shared.Config, logger *log.Logger, out io.Writer) *Provider {
	return NewProvider(Options{
		Flow:        cfg.Credentials.Spotify.Flow,
		RedirectURI: cfg.Credentials.Spotify.RedirectURI,
		ListenAddr:  cfg.Server.Addr(),
		AccessToken: cfg.Credentials.Spotify.AccessToken,
		AuthTimeout: cfg.Credentials.Spotify.AuthTimeout(),
		Logger:      logger,
		Out:         out,
	})
}

// Authenticate obtains a credential for the application id and secret.
// Every failure wraps [shared.ErrAuthFailed] except missing input, which is [shared.ErrMissingCredentials].
func (p *Provider) Authenticate(ctx context.Context, clientID, clientSecret string) (*Credential, error) {
	if p.opts.Flow == shared.FlowAccessToken {
		if p.opts.AccessToken == "" {
			return nil, fmt.Errorf("%w: access_token flow needs credentials.spotify.access_token", shared.ErrMissingCredentials)
		}
		p.opts.Logger.Debug("using pre-issued access token")
		return &Credential{AccessToken: p.opts.AccessToken, TokenType: "Bearer"}, nil
	}

	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret must be set", shared.ErrMissingCredentials)
	}

	if p.opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.opts.HTTPClient)
	}

	var (
		token *oauth2.Token
		err   error
	)
	switch p.opts.Flow {
	case shared.FlowClientCredentials:
		token, err = p.clientCredentials(ctx, clientID, clientSecret)
	case shared.FlowAuthorizationCode:
		token, err = p.authorizationCode(ctx, clientID, clientSecret)
	default:
		return nil, fmt.Errorf("%w: unknown auth flow %q", shared.ErrInvalidConfig, p.opts.Flow)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	p.opts.Logger.Info("authenticated with spotify", "flow", p.opts.Flow, "expires", token.Expiry)
	return FromToken(token), nil
}

func (p *Provider) clientCredentials(ctx context.Context, clientID, clientSecret string) (*oauth2.Token, error) {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     p.opts.TokenURL,
	}
	return cfg.Token(ctx)
}

// codeFlow builds the consent URL and exchanges the returned code.
type codeFlow interface {
	server.Exchanger
	AuthURL(state string, opts ...oauth2.AuthCodeOption) string
}

// endpointFlow adapts a plain oauth2 config for non-Spotify accounts endpoints.
type endpointFlow struct {
	*oauth2.Config
}

func (f endpointFlow) AuthURL(state string, opts ...oauth2.AuthCodeOption) string {
	return f.AuthCodeURL(state, opts...)
}

func (p *Provider) codeFlow(clientID, clientSecret string) codeFlow {
	if p.opts.AuthURL == spotifyauth.AuthURL && p.opts.TokenURL == spotifyauth.TokenURL {
		return spotifyauth.New(
			spotifyauth.WithClientID(clientID),
			spotifyauth.WithClientSecret(clientSecret),
			spotifyauth.WithRedirectURL(p.opts.RedirectURI),
			spotifyauth.WithScopes(Scopes...),
		)
	}
	return endpointFlow{&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  p.opts.RedirectURI,
		Scopes:       Scopes,
		Endpoint:     oauth2.Endpoint{AuthURL: p.opts.AuthURL, TokenURL: p.opts.TokenURL},
	}}
}

// authorizationCode runs the loopback redirect flow and blocks until the callback, a serve error,
// the timeout or ctx cancellation.
func (p *Provider) authorizationCode(ctx context.Context, clientID, clientSecret string) (*oauth2.Token, error) {
	redirect, err := url.Parse(p.opts.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: redirect uri: %v", shared.ErrInvalidConfig, err)
	}

	state, err := p.opts.NewState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	flow := p.codeFlow(clientID, clientSecret)
	handler := server.NewOAuthHandler(exchangerFunc(func(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
		if p.opts.HTTPClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, p.opts.HTTPClient)
		}
		return flow.Exchange(ctx, code, opts...)
	}), state, redirect.Path)

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(p.opts.Logger))
	router.Handler(handler)

	addr := p.opts.ListenAddr
	if addr == "" {
		addr = redirect.Host
	}
	loopback, err := server.StartLoopback(addr, router, p.opts.Logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := loopback.Shutdown(context.Background()); err != nil {
			p.opts.Logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := flow.AuthURL(state)
	fmt.Fprintln(p.opts.Out, "→ Opening browser for Spotify authorization...")
	if err := p.opts.OpenBrowser(authURL); err != nil {
		p.opts.Logger.Warn("failed to open browser automatically", "error", err)
		fmt.Fprintln(p.opts.Out, "⚠ Could not open browser automatically.")
		fmt.Fprintf(p.opts.Out, "Please open this URL in your browser:\n%s\n\n", authURL)
	}
	fmt.Fprintf(p.opts.Out, "→ Waiting for authorization (%s timeout)...\n", p.opts.AuthTimeout)

	timeout := time.NewTimer(p.opts.AuthTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-loopback.Errors():
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, p.opts.AuthTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, result.Error()
	}
	return result.Token, nil
}

type exchangerFunc func(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

func (f exchangerFunc) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	return f(ctx, code, opts...)
}
