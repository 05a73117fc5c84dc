package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

//go:embed config.example.toml
var exampleConf []byte

// AppName names the config directory under $XDG_CONFIG_HOME.
const AppName = "ispot"

// Authorization flows understood by [SpotifyConfig.Flow].
const (
	FlowAuthorizationCode = "authorization_code"
	FlowClientCredentials = "client_credentials"
	FlowAccessToken       = "access_token"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	API         APIConfig         `toml:"api"`
	Playlist    PlaylistConfig    `toml:"playlist"`
	Logging     LoggingConfig     `toml:"logging"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID           string `toml:"client_id"`
	ClientSecret       string `toml:"client_secret"`
	RedirectURI        string `toml:"redirect_uri"`
	Flow               string `toml:"flow"`
	AccessToken        string `toml:"access_token"`
	AuthTimeoutSeconds int    `toml:"auth_timeout_seconds"`
}

// AuthTimeout bounds the wait for the OAuth callback.
func (s SpotifyConfig) AuthTimeout() time.Duration {
	if s.AuthTimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(s.AuthTimeoutSeconds) * time.Second
}

// ServerConfig contains the loopback HTTP server settings for the OAuth callback.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// APIConfig contains Spotify Web API client settings.
type APIConfig struct {
	BaseURL           string      `toml:"base_url"`
	RequestsPerSecond float64     `toml:"requests_per_second"`
	TimeoutSeconds    int         `toml:"timeout_seconds"`
	PageSize          int         `toml:"page_size"`
	Retry             RetryConfig `toml:"retry"`
}

// Timeout is the per-request HTTP timeout. Zero means none.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// RetryConfig bounds rate-limit retries. Zero values disable the corresponding limit.
type RetryConfig struct {
	MaxAttempts              int `toml:"max_attempts"`
	MaxElapsedSeconds        int `toml:"max_elapsed_seconds"`
	DefaultRetryAfterSeconds int `toml:"default_retry_after_seconds"`
}

// PlaylistConfig contains defaults for playlists created on Spotify.
type PlaylistConfig struct {
	NamePrefix string `toml:"name_prefix"`
	Public     bool   `toml:"public"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks values that would otherwise fail late, mid-run.
func (c *Config) Validate() error {
	switch c.Credentials.Spotify.Flow {
	case FlowAuthorizationCode, FlowClientCredentials, FlowAccessToken:
	default:
		return fmt.Errorf("%w: unknown flow %q", ErrInvalidConfig, c.Credentials.Spotify.Flow)
	}

	if c.Credentials.Spotify.Flow == FlowAuthorizationCode {
		if _, err := url.Parse(c.Credentials.Spotify.RedirectURI); err != nil {
			return fmt.Errorf("%w: redirect_uri: %v", ErrInvalidConfig, err)
		}
	}

	if _, err := url.Parse(c.API.BaseURL); err != nil || c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url %q", ErrInvalidConfig, c.API.BaseURL)
	}

	if c.API.PageSize < 1 || c.API.PageSize > 50 {
		return fmt.Errorf("%w: api.page_size must be between 1 and 50, got %d", ErrInvalidConfig, c.API.PageSize)
	}

	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: api.requests_per_second must not be negative", ErrInvalidConfig)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveConfigPath picks the config file to load.
//
// An explicit path always wins, then ./config.toml, then $XDG_CONFIG_HOME/ispot/config.toml.
// Returns false when no candidate exists on disk.
func ResolveConfigPath(explicit string) (string, bool) {
	if explicit != "" {
		_, err := os.Stat(explicit)
		return explicit, err == nil
	}

	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml", true
	}

	if path, err := xdg.SearchConfigFile(filepath.Join(AppName, "config.toml")); err == nil {
		return path, true
	}

	return "", false
}

// DefaultConfigFile returns $XDG_CONFIG_HOME/ispot/config.toml, creating the directory.
func DefaultConfigFile() (string, error) {
	return xdg.ConfigFile(filepath.Join(AppName, "config.toml"))
}
