// Package config loads axol's ambient process configuration — storage
// root, log level, per-provider rate limits, and provider credentials —
// from environment variables under the AXOL_* prefix. Env binding goes
// through viper rather than raw os.Getenv, so a future axol.yaml/axol.toml
// can be dropped in without touching this file's call sites. It is
// deliberately separate from the user configuration contract
// (internal/userconfig), which declares *what* feeds exist; this package
// only configures the process running them.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/karlicoss/axol/internal/credstore"
)

// Config is axol's process-wide configuration, injected once at program
// entry rather than read piecemeal from global state.
type Config struct {
	StorageDir  string
	LogLevel    string
	RateLimits  RateLimitsConfig
	Credentials CredentialsConfig
}

// RateLimitsConfig carries one steady-state rate (requests/sec) per
// provider PREFIX, fed into provider.Limiters.For at adapter construction.
type RateLimitsConfig struct {
	HackerNewsPerSecond float64
	RedditPerSecond     float64
	GitHubPerSecond     float64
	LobstersPerSecond   float64
	PinboardPerSecond   float64
}

// CredentialsConfig holds the opaque provider credentials axol needs:
// GitHub personal access token, Reddit API credentials. The core never
// interprets these; it only passes them through to provider constructors.
type CredentialsConfig struct {
	GitHubToken        string
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	RedditUserAgent    string
}

// newViper builds a viper instance bound to the AXOL_ environment namespace,
// with one registered default per key so Get/GetFloat64 never has to guess
// a zero value for an unset variable.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("axol")
	v.AutomaticEnv()

	v.SetDefault("storage_dir", "./axol-data")
	v.SetDefault("log_level", "info")
	v.SetDefault("hackernews_rps", 2.0)
	v.SetDefault("reddit_rps", 1.0)
	v.SetDefault("github_rps", 1.0)
	v.SetDefault("lobsters_rps", 0.5)
	v.SetDefault("pinboard_rps", 0.2)
	v.SetDefault("github_token", "")
	v.SetDefault("github_token_encrypted", "")
	v.SetDefault("reddit_client_id", "")
	v.SetDefault("reddit_client_secret", "")
	v.SetDefault("reddit_client_secret_encrypted", "")
	v.SetDefault("reddit_username", "")
	v.SetDefault("reddit_password", "")
	v.SetDefault("reddit_password_encrypted", "")
	v.SetDefault("reddit_user_agent", "axol/1.0")
	return v
}

// loadCredential returns the value of the AXOL_<encryptedKey> variable
// decrypted via credstore, if set, else the plaintext AXOL_<plainKey>
// variable. This is the opt-in path: a deployment that wants credentials
// encrypted at rest (under AXOL_ENCRYPTION_KEY) sets the "_encrypted"
// variable with the base64 ciphertext credstore.Encrypt produces instead of
// the plaintext one.
func loadCredential(v *viper.Viper, plainKey, encryptedKey string) (string, error) {
	if enc := v.GetString(encryptedKey); enc != "" {
		plain, err := credstore.Decrypt(enc)
		if err != nil {
			return "", fmt.Errorf("decrypt %s: %w", encryptedKey, err)
		}
		return plain, nil
	}
	return v.GetString(plainKey), nil
}

// Load reads and validates configuration from AXOL_* environment variables.
// GitHubToken, RedditClientSecret and RedditPassword each accept either the
// plaintext variable or an AXOL_*_ENCRYPTED counterpart holding ciphertext
// produced by credstore.Encrypt (decrypted here using AXOL_ENCRYPTION_KEY);
// the encrypted form takes precedence when both are set.
func Load() (*Config, error) {
	v := newViper()

	githubToken, err := loadCredential(v, "github_token", "github_token_encrypted")
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	redditClientSecret, err := loadCredential(v, "reddit_client_secret", "reddit_client_secret_encrypted")
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	redditPassword, err := loadCredential(v, "reddit_password", "reddit_password_encrypted")
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{
		StorageDir: v.GetString("storage_dir"),
		LogLevel:   v.GetString("log_level"),
		RateLimits: RateLimitsConfig{
			HackerNewsPerSecond: v.GetFloat64("hackernews_rps"),
			RedditPerSecond:     v.GetFloat64("reddit_rps"),
			GitHubPerSecond:     v.GetFloat64("github_rps"),
			LobstersPerSecond:   v.GetFloat64("lobsters_rps"),
			PinboardPerSecond:   v.GetFloat64("pinboard_rps"),
		},
		Credentials: CredentialsConfig{
			GitHubToken:        githubToken,
			RedditClientID:     v.GetString("reddit_client_id"),
			RedditClientSecret: redditClientSecret,
			RedditUsername:     v.GetString("reddit_username"),
			RedditPassword:     redditPassword,
			RedditUserAgent:    v.GetString("reddit_user_agent"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks the parts of Config that aren't self-evidently valid from
// their env-var parse. Credentials are validated lazily, per-provider, only
// when that provider is actually used — axol has no single "required
// credentials" set.
func (c *Config) Validate() error {
	if c.StorageDir == "" {
		return fmt.Errorf("AXOL_STORAGE_DIR is required")
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("AXOL_LOG_LEVEL must be one of [debug, info, warn, error], got %q", c.LogLevel)
	}
	for name, rps := range map[string]float64{
		"AXOL_HACKERNEWS_RPS": c.RateLimits.HackerNewsPerSecond,
		"AXOL_REDDIT_RPS":     c.RateLimits.RedditPerSecond,
		"AXOL_GITHUB_RPS":     c.RateLimits.GitHubPerSecond,
		"AXOL_LOBSTERS_RPS":   c.RateLimits.LobstersPerSecond,
		"AXOL_PINBOARD_RPS":   c.RateLimits.PinboardPerSecond,
	} {
		if rps <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, rps)
		}
	}
	return nil
}
