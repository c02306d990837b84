// Package config defines the configuration for the contrarian market scanner
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by CONTRASCAN_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Fetch      FetchConfig      `toml:"fetch"`
	Screen     ScreenConfig     `toml:"screen"`
	Notify     NotifyConfig     `toml:"notify"`
	Archive    ArchiveConfig    `toml:"archive"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds the Polymarket API endpoints.
type PolymarketConfig struct {
	ClobHost  string `toml:"clob_host"`
	GammaHost string `toml:"gamma_host"`
}

// FetchConfig holds request-shaping parameters for the data-acquisition
// clients: per-request timeout, identifier chunk sizes, the courtesy delay
// between successive chunked requests, and the pagination hard cap.
type FetchConfig struct {
	RequestTimeout    duration `toml:"request_timeout"`
	MidpointChunkSize int      `toml:"midpoint_chunk_size"`
	MetadataChunkSize int      `toml:"metadata_chunk_size"`
	ChunkDelay        duration `toml:"chunk_delay"`
	MaxPages          int      `toml:"max_pages"`
}

// ScreenConfig holds the screening thresholds and output bound.
type ScreenConfig struct {
	// ThresholdHigh/ThresholdLow bound the Yes midpoint band considered
	// extreme: p >= high fades to No, p <= low backs Yes.
	ThresholdHigh   float64 `toml:"threshold_high"`
	ThresholdLow    float64 `toml:"threshold_low"`
	MinLiquidityUSD float64 `toml:"min_liquidity_usd"`
	MinVolumeUSD    float64 `toml:"min_volume_usd"`
	MaxAlerts       int     `toml:"max_alerts"`
}

// NotifyConfig holds notification channel credentials. When no channel is
// configured the report falls back to standard output.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// ArchiveConfig holds S3-compatible object storage parameters for the
// optional per-run report archive.
type ArchiveConfig struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "10s", "150ms").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "10s" or "150ms".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the documented default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			ClobHost:  "https://clob.polymarket.com",
			GammaHost: "https://gamma-api.polymarket.com",
		},
		Fetch: FetchConfig{
			RequestTimeout:    duration{10 * time.Second},
			MidpointChunkSize: 80,
			MetadataChunkSize: 40,
			ChunkDelay:        duration{150 * time.Millisecond},
			MaxPages:          200,
		},
		Screen: ScreenConfig{
			ThresholdHigh:   0.85,
			ThresholdLow:    0.15,
			MinLiquidityUSD: 2500,
			MinVolumeUSD:    5000,
			MaxAlerts:       7,
		},
		Notify: NotifyConfig{
			Events: []string{"report", "empty", "error"},
		},
		Archive: ArchiveConfig{
			Enabled:        false,
			Region:         "us-east-1",
			UseSSL:         true,
			ForcePathStyle: false,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Endpoints
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}

	// Fetch
	if c.Fetch.RequestTimeout.Duration <= 0 {
		errs = append(errs, "fetch: request_timeout must be positive")
	}
	if c.Fetch.MidpointChunkSize < 1 {
		errs = append(errs, "fetch: midpoint_chunk_size must be >= 1")
	}
	if c.Fetch.MetadataChunkSize < 1 {
		errs = append(errs, "fetch: metadata_chunk_size must be >= 1")
	}
	if c.Fetch.ChunkDelay.Duration < 0 {
		errs = append(errs, "fetch: chunk_delay must not be negative")
	}
	if c.Fetch.MaxPages < 100 {
		errs = append(errs, fmt.Sprintf("fetch: max_pages must be >= 100, got %d", c.Fetch.MaxPages))
	}

	// Screen
	if c.Screen.ThresholdHigh <= 0 || c.Screen.ThresholdHigh >= 1 {
		errs = append(errs, fmt.Sprintf("screen: threshold_high must be in (0,1), got %g", c.Screen.ThresholdHigh))
	}
	if c.Screen.ThresholdLow <= 0 || c.Screen.ThresholdLow >= 1 {
		errs = append(errs, fmt.Sprintf("screen: threshold_low must be in (0,1), got %g", c.Screen.ThresholdLow))
	}
	if c.Screen.ThresholdLow >= c.Screen.ThresholdHigh {
		errs = append(errs, "screen: threshold_low must be below threshold_high")
	}
	if c.Screen.MinLiquidityUSD < 0 {
		errs = append(errs, "screen: min_liquidity_usd must not be negative")
	}
	if c.Screen.MinVolumeUSD < 0 {
		errs = append(errs, "screen: min_volume_usd must not be negative")
	}
	if c.Screen.MaxAlerts < 1 {
		errs = append(errs, "screen: max_alerts must be >= 1")
	}

	// Notify — Telegram credentials must be set together, or both empty.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	// Archive
	if c.Archive.Enabled {
		if c.Archive.Bucket == "" {
			errs = append(errs, "archive: bucket must not be empty when enabled")
		}
		if c.Archive.Region == "" {
			errs = append(errs, "archive: region must not be empty when enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
