package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CONTRASCAN_* environment variable overrides, and
// returns the final Config. A missing config file is not an error: the
// scanner is fully operable from defaults plus environment variables. The
// returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CONTRASCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject thresholds and secrets at deploy time
// without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "CONTRASCAN_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "CONTRASCAN_POLYMARKET_GAMMA_HOST")

	// ── Fetch ──
	setDuration(&cfg.Fetch.RequestTimeout, "CONTRASCAN_FETCH_REQUEST_TIMEOUT")
	setInt(&cfg.Fetch.MidpointChunkSize, "CONTRASCAN_FETCH_MIDPOINT_CHUNK_SIZE")
	setInt(&cfg.Fetch.MetadataChunkSize, "CONTRASCAN_FETCH_METADATA_CHUNK_SIZE")
	setDuration(&cfg.Fetch.ChunkDelay, "CONTRASCAN_FETCH_CHUNK_DELAY")
	setInt(&cfg.Fetch.MaxPages, "CONTRASCAN_FETCH_MAX_PAGES")

	// ── Screen ──
	setFloat64(&cfg.Screen.ThresholdHigh, "CONTRASCAN_THRESHOLD_HIGH")
	setFloat64(&cfg.Screen.ThresholdLow, "CONTRASCAN_THRESHOLD_LOW")
	setFloat64(&cfg.Screen.MinLiquidityUSD, "CONTRASCAN_MIN_LIQ_USD")
	setFloat64(&cfg.Screen.MinVolumeUSD, "CONTRASCAN_MIN_VOL_USD")
	setInt(&cfg.Screen.MaxAlerts, "CONTRASCAN_MAX_ALERTS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CONTRASCAN_TELEGRAM_BOT_TOKEN")
	setStr(&cfg.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN") // compatibility alias
	setStr(&cfg.Notify.TelegramChatID, "CONTRASCAN_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.TelegramChatID, "TELEGRAM_CHAT_ID") // compatibility alias
	setStr(&cfg.Notify.DiscordWebhookURL, "CONTRASCAN_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "CONTRASCAN_NOTIFY_EVENTS")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "CONTRASCAN_ARCHIVE_ENABLED")
	setStr(&cfg.Archive.Endpoint, "CONTRASCAN_ARCHIVE_ENDPOINT")
	setStr(&cfg.Archive.Region, "CONTRASCAN_ARCHIVE_REGION")
	setStr(&cfg.Archive.Bucket, "CONTRASCAN_ARCHIVE_BUCKET")
	setStr(&cfg.Archive.AccessKey, "CONTRASCAN_ARCHIVE_ACCESS_KEY")
	setStr(&cfg.Archive.SecretKey, "CONTRASCAN_ARCHIVE_SECRET_KEY")
	setBool(&cfg.Archive.UseSSL, "CONTRASCAN_ARCHIVE_USE_SSL")
	setBool(&cfg.Archive.ForcePathStyle, "CONTRASCAN_ARCHIVE_FORCE_PATH_STYLE")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "CONTRASCAN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
