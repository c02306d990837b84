package app

import (
	"context"
	"log/slog"
	"os"

	s3blob "github.com/driesv/contrascan/internal/blob/s3"
	"github.com/driesv/contrascan/internal/config"
	"github.com/driesv/contrascan/internal/notify"
	"github.com/driesv/contrascan/internal/platform/polymarket"
)

// Dependencies bundles everything a scan run needs. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Clob     *polymarket.ClobClient
	Gamma    *polymarket.GammaClient
	Notifier *notify.Notifier

	// Archiver is nil when the run-report archive is not configured.
	Archiver *s3blob.RunArchiver
}

// Wire constructs all concrete dependencies from the given configuration and
// returns them together with a cleanup function to be called on shutdown. An
// unreachable archive backend downgrades to "no archive" rather than failing
// the run; only the notification fallback chain is unconditional.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func()) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Clob: polymarket.NewClobClient(polymarket.ClobConfig{
			BaseURL:           cfg.Polymarket.ClobHost,
			RequestTimeout:    cfg.Fetch.RequestTimeout.Duration,
			MidpointChunkSize: cfg.Fetch.MidpointChunkSize,
			ChunkDelay:        cfg.Fetch.ChunkDelay.Duration,
			MaxPages:          cfg.Fetch.MaxPages,
		}, logger),
		Gamma: polymarket.NewGammaClient(polymarket.GammaConfig{
			BaseURL:           cfg.Polymarket.GammaHost,
			RequestTimeout:    cfg.Fetch.RequestTimeout.Duration,
			MetadataChunkSize: cfg.Fetch.MetadataChunkSize,
			ChunkDelay:        cfg.Fetch.ChunkDelay.Duration,
		}, logger),
	}

	// --- Notification senders: remote channels when configured, console
	// fallback otherwise, so the run always has somewhere to report. ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) == 0 {
		logger.Info("no notification channel configured, reporting to stdout")
		senders = append(senders, notify.NewConsoleSender(os.Stdout))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Run-report archive (optional) ---
	if cfg.Archive.Enabled {
		client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.Archive.Endpoint,
			Region:         cfg.Archive.Region,
			Bucket:         cfg.Archive.Bucket,
			AccessKey:      cfg.Archive.AccessKey,
			SecretKey:      cfg.Archive.SecretKey,
			UseSSL:         cfg.Archive.UseSSL,
			ForcePathStyle: cfg.Archive.ForcePathStyle,
		})
		if err != nil {
			logger.Warn("archive backend unavailable, continuing without archive",
				slog.String("error", err.Error()),
			)
		} else {
			closers = append(closers, func() { _ = client.Close() })
			deps.Archiver = s3blob.NewRunArchiver(s3blob.NewWriter(client))
		}
	}

	return deps, cleanup
}
