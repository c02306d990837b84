// Package app owns the lifecycle of one scan run: it wires dependencies,
// executes the sequential fetch → screen → format → notify pipeline, and
// reports any top-level failure through the notification path instead of
// crashing.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	s3blob "github.com/driesv/contrascan/internal/blob/s3"
	"github.com/driesv/contrascan/internal/config"
	"github.com/driesv/contrascan/internal/domain"
	"github.com/driesv/contrascan/internal/notify"
	"github.com/driesv/contrascan/internal/report"
	"github.com/driesv/contrascan/internal/screener"
)

// App is the root application object for a single scan invocation.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run executes one scan. It never lets a failure escape: an error or panic
// anywhere in the pipeline is rendered as a diagnostic, delivered through
// the same notification path as a normal report, and swallowed so the
// process can exit cleanly.
func (a *App) Run(ctx context.Context) {
	deps, cleanup := Wire(ctx, a.cfg, a.logger)
	defer cleanup()

	defer func() {
		if r := recover(); r != nil {
			a.reportFailure(ctx, deps.Notifier, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := a.scan(ctx, deps); err != nil {
		a.reportFailure(ctx, deps.Notifier, err)
	}
}

// scan runs the pipeline: listing → midpoints + metadata → screening →
// formatting → notification → optional archive. Each fetch stage degrades to
// partial data on its own; the only errors that reach here are contextual
// (cancellation) or from the construction of the run itself.
func (a *App) scan(ctx context.Context, deps *Dependencies) error {
	runID := uuid.NewString()
	startedAt := time.Now().UTC()
	logger := a.logger.With(slog.String("run_id", runID))

	logger.InfoContext(ctx, "scan starting",
		slog.Float64("threshold_high", a.cfg.Screen.ThresholdHigh),
		slog.Float64("threshold_low", a.cfg.Screen.ThresholdLow),
	)

	// 1. Active market listing.
	markets := deps.Clob.ListActiveMarkets(ctx)
	logger.InfoContext(ctx, "listing complete", slog.Int("active_markets", len(markets)))

	// 2. Midpoints and metadata, keyed off the listing. Both are
	// best-effort; missing entries fall out during screening.
	var (
		midpoints = map[string]float64{}
		metadata  = map[string]domain.MarketMetadata{}
	)
	if len(markets) > 0 {
		tokenIDs, marketIDs := collectIDs(markets)
		midpoints = deps.Clob.GetMidpoints(ctx, tokenIDs)
		metadata = deps.Gamma.GetMetadata(ctx, marketIDs)
		logger.InfoContext(ctx, "lookups complete",
			slog.Int("tokens_requested", len(tokenIDs)),
			slog.Int("midpoints", len(midpoints)),
			slog.Int("metadata_rows", len(metadata)),
		)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// 3. Screen.
	scfg := screener.Config{
		ThresholdHigh:   a.cfg.Screen.ThresholdHigh,
		ThresholdLow:    a.cfg.Screen.ThresholdLow,
		MinLiquidityUSD: a.cfg.Screen.MinLiquidityUSD,
		MinVolumeUSD:    a.cfg.Screen.MinVolumeUSD,
		MaxAlerts:       a.cfg.Screen.MaxAlerts,
	}
	candidates, stats := screener.Screen(markets, midpoints, metadata, scfg)
	logger.InfoContext(ctx, "screening complete",
		slog.Int("considered", stats.Considered),
		slog.Int("no_sides", stats.NoSides),
		slog.Int("no_midpoint", stats.NoMidpoint),
		slog.Int("below_liquidity", stats.BelowLiquidity),
		slog.Int("below_volume", stats.BelowVolume),
		slog.Int("mid_range", stats.MidRange),
		slog.Int("candidates", stats.Candidates),
	)

	// 4. Format and notify.
	text := report.Format(candidates, len(markets), scfg, startedAt)
	event := notify.EventEmpty
	if len(candidates) > 0 {
		event = notify.EventReport
	}
	if err := deps.Notifier.Notify(ctx, event, text); err != nil {
		// An unreachable sink does not fail the run.
		logger.WarnContext(ctx, "notification delivery incomplete", slog.String("error", err.Error()))
	}

	// 5. Archive the run snapshot when configured.
	if deps.Archiver != nil {
		key, err := deps.Archiver.ArchiveRun(ctx, s3blob.RunRecord{
			RunID:         runID,
			Timestamp:     startedAt,
			ActiveMarkets: len(markets),
			Stats:         stats,
			Candidates:    candidates,
			Report:        text,
		})
		if err != nil {
			logger.WarnContext(ctx, "run archive failed", slog.String("error", err.Error()))
		} else {
			logger.InfoContext(ctx, "run archived", slog.String("key", key))
		}
	}

	logger.InfoContext(ctx, "scan finished",
		slog.Duration("elapsed", time.Since(startedAt)),
		slog.Int("candidates", len(candidates)),
	)
	return nil
}

// reportFailure delivers a run-level failure through the notification path
// as an "error" event, so the configured event list governs it like any
// other digest.
func (a *App) reportFailure(ctx context.Context, notifier *notify.Notifier, err error) {
	a.logger.Error("scan failed", slog.String("error", err.Error()))
	text := report.FormatFailure(err, time.Now())
	if nerr := notifier.Notify(context.WithoutCancel(ctx), notify.EventError, text); nerr != nil {
		a.logger.Error("failure report undeliverable", slog.String("error", nerr.Error()))
	}
}

// collectIDs gathers the unique token IDs and market IDs from the listing,
// preserving first-seen order so chunk boundaries are stable.
func collectIDs(markets []domain.Market) (tokenIDs, marketIDs []string) {
	seenToken := make(map[string]bool)
	seenMarket := make(map[string]bool)
	for _, m := range markets {
		if m.ConditionID != "" && !seenMarket[m.ConditionID] {
			seenMarket[m.ConditionID] = true
			marketIDs = append(marketIDs, m.ConditionID)
		}
		for _, t := range m.Tokens {
			if t.TokenID != "" && !seenToken[t.TokenID] {
				seenToken[t.TokenID] = true
				tokenIDs = append(tokenIDs, t.TokenID)
			}
		}
	}
	return tokenIDs, marketIDs
}
