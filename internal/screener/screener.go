// Package screener implements the contrarian screening rule: join the
// listing, midpoint, and metadata sources, keep markets whose Yes consensus
// is extreme, and rank the survivors by payoff multiple.
package screener

import (
	"cmp"
	"math"
	"slices"

	"github.com/driesv/contrascan/internal/domain"
)

// epsilon floors the entry price before division so a price that rounds to
// zero cannot blow up the payoff multiple.
const epsilon = 1e-6

const (
	defaultThresholdHigh = 0.85
	defaultThresholdLow  = 0.15
	defaultMaxAlerts     = 7
)

// Config holds the screening thresholds and the output bound.
type Config struct {
	ThresholdHigh   float64
	ThresholdLow    float64
	MinLiquidityUSD float64
	MinVolumeUSD    float64
	MaxAlerts       int
}

// withDefaults fills fields whose zero value is unusable. The two minimum
// filters are left untouched: zero is a valid setting that disables the
// filter, and the documented dollar defaults live in the config package.
func (c Config) withDefaults() Config {
	if c.ThresholdHigh <= 0 {
		c.ThresholdHigh = defaultThresholdHigh
	}
	if c.ThresholdLow <= 0 {
		c.ThresholdLow = defaultThresholdLow
	}
	if c.MaxAlerts <= 0 {
		c.MaxAlerts = defaultMaxAlerts
	}
	return c
}

// Stats counts what happened to each market during a screening pass, for
// logging. Dropping a market is normal operation, not an error.
type Stats struct {
	Considered     int
	NoSides        int // could not resolve exactly one Yes and one No token
	NoMidpoint     int // one or both sides lacked a midpoint entry
	BelowLiquidity int
	BelowVolume    int
	MidRange       int // Yes midpoint inside the uninteresting band
	Candidates     int
}

// Screen joins the three data sources, classifies each market, and returns
// contrarian candidates ordered by descending payoff multiple with volume as
// the tie-break, truncated to cfg.MaxAlerts. It is a pure function of its
// inputs: identical inputs produce identical output.
func Screen(
	markets []domain.Market,
	midpoints map[string]float64,
	metadata map[string]domain.MarketMetadata,
	cfg Config,
) ([]domain.Candidate, Stats) {
	cfg = cfg.withDefaults()

	var (
		candidates []domain.Candidate
		stats      Stats
	)

	for _, m := range markets {
		if len(m.Tokens) < 2 || m.ConditionID == "" {
			continue
		}
		stats.Considered++

		yes, no, ok := domain.ResolveSides(m.Tokens)
		if !ok {
			stats.NoSides++
			continue
		}

		yesMid, okYes := midpoints[yes.TokenID]
		noMid, okNo := midpoints[no.TokenID]
		if !okYes || !okNo {
			// Insufficient price data, not an error.
			stats.NoMidpoint++
			continue
		}

		meta := metadata[m.ConditionID] // zero value when absent
		slug := meta.Slug
		if slug == "" {
			slug = m.Slug
		}

		if meta.Liquidity < cfg.MinLiquidityUSD {
			stats.BelowLiquidity++
			continue
		}
		if meta.Volume < cfg.MinVolumeUSD {
			stats.BelowVolume++
			continue
		}

		var (
			side  domain.Side
			entry float64
		)
		switch {
		case yesMid >= cfg.ThresholdHigh:
			// Fade the near-certain Yes. The complement 1-yesMid defends
			// against a stale No quote that disagrees with the Yes side.
			side = domain.SideNo
			entry = math.Max(noMid, 1-yesMid)
		case yesMid <= cfg.ThresholdLow:
			side = domain.SideYes
			entry = yesMid
		default:
			stats.MidRange++
			continue
		}

		candidates = append(candidates, domain.Candidate{
			ConditionID:    m.ConditionID,
			Slug:           slug,
			Side:           side,
			EntryPrice:     entry,
			PayoffMultiple: 1 / math.Max(entry, epsilon),
			Liquidity:      meta.Liquidity,
			Volume:         meta.Volume,
			YesMid:         yesMid,
			NoMid:          noMid,
			SkewPct:        math.Abs(yesMid-0.5) * 100,
			EdgePct:        (0.5 - entry) * 100,
		})
	}

	slices.SortStableFunc(candidates, func(a, b domain.Candidate) int {
		if c := cmp.Compare(b.PayoffMultiple, a.PayoffMultiple); c != 0 {
			return c
		}
		return cmp.Compare(b.Volume, a.Volume)
	})

	if len(candidates) > cfg.MaxAlerts {
		candidates = candidates[:cfg.MaxAlerts]
	}
	stats.Candidates = len(candidates)

	return candidates, stats
}
