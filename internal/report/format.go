// Package report renders the screener's output into the single Markdown
// digest sent to the notification channel. Formatting is pure: no network
// calls, fully deterministic given its inputs.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/driesv/contrascan/internal/domain"
	"github.com/driesv/contrascan/internal/screener"
)

// venueURL is the fallback link used when a candidate has no slug.
const venueURL = "https://polymarket.com"

// Format renders the run's digest. activeMarkets is the number of markets
// the listing yielded: when zero, an informational "no active markets"
// notice is produced regardless of candidates; when no candidates survived
// filtering, the notice states the filters applied; otherwise a ranked block
// per candidate follows the header, in rank order.
func Format(candidates []domain.Candidate, activeMarkets int, cfg screener.Config, at time.Time) string {
	ts := at.UTC().Format("2006-01-02 15:04 UTC")

	if activeMarkets == 0 {
		return fmt.Sprintf("No active markets returned by the listing service at %s. Nothing to screen.", ts)
	}

	if len(candidates) == 0 {
		return fmt.Sprintf(
			"No contrarian opportunities at %s.\nScreened %d active markets with %s; none matched.",
			ts, activeMarkets, filterSummary(cfg),
		)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 *Polymarket Contrarian Opportunities* 🚨\n")
	fmt.Fprintf(&b, "%s | %d active markets | %s\n", ts, activeMarkets, filterSummary(cfg))

	for i, c := range candidates {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, displayName(c), marketURL(c))
		fmt.Fprintf(&b, "Yes %s | No %s\n", percent(c.YesMid), percent(c.NoMid))
		fmt.Fprintf(&b, "Liquidity %s | Volume %s\n", usd(c.Liquidity), usd(c.Volume))
		fmt.Fprintf(&b, "Contrarian side: *%s* @ %s | Payoff ~%.1fx\n",
			c.Side, percent(c.EntryPrice), c.PayoffMultiple)
		fmt.Fprintf(&b, "Skew %.1fpp | Edge %+.1fpp\n", c.SkewPct, c.EdgePct)
	}

	return b.String()
}

// FormatFailure renders the best-effort diagnostic sent through the
// notification path when a run dies unexpectedly.
func FormatFailure(err error, at time.Time) string {
	ts := at.UTC().Format("2006-01-02 15:04 UTC")
	return fmt.Sprintf("Contrarian scan failed at %s: %v", ts, err)
}

// filterSummary states the active filter values in one line.
func filterSummary(cfg screener.Config) string {
	return fmt.Sprintf("Yes ≥ %s or ≤ %s, liquidity ≥ %s, volume ≥ %s",
		percent(cfg.ThresholdHigh), percent(cfg.ThresholdLow),
		usd(cfg.MinLiquidityUSD), usd(cfg.MinVolumeUSD))
}

func displayName(c domain.Candidate) string {
	if c.Slug != "" {
		return c.Slug
	}
	return c.ConditionID
}

func marketURL(c domain.Candidate) string {
	if c.Slug == "" {
		return venueURL
	}
	return venueURL + "/event/" + c.Slug
}

// percent renders a [0,1] probability as a percentage with two decimals.
func percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// usd renders a dollar amount rounded to whole dollars with comma grouping.
func usd(v float64) string {
	neg := v < 0
	digits := strconv.FormatInt(int64(math.Round(math.Abs(v))), 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
