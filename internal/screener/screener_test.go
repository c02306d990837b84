package screener

import (
	"math"
	"reflect"
	"testing"

	"github.com/driesv/contrascan/internal/domain"
)

// binaryMarket builds a two-token market with conventional Yes/No labels.
func binaryMarket(conditionID, slug, yesToken, noToken string) domain.Market {
	return domain.Market{
		ConditionID: conditionID,
		Slug:        slug,
		Active:      true,
		Tokens: []domain.OutcomeToken{
			{TokenID: yesToken, Labels: []string{"Yes"}},
			{TokenID: noToken, Labels: []string{"No"}},
		},
	}
}

func defaultMeta(liq, vol float64) domain.MarketMetadata {
	return domain.MarketMetadata{Liquidity: liq, Volume: vol, Slug: ""}
}

var testCfg = Config{
	ThresholdHigh:   0.85,
	ThresholdLow:    0.15,
	MinLiquidityUSD: 2500,
	MinVolumeUSD:    5000,
	MaxAlerts:       7,
}

func TestScreenExtremeHigh(t *testing.T) {
	markets := []domain.Market{binaryMarket("c1", "trump-wins", "y1", "n1")}
	midpoints := map[string]float64{"y1": 0.90, "n1": 0.08}
	metadata := map[string]domain.MarketMetadata{"c1": defaultMeta(10_000, 10_000)}

	candidates, stats := Screen(markets, midpoints, metadata, testCfg)

	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(candidates))
	}
	c := candidates[0]
	if c.Side != domain.SideNo {
		t.Errorf("Side = %q, want No", c.Side)
	}
	// Entry defends against the stale No quote: max(0.08, 1-0.90) = 0.10.
	if math.Abs(c.EntryPrice-0.10) > 1e-9 {
		t.Errorf("EntryPrice = %v, want 0.10", c.EntryPrice)
	}
	if math.Abs(c.PayoffMultiple-10.0) > 1e-6 {
		t.Errorf("PayoffMultiple = %v, want 10.0", c.PayoffMultiple)
	}
	if stats.Candidates != 1 {
		t.Errorf("stats.Candidates = %d, want 1", stats.Candidates)
	}
}

func TestScreenExtremeLow(t *testing.T) {
	markets := []domain.Market{binaryMarket("c1", "longshot", "y1", "n1")}
	midpoints := map[string]float64{"y1": 0.05, "n1": 0.96}
	metadata := map[string]domain.MarketMetadata{"c1": defaultMeta(10_000, 10_000)}

	candidates, _ := Screen(markets, midpoints, metadata, testCfg)

	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(candidates))
	}
	c := candidates[0]
	if c.Side != domain.SideYes {
		t.Errorf("Side = %q, want Yes", c.Side)
	}
	if math.Abs(c.EntryPrice-0.05) > 1e-9 {
		t.Errorf("EntryPrice = %v, want 0.05", c.EntryPrice)
	}
	if math.Abs(c.PayoffMultiple-20.0) > 1e-6 {
		t.Errorf("PayoffMultiple = %v, want 20.0", c.PayoffMultiple)
	}
}

func TestScreenMidRangeExcluded(t *testing.T) {
	markets := []domain.Market{binaryMarket("c1", "coinflip", "y1", "n1")}
	midpoints := map[string]float64{"y1": 0.50, "n1": 0.50}
	metadata := map[string]domain.MarketMetadata{"c1": defaultMeta(1e6, 1e6)}

	candidates, stats := Screen(markets, midpoints, metadata, testCfg)

	if len(candidates) != 0 {
		t.Fatalf("len(candidates) = %d, want 0", len(candidates))
	}
	if stats.MidRange != 1 {
		t.Errorf("stats.MidRange = %d, want 1", stats.MidRange)
	}
}

func TestScreenThresholdBoundariesInclusive(t *testing.T) {
	markets := []domain.Market{
		binaryMarket("c1", "at-high", "y1", "n1"),
		binaryMarket("c2", "at-low", "y2", "n2"),
	}
	midpoints := map[string]float64{
		"y1": 0.85, "n1": 0.15,
		"y2": 0.15, "n2": 0.85,
	}
	metadata := map[string]domain.MarketMetadata{
		"c1": defaultMeta(10_000, 10_000),
		"c2": defaultMeta(10_000, 10_000),
	}

	candidates, _ := Screen(markets, midpoints, metadata, testCfg)
	if len(candidates) != 2 {
		t.Fatalf("len(candidates) = %d, want 2 (thresholds are inclusive)", len(candidates))
	}
	for _, c := range candidates {
		if c.YesMid > testCfg.ThresholdLow && c.YesMid < testCfg.ThresholdHigh {
			t.Errorf("candidate %s has mid-range yesMid %v", c.ConditionID, c.YesMid)
		}
	}
}

func TestScreenMissingMidpointExcludes(t *testing.T) {
	markets := []domain.Market{binaryMarket("c1", "half-priced", "y1", "n1")}
	// Yes side qualifies, but the No side never traded.
	midpoints := map[string]float64{"y1": 0.95}
	metadata := map[string]domain.MarketMetadata{"c1": defaultMeta(1e6, 1e6)}

	candidates, stats := Screen(markets, midpoints, metadata, testCfg)

	if len(candidates) != 0 {
		t.Fatalf("len(candidates) = %d, want 0", len(candidates))
	}
	if stats.NoMidpoint != 1 {
		t.Errorf("stats.NoMidpoint = %d, want 1", stats.NoMidpoint)
	}
}

func TestScreenUnresolvableSidesExcludes(t *testing.T) {
	markets := []domain.Market{{
		ConditionID: "c1",
		Tokens: []domain.OutcomeToken{
			{TokenID: "u1", Labels: []string{"Up"}},
			{TokenID: "u2", Labels: []string{"Down"}},
		},
	}}
	midpoints := map[string]float64{"u1": 0.95, "u2": 0.05}
	metadata := map[string]domain.MarketMetadata{"c1": defaultMeta(1e6, 1e6)}

	candidates, stats := Screen(markets, midpoints, metadata, testCfg)
	if len(candidates) != 0 || stats.NoSides != 1 {
		t.Errorf("got %d candidates, NoSides = %d; want 0 and 1", len(candidates), stats.NoSides)
	}
}

func TestScreenLiquidityAndVolumeFilters(t *testing.T) {
	markets := []domain.Market{
		binaryMarket("thin", "", "y1", "n1"),
		binaryMarket("quiet", "", "y2", "n2"),
		binaryMarket("good", "", "y3", "n3"),
	}
	midpoints := map[string]float64{
		"y1": 0.95, "n1": 0.05,
		"y2": 0.95, "n2": 0.05,
		"y3": 0.95, "n3": 0.05,
	}
	metadata := map[string]domain.MarketMetadata{
		"thin":  defaultMeta(100, 1e6),  // below liquidity floor
		"quiet": defaultMeta(1e6, 100),  // below volume floor
		"good":  defaultMeta(2500, 5000), // exactly at both floors
	}

	candidates, stats := Screen(markets, midpoints, metadata, testCfg)

	if len(candidates) != 1 || candidates[0].ConditionID != "good" {
		t.Fatalf("candidates = %+v, want only %q", candidates, "good")
	}
	if stats.BelowLiquidity != 1 || stats.BelowVolume != 1 {
		t.Errorf("stats = %+v, want BelowLiquidity=1 BelowVolume=1", stats)
	}
	for _, c := range candidates {
		if c.Liquidity < testCfg.MinLiquidityUSD || c.Volume < testCfg.MinVolumeUSD {
			t.Errorf("candidate %s below floors: liq=%v vol=%v", c.ConditionID, c.Liquidity, c.Volume)
		}
	}
}

func TestScreenMissingMetadataDefaultsToZero(t *testing.T) {
	// A total metadata failure means every market joins liquidity=0,
	// volume=0 and is excluded by the non-zero minimums.
	markets := []domain.Market{binaryMarket("c1", "orphan", "y1", "n1")}
	midpoints := map[string]float64{"y1": 0.95, "n1": 0.05}

	candidates, stats := Screen(markets, midpoints, map[string]domain.MarketMetadata{}, testCfg)
	if len(candidates) != 0 {
		t.Fatalf("len(candidates) = %d, want 0", len(candidates))
	}
	if stats.BelowLiquidity != 1 {
		t.Errorf("stats.BelowLiquidity = %d, want 1", stats.BelowLiquidity)
	}
}

func TestScreenSlugFallsBackToListing(t *testing.T) {
	markets := []domain.Market{binaryMarket("c1", "listing-slug", "y1", "n1")}
	midpoints := map[string]float64{"y1": 0.95, "n1": 0.05}
	metadata := map[string]domain.MarketMetadata{"c1": {Liquidity: 1e6, Volume: 1e6, Slug: ""}}

	candidates, _ := Screen(markets, midpoints, metadata, testCfg)
	if len(candidates) != 1 || candidates[0].Slug != "listing-slug" {
		t.Fatalf("candidates = %+v, want slug %q", candidates, "listing-slug")
	}
}

func TestScreenRankingAndTruncation(t *testing.T) {
	cfg := testCfg
	cfg.MaxAlerts = 3

	markets := []domain.Market{
		binaryMarket("a", "a", "ya", "na"),
		binaryMarket("b", "b", "yb", "nb"),
		binaryMarket("c", "c", "yc", "nc"),
		binaryMarket("d", "d", "yd", "nd"),
	}
	midpoints := map[string]float64{
		"ya": 0.05, "na": 0.95, // multiple 20
		"yb": 0.10, "nb": 0.90, // multiple 10, volume 9000
		"yc": 0.10, "nc": 0.90, // multiple 10, volume 50000 — wins the tie
		"yd": 0.12, "nd": 0.88, // multiple ~8.33, truncated away
	}
	metadata := map[string]domain.MarketMetadata{
		"a": defaultMeta(10_000, 10_000),
		"b": defaultMeta(10_000, 9_000),
		"c": defaultMeta(10_000, 50_000),
		"d": defaultMeta(10_000, 10_000),
	}

	candidates, _ := Screen(markets, midpoints, metadata, cfg)

	if len(candidates) != 3 {
		t.Fatalf("len(candidates) = %d, want 3", len(candidates))
	}
	gotOrder := []string{candidates[0].ConditionID, candidates[1].ConditionID, candidates[2].ConditionID}
	wantOrder := []string{"a", "c", "b"}
	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Errorf("order = %v, want %v", gotOrder, wantOrder)
	}
	for i := 1; i < len(candidates); i++ {
		prev, cur := candidates[i-1], candidates[i]
		if cur.PayoffMultiple > prev.PayoffMultiple {
			t.Errorf("payoff multiple increases at rank %d", i)
		}
		if cur.PayoffMultiple == prev.PayoffMultiple && cur.Volume > prev.Volume {
			t.Errorf("volume tie-break violated at rank %d", i)
		}
	}
}

func TestScreenZeroMinimumsDisableFilters(t *testing.T) {
	cfg := testCfg
	cfg.MinLiquidityUSD = 0
	cfg.MinVolumeUSD = 0

	markets := []domain.Market{binaryMarket("c1", "tiny", "y1", "n1")}
	midpoints := map[string]float64{"y1": 0.95, "n1": 0.05}
	metadata := map[string]domain.MarketMetadata{"c1": defaultMeta(100, 100)}

	candidates, stats := Screen(markets, midpoints, metadata, cfg)

	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1 (zero minimums admit everything)", len(candidates))
	}
	if stats.BelowLiquidity != 0 || stats.BelowVolume != 0 {
		t.Errorf("stats = %+v, want no liquidity/volume drops", stats)
	}
}

func TestScreenZeroEntryPriceClamped(t *testing.T) {
	markets := []domain.Market{binaryMarket("c1", "", "y1", "n1")}
	midpoints := map[string]float64{"y1": 0.0, "n1": 1.0}
	metadata := map[string]domain.MarketMetadata{"c1": defaultMeta(1e6, 1e6)}

	candidates, _ := Screen(markets, midpoints, metadata, testCfg)
	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(candidates))
	}
	if got := candidates[0].PayoffMultiple; math.IsInf(got, 0) || got != 1/epsilon {
		t.Errorf("PayoffMultiple = %v, want %v", got, 1/epsilon)
	}
}

func TestScreenIdempotent(t *testing.T) {
	markets := []domain.Market{
		binaryMarket("a", "a", "ya", "na"),
		binaryMarket("b", "b", "yb", "nb"),
	}
	midpoints := map[string]float64{
		"ya": 0.90, "na": 0.08,
		"yb": 0.05, "nb": 0.96,
	}
	metadata := map[string]domain.MarketMetadata{
		"a": defaultMeta(10_000, 10_000),
		"b": defaultMeta(10_000, 10_000),
	}

	first, firstStats := Screen(markets, midpoints, metadata, testCfg)
	second, secondStats := Screen(markets, midpoints, metadata, testCfg)

	if !reflect.DeepEqual(first, second) {
		t.Error("Screen is not deterministic for identical inputs")
	}
	if firstStats != secondStats {
		t.Errorf("stats differ between runs: %+v vs %+v", firstStats, secondStats)
	}
}

func TestScreenDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.ThresholdHigh != 0.85 || cfg.ThresholdLow != 0.15 {
		t.Errorf("threshold defaults = (%v, %v), want (0.85, 0.15)", cfg.ThresholdHigh, cfg.ThresholdLow)
	}
	if cfg.MaxAlerts != 7 {
		t.Errorf("MaxAlerts default = %d, want 7", cfg.MaxAlerts)
	}
	// Zero minimums mean "filter disabled" and must survive defaulting.
	if cfg.MinLiquidityUSD != 0 || cfg.MinVolumeUSD != 0 {
		t.Errorf("floors = (%v, %v), want zero values preserved", cfg.MinLiquidityUSD, cfg.MinVolumeUSD)
	}
}
