package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/driesv/contrascan/internal/domain"
	"github.com/driesv/contrascan/internal/screener"
)

var formatCfg = screener.Config{
	ThresholdHigh:   0.85,
	ThresholdLow:    0.15,
	MinLiquidityUSD: 2500,
	MinVolumeUSD:    5000,
	MaxAlerts:       7,
}

var formatAt = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func sampleCandidate() domain.Candidate {
	return domain.Candidate{
		ConditionID:    "0xabc",
		Slug:           "trump-wins-2028",
		Side:           domain.SideNo,
		EntryPrice:     0.10,
		PayoffMultiple: 10.0,
		Liquidity:      12500,
		Volume:         1_234_567,
		YesMid:         0.90,
		NoMid:          0.08,
		SkewPct:        40.0,
		EdgePct:        40.0,
	}
}

func TestFormatNoActiveMarkets(t *testing.T) {
	got := Format(nil, 0, formatCfg, formatAt)

	if !strings.Contains(got, "No active markets") {
		t.Errorf("got %q, want the no-active-markets notice", got)
	}
	if !strings.Contains(got, "2025-06-15 14:30 UTC") {
		t.Errorf("got %q, want the UTC timestamp", got)
	}
}

func TestFormatNoCandidatesStatesFilters(t *testing.T) {
	got := Format(nil, 342, formatCfg, formatAt)

	for _, want := range []string{
		"No contrarian opportunities",
		"342 active markets",
		"85.00%",
		"15.00%",
		"$2,500",
		"$5,000",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatReport(t *testing.T) {
	got := Format([]domain.Candidate{sampleCandidate()}, 342, formatCfg, formatAt)

	for _, want := range []string{
		"🚨 *Polymarket Contrarian Opportunities* 🚨",
		"2025-06-15 14:30 UTC",
		"1. [trump-wins-2028](https://polymarket.com/event/trump-wins-2028)",
		"Yes 90.00% | No 8.00%",
		"Liquidity $12,500 | Volume $1,234,567",
		"Contrarian side: *No* @ 10.00%",
		"Payoff ~10.0x",
		"Skew 40.0pp | Edge +40.0pp",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatRankOrder(t *testing.T) {
	first := sampleCandidate()
	second := sampleCandidate()
	second.Slug = "runner-up"

	got := Format([]domain.Candidate{first, second}, 342, formatCfg, formatAt)

	top := strings.Index(got, "1. [trump-wins-2028]")
	next := strings.Index(got, "2. [runner-up]")
	if top == -1 || next == -1 || next < top {
		t.Errorf("candidates out of rank order:\n%s", got)
	}
}

func TestFormatSluglessCandidate(t *testing.T) {
	c := sampleCandidate()
	c.Slug = ""

	got := Format([]domain.Candidate{c}, 1, formatCfg, formatAt)

	if !strings.Contains(got, "[0xabc](https://polymarket.com)") {
		t.Errorf("slugless candidate should link the venue root and show its ID:\n%s", got)
	}
}

func TestFormatDeterministic(t *testing.T) {
	candidates := []domain.Candidate{sampleCandidate()}

	first := Format(candidates, 342, formatCfg, formatAt)
	second := Format(candidates, 342, formatCfg, formatAt)

	if first != second {
		t.Error("identical inputs produced different output")
	}
}

func TestFormatFailure(t *testing.T) {
	got := FormatFailure(errors.New("listing exploded"), formatAt)

	if !strings.Contains(got, "listing exploded") || !strings.Contains(got, "2025-06-15 14:30 UTC") {
		t.Errorf("got %q", got)
	}
}

func TestUSDGrouping(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999, "$999"},
		{1000, "$1,000"},
		{2500, "$2,500"},
		{1234567, "$1,234,567"},
		{999.6, "$1,000"},
		{-2500, "-$2,500"},
	}
	for _, tt := range tests {
		if got := usd(tt.in); got != tt.want {
			t.Errorf("usd(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
