package domain

// Candidate is a contrarian trade opportunity produced by the screener. It is
// derived fresh every run and never persisted; the screener orders candidates
// by descending PayoffMultiple with Volume as the tie-break.
type Candidate struct {
	ConditionID string
	Slug        string
	Side        Side

	// EntryPrice is the effective price paid for the contrarian side, in
	// [0,1]. PayoffMultiple is the gross return multiple (1/EntryPrice) if
	// that side resolves true.
	EntryPrice     float64
	PayoffMultiple float64

	Liquidity float64
	Volume    float64

	// Raw midpoints carried for display.
	YesMid float64
	NoMid  float64

	// SkewPct is |yesMid-0.5| in percentage points; EdgePct the naive edge
	// (0.5-entry)*100. Both are display-only.
	SkewPct float64
	EdgePct float64
}
