package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/driesv/contrascan/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. Absent,
// null, or non-coercible values leave the field unset rather than zero so
// callers can tell "no data" apart from a genuine 0.
type flexFloat struct {
	val float64
	set bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	f.val, f.set = 0, false

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.val, f.set = n, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Wrong shape is absence of data, never a decode failure.
		return nil
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		f.val, f.set = n, true
	}
	return nil
}

// Float returns the parsed value and whether one was present.
func (f flexFloat) Float() (float64, bool) {
	return f.val, f.set
}

// Or returns the parsed value, or fallback when none was present.
func (f flexFloat) Or(fallback float64) float64 {
	if f.set {
		return f.val
	}
	return fallback
}

// flexString unmarshals from a JSON string or number, so identifier fields
// survive services that serialise them either way.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// --------------------------------------------------------------------------
// CLOB listing DTOs
// --------------------------------------------------------------------------

// apiListedToken is one outcome token inside a simplified-markets entry. The
// label may arrive under any of several synonymous fields depending on the
// payload vintage.
type apiListedToken struct {
	TokenID flexString `json:"token_id"`
	ID      flexString `json:"id"`
	Outcome string     `json:"outcome"`
	Label   string     `json:"label"`
	Ticker  string     `json:"ticker"`
	Symbol  string     `json:"symbol"`
	Name    string     `json:"name"`
}

// apiListedMarket is one market entry from the simplified-markets listing.
// The market identifier appears under condition_id or conditionId.
type apiListedMarket struct {
	ConditionID    string           `json:"condition_id"`
	ConditionIDAlt string           `json:"conditionId"`
	Slug           string           `json:"market_slug"`
	SlugAlt        string           `json:"slug"`
	Active         flexBool         `json:"active"`
	Closed         flexBool         `json:"closed"`
	Tokens         []apiListedToken `json:"tokens"`
}

// ToDomainMarket normalizes the raw listing entry onto the internal model.
func (m *apiListedMarket) ToDomainMarket() domain.Market {
	out := domain.Market{
		ConditionID: firstNonEmpty(m.ConditionID, m.ConditionIDAlt),
		Slug:        firstNonEmpty(m.Slug, m.SlugAlt),
		Active:      bool(m.Active),
		Closed:      bool(m.Closed),
	}
	for _, t := range m.Tokens {
		tok := domain.OutcomeToken{
			TokenID: string(firstNonEmptyFlex(t.TokenID, t.ID)),
		}
		for _, label := range []string{t.Outcome, t.Label, t.Ticker, t.Symbol, t.Name} {
			if label != "" {
				tok.Labels = append(tok.Labels, label)
			}
		}
		out.Tokens = append(out.Tokens, tok)
	}
	return out
}

// listingPage is the decoded form of one simplified-markets response page.
// Entries stay raw so a single malformed item is skipped instead of failing
// the page.
type listingPage struct {
	entries    []json.RawMessage
	nextCursor string
}

// parseListingPage accepts the two known listing shapes: a bare JSON array
// of markets, or an object nesting the array under "data" with a
// continuation cursor under "next_cursor".
func parseListingPage(body []byte) (listingPage, error) {
	var page listingPage

	if err := json.Unmarshal(body, &page.entries); err == nil {
		return page, nil
	}

	var envelope struct {
		Data       []json.RawMessage `json:"data"`
		NextCursor string            `json:"next_cursor"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return page, domain.ErrBadShape
	}
	page.entries = envelope.Data
	page.nextCursor = envelope.NextCursor
	return page, nil
}

// --------------------------------------------------------------------------
// Gamma metadata DTOs
// --------------------------------------------------------------------------

// apiGammaMarket is one market entry from the Gamma metadata endpoint. The
// identifier and the numeric fields each appear under one of three aliases;
// struct order here mirrors the probing priority.
type apiGammaMarket struct {
	ConditionID    string     `json:"conditionId"`
	ConditionIDAlt string     `json:"condition_id"`
	ID             flexString `json:"id"`

	Slug string `json:"slug"`

	LiquidityNum  flexFloat `json:"liquidityNum"`
	Liquidity     flexFloat `json:"liquidity"`
	LiquidityClob flexFloat `json:"liquidityClob"`

	VolumeNum  flexFloat `json:"volumeNum"`
	Volume     flexFloat `json:"volume"`
	VolumeClob flexFloat `json:"volumeClob"`
}

// Key returns the market identifier: the first present, non-empty alias wins.
func (m *apiGammaMarket) Key() string {
	return firstNonEmpty(m.ConditionID, m.ConditionIDAlt, string(m.ID))
}

// ToMetadata coerces the aliased numeric fields in priority order, defaulting
// to 0 when every alias is absent or non-coercible.
func (m *apiGammaMarket) ToMetadata() domain.MarketMetadata {
	return domain.MarketMetadata{
		Liquidity: firstFloat(m.LiquidityNum, m.Liquidity, m.LiquidityClob),
		Volume:    firstFloat(m.VolumeNum, m.Volume, m.VolumeClob),
		Slug:      m.Slug,
	}
}

// --------------------------------------------------------------------------
// Small helpers
// --------------------------------------------------------------------------

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptyFlex(values ...flexString) flexString {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstFloat(values ...flexFloat) float64 {
	for _, v := range values {
		if f, ok := v.Float(); ok {
			return f
		}
	}
	return 0
}
