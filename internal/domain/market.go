package domain

// Market is a read-only snapshot of one binary prediction market taken from
// the order-book listing endpoint. It lives for a single scan run.
type Market struct {
	ConditionID string
	Slug        string
	Active      bool
	Closed      bool
	Tokens      []OutcomeToken
}

// OutcomeToken is one side of a binary market. Labels holds every non-empty
// label-bearing field value the listing payload carried for the token
// (outcome, label, ticker, symbol, name), in that order.
type OutcomeToken struct {
	TokenID string
	Labels  []string
}

// MarketMetadata carries the liquidity/volume/slug join data for a market,
// keyed externally by the market's condition ID.
type MarketMetadata struct {
	Liquidity float64
	Volume    float64
	Slug      string
}
