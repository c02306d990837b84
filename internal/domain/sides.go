package domain

import "strings"

// Side identifies which outcome of a binary market a candidate takes.
type Side string

const (
	SideYes Side = "Yes"
	SideNo  Side = "No"
)

// ResolveSides classifies a market's tokens into its Yes and No sides using
// the tokens' label fields. A market is only tradeable for the screener when
// exactly one token resolves to Yes and exactly one to No; ok is false
// otherwise.
func ResolveSides(tokens []OutcomeToken) (yes, no OutcomeToken, ok bool) {
	var yesCount, noCount int
	for _, tok := range tokens {
		switch classifyToken(tok) {
		case SideYes:
			yes = tok
			yesCount++
		case SideNo:
			no = tok
			noCount++
		}
	}
	return yes, no, yesCount == 1 && noCount == 1
}

// classifyToken returns the side the token's first recognisable label maps
// to, or "" when no label matches.
func classifyToken(tok OutcomeToken) Side {
	for _, label := range tok.Labels {
		if s := classifyLabel(label); s != "" {
			return s
		}
	}
	return ""
}

// classifyLabel maps a single label spelling onto a side. Matching is
// case-insensitive and accepts exact words ("yes", "y"), suffixed spellings
// (":yes", "-yes"), and the No-side equivalents.
func classifyLabel(label string) Side {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case l == "yes", l == "y",
		strings.HasSuffix(l, ":yes"), strings.HasSuffix(l, "-yes"):
		return SideYes
	case l == "no", l == "n",
		strings.HasSuffix(l, ":no"), strings.HasSuffix(l, "-no"):
		return SideNo
	}
	return ""
}
