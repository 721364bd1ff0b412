package experience

import "strings"

// similarity computes a token-overlap score between two texts. Both texts are
// case-folded and split on whitespace into token sets; the score is the size
// of the intersection divided by the size of the larger set. Deterministic and
// order-independent, which is enough for an advisory cache.
func similarity(a, b string) float64 {
	as := tokenSet(a)
	bs := tokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}

	common := 0
	for tok := range as {
		if bs[tok] {
			common++
		}
	}

	denom := len(as)
	if len(bs) > denom {
		denom = len(bs)
	}
	return float64(common) / float64(denom)
}

// tokenSet returns the set of case-folded whitespace-separated tokens in text.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		set[tok] = true
	}
	return set
}
