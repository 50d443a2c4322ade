package signal

import (
	"github.com/agnivade/levenshtein"

	"github.com/sigexhq/sigex-cli/internal/content"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

// raw_text matches the exact text content, fuzzily. Text is hard to hash
// non-reversibly while staying effective at catching near-duplicates, so the
// "hash" is the normalized text itself and matching is edit distance within
// 5% of the signal length.
func newRawTextType() *Type {
	return &Type{
		Name:           TypeRawText,
		ContentTypes:   []content.Type{content.Text},
		IndexClass:     index.ClassLinear,
		IndicatorTypes: []string{"TEXT_STRING"},
		Compare:        compareRawText,
		Validate:       func(hash string) bool { return hash != "" },
		HashFromString: func(s string) (string, error) { return NormalizeText(s), nil },
		Examples: []string{
			"The quick brown fox jumps over the lazy dog",
			"We the People of the United States, in Order to form a more " +
				"perfect Union, establish Justice, ensure domestic " +
				"Tranquility, provide for the common defence, promote the " +
				"general Welfare, and secure the Blessings of Liberty to " +
				"ourselves and our Posterity, do ordain and establish this " +
				"Constitution for the United States of America.",
			"bball now?",
		},
	}
}

func compareRawText(hash1, hash2 string) (ComparisonResult, error) {
	// A match means at least 95% of the signal text survives.
	threshold := len(hash1) * 5 / 100

	// Length pre-check: if the lengths already differ by more than the
	// threshold, the edit distance must exceed it too. Skipping the O(n·m)
	// computation keeps linear-scan queries cheap on obvious non-matches.
	ldiff := len(hash1) - len(hash2)
	if ldiff < 0 {
		ldiff = -ldiff
	}
	if ldiff > threshold {
		return resultFromBool(false), nil
	}

	dist := levenshtein.ComputeDistance(hash1, hash2)
	return resultFromDistance(dist, threshold), nil
}
