// Package signal defines the signal types sigex can match on: what their
// hashes look like, how two hashes are compared, and which index class holds
// them. Signal types are flat capability descriptors registered once at
// startup — there is no type hierarchy to subclass.
package signal

import (
	"fmt"
	"os"

	"github.com/sigexhq/sigex-cli/internal/content"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

// Stable signal type names, used in index filenames and state files.
const (
	TypePDQ      = "pdq"
	TypeVideoMD5 = "video_md5"
	TypeURL      = "url"
	TypeURLMD5   = "url_md5"
	TypeRawText  = "raw_text"
	TypeTextTLSH = "text_tlsh"
)

// ComparisonResult is the outcome of comparing two hashes.
//
// Distance is always non-negative. For exact types distance 0 implies a
// match; for fuzzy types Matched is true iff the distance is within the
// type's confident-match threshold.
type ComparisonResult struct {
	Matched  bool
	Distance int
}

func resultFromDistance(dist, threshold int) ComparisonResult {
	return ComparisonResult{Matched: dist <= threshold, Distance: dist}
}

func resultFromBool(matched bool) ComparisonResult {
	dist := 1
	if matched {
		dist = 0
	}
	return ComparisonResult{Matched: matched, Distance: dist}
}

// CompareFunc compares two hash representations of the same signal type.
// It is pure and symmetric in Matched. Malformed input fails with
// ErrMalformedHash rather than returning a fake distance.
type CompareFunc func(hash1, hash2 string) (ComparisonResult, error)

// Type is an immutable signal type descriptor. Capabilities that do not
// apply (e.g. HashFromBytes for a text-only type) are nil.
type Type struct {
	// Name is the stable lower_snake identifier.
	Name string

	// ContentTypes lists the content kinds this signal applies to.
	ContentTypes []content.Type

	// IndexClass is the index implementation all indexes of this type use.
	IndexClass index.Class

	// IndicatorTypes are the wire names exchange APIs use for this signal.
	IndicatorTypes []string

	// Compare is the type's hash comparator.
	Compare CompareFunc

	// Validate reports whether hash looks like a well-formed serialized
	// signal of this type. Callers must validate untrusted hashes before
	// indexing them.
	Validate func(hash string) bool

	// HashFromString hashes text content. Normalization (case folding,
	// whitespace collapsing) happens here and only here — never in the
	// index — so stored and queried hashes always agree.
	HashFromString func(s string) (string, error)

	// HashFromBytes hashes raw byte content.
	HashFromBytes func(b []byte) (string, error)

	// Examples are sample hashable inputs, used by the static sample
	// exchange and tests.
	Examples []string
}

// AppliesTo reports whether the type handles the given content kind.
func (t *Type) AppliesTo(ct content.Type) bool {
	for _, c := range t.ContentTypes {
		if c == ct {
			return true
		}
	}
	return false
}

// MatchesIndicator reports whether an exchange API indicator type maps to
// this signal type.
func (t *Type) MatchesIndicator(indicator string) bool {
	for _, i := range t.IndicatorTypes {
		if i == indicator {
			return true
		}
	}
	return false
}

// HashFromFile hashes a file's content, preferring the byte hasher and
// falling back to hashing the file body as text.
func (t *Type) HashFromFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	if t.HashFromBytes != nil {
		return t.HashFromBytes(b)
	}
	if t.HashFromString != nil {
		return t.HashFromString(string(b))
	}
	return "", fmt.Errorf("signal type %s cannot hash content", t.Name)
}

// IndexCompare adapts the type's comparator to the index package's
// comparator contract.
func (t *Type) IndexCompare() index.CompareFunc {
	return func(stored, query string) (bool, int, error) {
		res, err := t.Compare(stored, query)
		if err != nil {
			return false, 0, err
		}
		return res.Matched, res.Distance, nil
	}
}
