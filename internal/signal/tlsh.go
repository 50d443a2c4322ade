package signal

import (
	"fmt"

	"github.com/glaslos/tlsh"

	"github.com/sigexhq/sigex-cli/internal/content"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

// TLSHConfidentMatchThreshold is the max TLSH difference score still
// considered a confident match.
const TLSHConfidentMatchThreshold = 30

// text_tlsh is a locality-sensitive hash over extracted document text,
// mainly used for PDFs. Near-duplicate documents score a small TLSH
// difference even when bytes differ.
func newTextTLSHType() *Type {
	return &Type{
		Name:           TypeTextTLSH,
		ContentTypes:   []content.Type{content.PDF, content.Text},
		IndexClass:     index.ClassLinear,
		IndicatorTypes: []string{"HASH_TEXT_TLSH"},
		Compare:        compareTLSH,
		Validate:       validateTLSH,
		HashFromBytes:  tlshFromBytes,
		HashFromString: func(s string) (string, error) { return tlshFromBytes([]byte(s)) },
	}
}

func validateTLSH(hash string) bool {
	_, err := tlsh.ParseStringToTlsh(hash)
	return err == nil
}

func tlshFromBytes(b []byte) (string, error) {
	h, err := tlsh.HashBytes(b)
	if err != nil {
		return "", fmt.Errorf("cannot tlsh-hash content: %w", err)
	}
	return h.String(), nil
}

func compareTLSH(hash1, hash2 string) (ComparisonResult, error) {
	t1, err := tlsh.ParseStringToTlsh(hash1)
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	t2, err := tlsh.ParseStringToTlsh(hash2)
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return resultFromDistance(t1.Diff(t2), TLSHConfidentMatchThreshold), nil
}
