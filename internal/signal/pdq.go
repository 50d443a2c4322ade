package signal

import (
	"encoding/hex"
	"fmt"
	"math/bits"
	"strings"

	"github.com/sigexhq/sigex-cli/internal/content"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

// PDQ is a 256-bit perceptual photo hash. Unlike an MD5, visually similar
// images produce hashes at a small Hamming distance, so matching uses a
// distance threshold instead of equality. That makes it far better at
// catching images a human would call "the same" — and also opens the door
// to false positives, which is why the threshold is deliberately tight.
const (
	pdqHexLength = 64 // 256 bits, hex encoded

	// PDQConfidentMatchThreshold is the max Hamming distance still
	// considered a confident match.
	PDQConfidentMatchThreshold = 31
)

func newPDQType() *Type {
	return &Type{
		Name:           TypePDQ,
		ContentTypes:   []content.Type{content.Photo},
		IndexClass:     index.ClassLinear,
		IndicatorTypes: []string{"HASH_PDQ"},
		Compare:        comparePDQ,
		Validate:       validatePDQ,
		HashFromBytes:  pdqFromBytes,
		Examples: []string{
			"f8f8f0cee0f4a84f06370a22038f63f0b36e2ed596621e1d33e6b39c4e9c9b22",
			"b0a10efd71cc3f429413d48d0ffffe12e34e0e17ada952a9d29684210aa9e5af",
			"adad5a64b5a142e55362a09057dacd5ae63b847fc23794b766b319361fc93188",
		},
	}
}

func validatePDQ(hash string) bool {
	if len(hash) != pdqHexLength {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func comparePDQ(hash1, hash2 string) (ComparisonResult, error) {
	dist, err := hammingDistanceHex(hash1, hash2, pdqHexLength)
	if err != nil {
		return ComparisonResult{}, err
	}
	return resultFromDistance(dist, PDQConfidentMatchThreshold), nil
}

// hammingDistanceHex computes the bit distance between two fixed-width
// hex-encoded hashes. Wrong length or encoding is an error, never a silent
// truncation.
func hammingDistanceHex(hash1, hash2 string, hexLen int) (int, error) {
	b1, err := decodeFixedHex(hash1, hexLen)
	if err != nil {
		return 0, err
	}
	b2, err := decodeFixedHex(hash2, hexLen)
	if err != nil {
		return 0, err
	}
	dist := 0
	for i := range b1 {
		dist += bits.OnesCount8(b1[i] ^ b2[i])
	}
	return dist, nil
}

func decodeFixedHex(hash string, hexLen int) ([]byte, error) {
	if len(hash) != hexLen {
		return nil, fmt.Errorf("%w: want %d hex chars, got %d", ErrMalformedHash, hexLen, len(hash))
	}
	b, err := hex.DecodeString(strings.ToLower(hash))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return b, nil
}

// pdqFromBytes would compute a PDQ hash from raw image data. The PDQ DCT
// pipeline needs image decoding support that sigex does not bundle; hashes
// are expected to arrive pre-computed from exchange APIs or bank uploads.
func pdqFromBytes([]byte) (string, error) {
	return "", fmt.Errorf("pdq hashing from raw image data is not supported in this build")
}
