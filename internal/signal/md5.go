package signal

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/sigexhq/sigex-cli/internal/content"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

const md5HexLength = 32

// video_md5 is an exact-match MD5 over the full video file. Sensitive to a
// single changed byte, so it only catches re-shares of identical files.
func newVideoMD5Type() *Type {
	return &Type{
		Name:           TypeVideoMD5,
		ContentTypes:   []content.Type{content.Video},
		IndexClass:     index.ClassExact,
		IndicatorTypes: []string{"HASH_VIDEO_MD5"},
		Compare:        compareExactString,
		Validate:       validateMD5,
		HashFromBytes:  md5FromBytes,
		Examples: []string{
			"d1b9f60cd9857e8b2deed98ca4eeb1e2",
		},
	}
}

func validateMD5(hash string) bool {
	if len(hash) != md5HexLength {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func md5FromBytes(b []byte) (string, error) {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:]), nil
}

// compareExactString is the equality comparator shared by all exact signal
// types: distance 0 on match, 1 otherwise.
func compareExactString(hash1, hash2 string) (ComparisonResult, error) {
	return resultFromBool(hash1 == hash2), nil
}
