package signal

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/sigexhq/sigex-cli/internal/content"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

// url is the trivial link signal: the normalized URL string is the hash.
func newURLType() *Type {
	return &Type{
		Name:           TypeURL,
		ContentTypes:   []content.Type{content.URL},
		IndexClass:     index.ClassExact,
		IndicatorTypes: []string{"URI", "RAW_URI"},
		Compare:        compareExactString,
		Validate:       func(hash string) bool { return hash != "" },
		HashFromString: NormalizeURL,
		Examples: []string{
			"https://developers.facebook.com/docs/threat-exchange/reference/apis/",
			"https://example.com/harmful-content",
		},
	}
}

// url_md5 hashes the normalized URL with MD5, for exchanges that share
// links without revealing them.
func newURLMD5Type() *Type {
	return &Type{
		Name:           TypeURLMD5,
		ContentTypes:   []content.Type{content.URL},
		IndexClass:     index.ClassExact,
		IndicatorTypes: []string{"HASH_URL_MD5"},
		Compare:        compareExactString,
		Validate:       validateMD5,
		HashFromString: urlMD5FromString,
		Examples: []string{
			"https://example.com/harmful-content",
		},
	}
}

func urlMD5FromString(rawURL string) (string, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:]), nil
}
