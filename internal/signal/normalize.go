package signal

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeText canonicalizes text for fuzzy matching: Unicode case folding,
// whitespace runs collapsed to single spaces, leading/trailing space removed.
// It runs identically at index time and at query time.
func NormalizeText(s string) string {
	folded := foldCaser.String(s)
	return strings.Join(strings.Fields(folded), " ")
}

// NormalizeURL canonicalizes a URL before hashing: scheme and host are
// lowercased, a missing scheme defaults to https, and the fragment is
// dropped. The path and query are preserved byte-for-byte.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("cannot parse url %q: %w", raw, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), nil
}
