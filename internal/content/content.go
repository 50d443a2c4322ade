// Package content enumerates the kinds of content that signals can apply to.
package content

import "fmt"

// Type identifies a kind of content (photo, video, text, ...).
type Type string

const (
	Photo Type = "photo"
	Video Type = "video"
	Text  Type = "text"
	URL   Type = "url"
	PDF   Type = "pdf"
)

// All returns every known content type, in stable order.
func All() []Type {
	return []Type{Photo, Video, Text, URL, PDF}
}

// Parse resolves a user-supplied name to a content Type.
func Parse(name string) (Type, error) {
	for _, t := range All() {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown content type %q (known: photo, video, text, url, pdf)", name)
}
