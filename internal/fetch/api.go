// Package fetch defines the boundary between sigex and external signal
// exchanges: what a collaboration is, what a fetched delta looks like, how
// fetched state is persisted per collaboration, and how match indexes are
// rebuilt from that state.
package fetch

import (
	"context"
	"time"
)

// Checkpoint marks incremental fetch progress so interrupted fetches resume
// where they left off.
type Checkpoint struct {
	// LastFullFetch is when the collaboration was last fetched from the
	// beginning of time (unix seconds).
	LastFullFetch int64 `json:"last_full_fetch"`
	// LastFetch is the time covered by the newest applied delta.
	LastFetch int64 `json:"last_fetch"`
	// Cursor is API-specific paging state, opaque to everything else.
	Cursor string `json:"cursor,omitempty"`
}

// Stale reports whether stored state is too old to trust and should be
// refetched from scratch. window <= 0 means state never goes stale.
func (c *Checkpoint) Stale(window time.Duration, now time.Time) bool {
	if c == nil || window <= 0 {
		return false
	}
	return now.Unix()-c.LastFullFetch > int64(window.Seconds())
}

// OpinionCategory is what the uploader thinks a signal means. It should
// influence what action a match triggers; anything less consequential
// belongs in tags.
type OpinionCategory int

const (
	// FalsePositive: the signal is known to generate false positives.
	FalsePositive OpinionCategory = iota
	// WorthInvestigating: an indirect indicator.
	WorthInvestigating
	// TruePositive: confirmed to meet the collaboration's category.
	TruePositive
)

func (c OpinionCategory) String() string {
	switch c {
	case FalsePositive:
		return "false_positive"
	case WorthInvestigating:
		return "worth_investigating"
	case TruePositive:
		return "true_positive"
	default:
		return "unknown"
	}
}

// Opinion is the metadata of a single signal upload. Exchanges without a
// concept of owner or category use TrivialOpinion.
type Opinion struct {
	Owner    int64           `json:"owner"`
	Category OpinionCategory `json:"category"`
	Tags     []string        `json:"tags,omitempty"`
}

// TrivialOpinion is the default for exchanges that carry no opinion data.
func TrivialOpinion() Opinion {
	return Opinion{Owner: 0, Category: WorthInvestigating}
}

// Metadata is everything known about one fetched signal.
type Metadata struct {
	Opinions []Opinion `json:"opinions"`
}

// Update is one change to one signal. A nil Metadata is a delete tombstone:
// deletions are modeled as delta events, never as index mutations — indexes
// are rebuilt from the surviving record set.
type Update struct {
	SignalType string
	Hash       string
	Metadata   *Metadata
}

// Delta is the result of one fetch iteration.
type Delta struct {
	Updates    []Update
	Checkpoint Checkpoint
	// HasMore reports whether the API holds further data right now.
	HasMore bool
}

// RecordCount supports fetch item limits.
func (d *Delta) RecordCount() int {
	return len(d.Updates)
}

// ExchangeAPI talks to one kind of external collaboration source. FetchOnce
// is called in a loop, threading checkpoints, until HasMore is false or the
// caller's time/item limits trip.
type ExchangeAPI interface {
	// Name is the stable API identifier referenced by collab configs.
	Name() string

	// StalenessWindow is how long fetched state stays valid. Zero means
	// forever.
	StalenessWindow() time.Duration

	// FetchOnce fetches the next delta after checkpoint. A nil checkpoint
	// means fetch from the beginning of time.
	FetchOnce(ctx context.Context, collab *Collab, checkpoint *Checkpoint) (*Delta, error)
}
