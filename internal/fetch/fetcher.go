package fetch

import (
	"context"
	"fmt"
	"time"
)

// Options bounds one `sigex fetch` run.
type Options struct {
	// Clean discards stored state and refetches from the beginning.
	Clean bool
	// Limit stops after this many fetched records (0 = unlimited).
	Limit int
	// TimeLimit stops fetching after this much wall time (0 = unlimited).
	TimeLimit time.Duration
	// OnlyAPI restricts the run to one exchange API.
	OnlyAPI string
	// OnlyCollab restricts the run to one collaboration.
	OnlyCollab string
	// Progress, when set, receives a human-readable line at most once per
	// ProgressInterval.
	Progress func(line string)
	// ProgressInterval defaults to 30s.
	ProgressInterval time.Duration
}

// Result summarizes a fetch run.
type Result struct {
	Fetched      int
	AnySucceeded bool
	// Failures maps collaboration name to its fetch error.
	Failures map[string]error
}

// Fetcher drives the fetch loop: for every exchange API, for every enabled
// collaboration on it, pull deltas sequentially with checkpoint threading
// until the API runs dry or a limit trips. State flushes after every
// collaboration, so an interrupted run resumes from its checkpoint.
type Fetcher struct {
	apis   []ExchangeAPI
	states *StateStore

	opts         Options
	started      time.Time
	fetched      int
	lastProgress time.Time
}

// NewFetcher builds a Fetcher over the given exchange APIs and state store.
func NewFetcher(apis []ExchangeAPI, states *StateStore, opts Options) *Fetcher {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 30 * time.Second
	}
	return &Fetcher{apis: apis, states: states, opts: opts}
}

// Run executes the fetch. Per-collaboration failures are collected in the
// Result, not returned: one broken collaboration must not stop the rest.
func (f *Fetcher) Run(ctx context.Context, collabs []*Collab) (*Result, error) {
	f.started = time.Now()
	// First progress line after a few seconds, not a full interval.
	f.lastProgress = f.started.Add(5*time.Second - f.opts.ProgressInterval)

	res := &Result{Failures: map[string]error{}}
	for _, api := range f.apis {
		if f.opts.OnlyAPI != "" && api.Name() != f.opts.OnlyAPI {
			continue
		}
		for _, collab := range collabs {
			if collab.API != api.Name() || !collab.Enabled {
				continue
			}
			if f.opts.OnlyCollab != "" && collab.Name != f.opts.OnlyCollab {
				continue
			}
			if err := f.fetchCollab(ctx, api, collab); err != nil {
				res.Failures[collab.Name] = err
			} else {
				res.AnySucceeded = true
			}
			if f.hitLimits() {
				res.Fetched = f.fetched
				return res, nil
			}
		}
	}
	res.Fetched = f.fetched
	return res, nil
}

func (f *Fetcher) fetchCollab(ctx context.Context, api ExchangeAPI, collab *Collab) error {
	state, checkpoint, err := f.prepareState(api, collab)
	if err != nil {
		return err
	}

	dirty := false
	for !f.hitLimits() {
		if err := ctx.Err(); err != nil {
			break
		}
		delta, err := api.FetchOnce(ctx, collab, checkpoint)
		if err != nil {
			// Keep what we merged so far; the checkpoint lets the next
			// run resume where this one broke.
			if dirty {
				if werr := f.states.Write(collab.Name, state); werr != nil {
					return fmt.Errorf("fetch failed (%v) and state flush failed: %w", err, werr)
				}
			}
			return err
		}
		state.Apply(delta)
		dirty = true
		f.fetched += delta.RecordCount()
		f.progress(collab, delta)
		cp := state.Checkpoint
		checkpoint = &cp
		if !delta.HasMore {
			break
		}
	}

	if dirty {
		return f.states.Write(collab.Name, state)
	}
	return nil
}

// prepareState loads (or resets) a collaboration's state and returns the
// checkpoint to resume from; nil means fetch from the beginning.
func (f *Fetcher) prepareState(api ExchangeAPI, collab *Collab) (*CollabState, *Checkpoint, error) {
	if f.opts.Clean {
		if err := f.states.Clear(collab.Name); err != nil {
			return nil, nil, err
		}
		return NewCollabState(), nil, nil
	}
	state, err := f.states.Read(collab.Name)
	if err != nil {
		return nil, nil, err
	}
	if state == nil {
		return NewCollabState(), nil, nil
	}
	cp := state.Checkpoint
	if cp.Stale(api.StalenessWindow(), time.Now()) {
		if err := f.states.Clear(collab.Name); err != nil {
			return nil, nil, err
		}
		return NewCollabState(), nil, nil
	}
	return state, &cp, nil
}

func (f *Fetcher) hitLimits() bool {
	if f.opts.Limit > 0 && f.fetched >= f.opts.Limit {
		return true
	}
	if f.opts.TimeLimit > 0 && time.Since(f.started) >= f.opts.TimeLimit {
		return true
	}
	return false
}

func (f *Fetcher) progress(collab *Collab, delta *Delta) {
	if f.opts.Progress == nil {
		return
	}
	now := time.Now()
	if now.Sub(f.lastProgress) < f.opts.ProgressInterval {
		return
	}
	f.lastProgress = now
	f.opts.Progress(fmt.Sprintf("[%s] downloaded %d updates, at %s",
		collab.Name, f.fetched, humanizeCheckpointTime(delta.Checkpoint.LastFetch, now)))
}

func humanizeCheckpointTime(unix int64, now time.Time) string {
	if unix <= 0 {
		return "ages long past"
	}
	t := time.Unix(unix, 0)
	if !t.Before(now) {
		return "moments ago"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
