package index

import (
	"io"
	"sync"
)

// Exact is a hash-keyed index: queries are direct map lookups and every
// match is reported at distance 0. Duplicate hashes accumulate payloads in
// insertion order — they never overwrite.
type Exact struct {
	mu    sync.RWMutex
	state map[string][]string
	size  int
}

// NewExact returns an empty exact-match index.
func NewExact() *Exact {
	return &Exact{state: make(map[string][]string)}
}

func (x *Exact) Class() Class { return ClassExact }

func (x *Exact) Add(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, e := range entries {
		x.state[e.Hash] = append(x.state[e.Hash], e.Payload)
		x.size++
	}
}

func (x *Exact) Query(hash string) []Match {
	x.mu.RLock()
	defer x.mu.RUnlock()
	payloads := x.state[hash]
	out := make([]Match, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, Match{Distance: 0, Payload: p})
	}
	return out
}

func (x *Exact) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.size
}

func (x *Exact) Serialize(w io.Writer) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	entries := make([]Entry, 0, x.size)
	for hash, payloads := range x.state {
		for _, p := range payloads {
			entries = append(entries, Entry{Hash: hash, Payload: p})
		}
	}
	return writeBlob(w, ClassExact, entries)
}
