package index

import (
	"io"
	"sync"
)

// Linear is a scan-everything index for signal types whose match relation is
// not hash equality (edit distance, bit distance). Queries are O(n) — the
// documented tradeoff for supporting custom distance metrics at all.
type Linear struct {
	mu    sync.RWMutex
	cmp   CompareFunc
	state []Entry
}

// NewLinear returns an empty linear-scan index using cmp to decide matches.
func NewLinear(cmp CompareFunc) *Linear {
	return &Linear{cmp: cmp}
}

func (l *Linear) Class() Class { return ClassLinear }

func (l *Linear) Add(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = append(l.state, entries...)
}

// Query returns matches in insertion order. Entries whose stored hash cannot
// be compared (comparator error) are skipped — a malformed stored hash must
// not poison queries against the rest of the index.
func (l *Linear) Query(hash string) []Match {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []Match{}
	for _, e := range l.state {
		matched, dist, err := l.cmp(e.Hash, hash)
		if err != nil {
			continue
		}
		if matched {
			out = append(out, Match{Distance: dist, Payload: e.Payload})
		}
	}
	return out
}

func (l *Linear) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.state)
}

func (l *Linear) Serialize(w io.Writer) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return writeBlob(w, ClassLinear, l.state)
}
