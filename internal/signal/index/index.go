// Package index implements the per-signal-type match indexes: an exact-match
// index keyed on the hash string and a linear-scan index that runs a custom
// comparator over every stored entry. Indexes serialize to a compact binary
// blob and round-trip losslessly across process restarts.
package index

import "io"

// Class identifies an index implementation. A signal type declares which
// class its indexes must use; mixing classes is a programming error.
type Class string

const (
	// ClassExact is a hash-keyed map: O(1) queries, distance always 0.
	ClassExact Class = "exact"
	// ClassLinear scans every entry with a comparator: O(n) queries, the
	// only option for match relations that are not plain equality.
	ClassLinear Class = "linear"
)

// Entry is one stored (hash, payload) pair. The payload is opaque to the
// index; callers use it to refer back to their own records (sigex stores the
// collaboration name the signal came from).
type Entry struct {
	Hash    string
	Payload string
}

// Match is one query result.
type Match struct {
	Distance int
	Payload  string
}

// CompareFunc compares a stored hash against a query hash. Errors mean the
// comparison could not be performed (malformed hash), not a failed match.
type CompareFunc func(stored, query string) (matched bool, distance int, err error)

// Index holds all entries for one signal type and answers match queries.
//
// Add calls must be externally serialized; queries may run concurrently with
// each other but not with an in-progress Add. Entries are append-only —
// removal happens by rebuilding the whole index from source data.
type Index interface {
	// Class reports which implementation this is.
	Class() Class

	// Add appends entries. An empty slice is a no-op. Hashes are not
	// validated here; validate via the signal type before indexing
	// untrusted input.
	Add(entries []Entry)

	// Query returns every stored entry matching the given hash. An empty
	// index returns an empty result, not an error.
	Query(hash string) []Match

	// Size returns the number of stored entries.
	Size() int

	// Serialize writes the index as a binary blob readable by Deserialize.
	Serialize(w io.Writer) error
}

// Build constructs an index of the given class pre-populated with entries.
// cmp is required for ClassLinear and ignored for ClassExact.
func Build(class Class, cmp CompareFunc, entries []Entry) (Index, error) {
	var idx Index
	switch class {
	case ClassExact:
		idx = NewExact()
	case ClassLinear:
		idx = NewLinear(cmp)
	default:
		return nil, errUnknownClass(class)
	}
	idx.Add(entries)
	return idx, nil
}
