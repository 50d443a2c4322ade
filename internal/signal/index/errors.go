package index

import (
	"errors"
	"fmt"
)

// ErrCorruptIndex indicates a serialized index blob could not be decoded.
// Callers must discard the blob and rebuild from source data rather than
// operate on a partially-loaded index.
var ErrCorruptIndex = errors.New("corrupt index blob")

// ErrClassMismatch indicates an index of one class was used where a signal
// type declares another. This is a programming error, not a runtime state.
var ErrClassMismatch = errors.New("index class mismatch")

func errUnknownClass(c Class) error {
	return fmt.Errorf("%w: unknown index class %q", ErrClassMismatch, c)
}
