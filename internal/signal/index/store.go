package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileExtension is the suffix of persisted index files, one per signal type.
const FileExtension = ".index"

// Store persists one index blob per signal type under a single directory
// (typically ~/.sigex/indexes). Files are replaced wholesale on rebuild; there
// are no partial writes or streaming reads.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create index dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) indexFile(typeName string) string {
	return filepath.Join(s.dir, typeName+FileExtension)
}

// Save serializes idx for the named signal type. declared is the index class
// the signal type mandates; a mismatched idx fails with ErrClassMismatch
// before anything touches disk. The file is written to a temp path and
// renamed so readers never observe a half-written blob.
func (s *Store) Save(typeName string, declared Class, idx Index) error {
	if idx.Class() != declared {
		return fmt.Errorf("%w: signal type %s declares %q, got %q",
			ErrClassMismatch, typeName, declared, idx.Class())
	}

	tmp, err := os.CreateTemp(s.dir, typeName+".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create temp index file: %w", err)
	}
	tmpName := tmp.Name()
	if err := idx.Serialize(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot serialize %s index: %w", typeName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.indexFile(typeName)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot replace index file: %w", err)
	}
	return nil
}

// Load reads the persisted index for the named signal type, binding cmp for
// linear indexes. A missing file returns (nil, nil) — no index built yet. A
// blob holding a different class than declared fails with ErrClassMismatch.
func (s *Store) Load(typeName string, declared Class, cmp CompareFunc) (Index, error) {
	f, err := os.Open(s.indexFile(typeName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot open index file for %s: %w", typeName, err)
	}
	defer f.Close()

	idx, err := Deserialize(f, cmp)
	if err != nil {
		return nil, fmt.Errorf("index for %s: %w", typeName, err)
	}
	if idx.Class() != declared {
		return nil, fmt.Errorf("%w: signal type %s declares %q, stored blob is %q",
			ErrClassMismatch, typeName, declared, idx.Class())
	}
	return idx, nil
}

// Available lists the signal type names that have a persisted index.
func (s *Store) Available() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+FileExtension))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSuffix(filepath.Base(m), FileExtension))
	}
	return out, nil
}

// Clear removes persisted indexes. With no arguments it removes all of them;
// otherwise only the named signal types.
func (s *Store) Clear(typeNames ...string) error {
	names := typeNames
	if len(names) == 0 {
		var err error
		names, err = s.Available()
		if err != nil {
			return err
		}
	}
	for _, name := range names {
		if err := os.Remove(s.indexFile(name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("cannot remove index for %s: %w", name, err)
		}
	}
	return nil
}
