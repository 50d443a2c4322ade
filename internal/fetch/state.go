package fetch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

const stateFileSuffix = ".state.json"

// CollabState is everything fetched for one collaboration: the checkpoint
// and the merged records, keyed signal type name -> hash -> metadata.
type CollabState struct {
	Checkpoint Checkpoint                       `json:"checkpoint"`
	Records    map[string]map[string]*Metadata `json:"records"`
}

// NewCollabState returns an empty state.
func NewCollabState() *CollabState {
	return &CollabState{Records: map[string]map[string]*Metadata{}}
}

// Apply merges a delta: additions replace the record for their hash,
// tombstones remove it. The delta's checkpoint becomes the state's.
func (cs *CollabState) Apply(delta *Delta) {
	for _, u := range delta.Updates {
		byHash := cs.Records[u.SignalType]
		if u.Metadata == nil {
			delete(byHash, u.Hash)
			if len(byHash) == 0 {
				delete(cs.Records, u.SignalType)
			}
			continue
		}
		if byHash == nil {
			byHash = map[string]*Metadata{}
			cs.Records[u.SignalType] = byHash
		}
		byHash[u.Hash] = u.Metadata
	}
	cs.Checkpoint = delta.Checkpoint
}

// HashesForType returns the stored hashes for a signal type, sorted for
// stable iteration.
func (cs *CollabState) HashesForType(typeName string) []string {
	byHash := cs.Records[typeName]
	out := make([]string, 0, len(byHash))
	for h := range byHash {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// TypeCounts returns record counts per signal type.
func (cs *CollabState) TypeCounts() map[string]int {
	out := make(map[string]int, len(cs.Records))
	for name, byHash := range cs.Records {
		out[name] = len(byHash)
	}
	return out
}

// StateStore persists one CollabState JSON file per collaboration
// (typically under ~/.sigex/state).
type StateStore struct {
	dir string
}

// NewStateStore returns a store rooted at dir, creating it if needed.
func NewStateStore(dir string) (*StateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create state dir %s: %w", dir, err)
	}
	return &StateStore{dir: dir}, nil
}

func (s *StateStore) stateFile(collabName string) string {
	return filepath.Join(s.dir, collabName+stateFileSuffix)
}

// Read loads the state for a collaboration. A missing file returns
// (nil, nil) — nothing fetched yet. A corrupt file is an explicit error;
// the fix is `sigex fetch --clean`.
func (s *StateStore) Read(collabName string) (*CollabState, error) {
	data, err := os.ReadFile(s.stateFile(collabName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read state for %s: %w", collabName, err)
	}
	var cs CollabState
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("corrupt state for %s (try `sigex fetch --clean --only-collab %s`): %w",
			collabName, collabName, err)
	}
	if cs.Records == nil {
		cs.Records = map[string]map[string]*Metadata{}
	}
	return &cs, nil
}

// Write persists a collaboration's state atomically (temp file + rename).
func (s *StateStore) Write(collabName string, cs *CollabState) error {
	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal state for %s: %w", collabName, err)
	}
	tmp, err := os.CreateTemp(s.dir, collabName+".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot write state for %s: %w", collabName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.stateFile(collabName)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot replace state file for %s: %w", collabName, err)
	}
	return nil
}

// Clear deletes the stored state for a collaboration.
func (s *StateStore) Clear(collabName string) error {
	if err := os.Remove(s.stateFile(collabName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot clear state for %s: %w", collabName, err)
	}
	return nil
}

// Available lists collaborations with stored state.
func (s *StateStore) Available() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+stateFileSuffix))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSuffix(filepath.Base(m), stateFileSuffix))
	}
	sort.Strings(out)
	return out, nil
}

// entriesForType builds index entries for one collaboration's records of one
// signal type. The payload is the collaboration name, so matches can be
// traced back to the state store for opinions.
func entriesForType(collabName string, cs *CollabState, typeName string) []index.Entry {
	hashes := cs.HashesForType(typeName)
	out := make([]index.Entry, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, index.Entry{Hash: h, Payload: collabName})
	}
	return out
}
