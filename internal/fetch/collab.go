package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Collab describes one collaboration: what to fetch from which exchange.
// Fields beyond the common set are API-specific.
type Collab struct {
	// Name identifies the collaboration; it is also the state filename.
	Name string `yaml:"name"`
	// API names the ExchangeAPI this collaboration fetches from.
	API string `yaml:"api"`
	// Enabled collaborations are fetched and indexed; disabled ones keep
	// their state but are skipped.
	Enabled bool `yaml:"enabled"`
	// OnlySignalTypes, when non-empty, restricts fetching and indexing to
	// the listed signal types.
	OnlySignalTypes []string `yaml:"only_signal_types,omitempty"`
	// NotSignalTypes excludes the listed signal types.
	NotSignalTypes []string `yaml:"not_signal_types,omitempty"`

	// PrivacyGroup is the graph API dataset to fetch (graph API only).
	PrivacyGroup string `yaml:"privacy_group,omitempty"`
}

// WantsSignalType applies the only/not filters.
func (c *Collab) WantsSignalType(name string) bool {
	for _, t := range c.NotSignalTypes {
		if t == name {
			return false
		}
	}
	if len(c.OnlySignalTypes) == 0 {
		return true
	}
	for _, t := range c.OnlySignalTypes {
		if t == name {
			return true
		}
	}
	return false
}

const collabFileExtension = ".yaml"

// CollabStore keeps one YAML file per collaboration in a directory
// (typically ~/.sigex/collaborations).
type CollabStore struct {
	dir string
}

// NewCollabStore returns a store rooted at dir, creating it if needed.
func NewCollabStore(dir string) (*CollabStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create collaborations dir %s: %w", dir, err)
	}
	return &CollabStore{dir: dir}, nil
}

func (s *CollabStore) collabFile(name string) string {
	return filepath.Join(s.dir, name+collabFileExtension)
}

// GetAll loads every collaboration config, sorted by name.
func (s *CollabStore) GetAll() ([]*Collab, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+collabFileExtension))
	if err != nil {
		return nil, err
	}
	out := make([]*Collab, 0, len(matches))
	for _, path := range matches {
		c, err := readCollab(path)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get loads one collaboration by name; a missing config is an error.
func (s *CollabStore) Get(name string) (*Collab, error) {
	path := s.collabFile(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no collaboration named %q", name)
	}
	return readCollab(path)
}

// Save creates or updates a collaboration config.
func (s *CollabStore) Save(c *Collab) error {
	if c.Name == "" || strings.ContainsAny(c.Name, "/\\") {
		return fmt.Errorf("invalid collaboration name %q", c.Name)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cannot marshal collaboration %s: %w", c.Name, err)
	}
	if err := os.WriteFile(s.collabFile(c.Name), data, 0o644); err != nil {
		return fmt.Errorf("cannot write collaboration %s: %w", c.Name, err)
	}
	return nil
}

// Delete removes a collaboration config. Deleting a missing config is a
// no-op.
func (s *CollabStore) Delete(name string) error {
	if err := os.Remove(s.collabFile(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot delete collaboration %s: %w", name, err)
	}
	return nil
}

func readCollab(path string) (*Collab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read collaboration %s: %w", path, err)
	}
	var c Collab
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), collabFileExtension)
	}
	return &c, nil
}
