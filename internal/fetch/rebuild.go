package fetch

import (
	"fmt"

	"github.com/sigexhq/sigex-cli/internal/signal"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

// RebuildIndexes rebuilds every signal type's match index from the fetched
// state of all enabled collaborations. Each index is built fresh and swapped
// in atomically — this is also how deletions take effect, since indexes are
// append-only. Types that end up with zero entries get their index file
// removed. Returns entry counts per signal type.
func RebuildIndexes(reg *signal.Registry, collabs []*Collab, states *StateStore, indexes *index.Store) (map[string]int, error) {
	loaded := make(map[string]*CollabState)
	for _, c := range collabs {
		if !c.Enabled {
			continue
		}
		cs, err := states.Read(c.Name)
		if err != nil {
			return nil, err
		}
		if cs != nil {
			loaded[c.Name] = cs
		}
	}

	counts := make(map[string]int)
	for _, st := range reg.All() {
		var entries []index.Entry
		for _, c := range collabs {
			cs, ok := loaded[c.Name]
			if !ok || !c.WantsSignalType(st.Name) {
				continue
			}
			entries = append(entries, entriesForType(c.Name, cs, st.Name)...)
		}
		if len(entries) == 0 {
			if err := indexes.Clear(st.Name); err != nil {
				return nil, err
			}
			continue
		}
		idx, err := index.Build(st.IndexClass, st.IndexCompare(), entries)
		if err != nil {
			return nil, fmt.Errorf("cannot build %s index: %w", st.Name, err)
		}
		if err := indexes.Save(st.Name, st.IndexClass, idx); err != nil {
			return nil, err
		}
		counts[st.Name] = len(entries)
	}
	return counts, nil
}
