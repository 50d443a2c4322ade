package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigexhq/sigex-cli/internal/signal"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

// Fetches the static sample collaboration, rebuilds indexes, and queries
// them — the whole pipeline the CLI runs on `sigex fetch`.
func TestRebuildIndexes_FromSampleFetch(t *testing.T) {
	reg, err := signal.NewRegistry()
	require.NoError(t, err)
	states, err := NewStateStore(t.TempDir())
	require.NoError(t, err)
	indexes, err := index.NewStore(t.TempDir())
	require.NoError(t, err)

	collab := &Collab{Name: "sample-collab", API: SampleAPIName, Enabled: true}
	api := NewStaticSampleAPI(reg)

	_, err = NewFetcher([]ExchangeAPI{api}, states, Options{}).Run(context.Background(), []*Collab{collab})
	require.NoError(t, err)

	counts, err := RebuildIndexes(reg, []*Collab{collab}, states, indexes)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[signal.TypePDQ])
	assert.Equal(t, 3, counts[signal.TypeRawText])

	// Exact index: the sample video MD5 matches at distance 0.
	vmd5, err := reg.ByName(signal.TypeVideoMD5)
	require.NoError(t, err)
	idx, err := indexes.Load(vmd5.Name, vmd5.IndexClass, vmd5.IndexCompare())
	require.NoError(t, err)
	require.NotNil(t, idx)
	got := idx.Query("d1b9f60cd9857e8b2deed98ca4eeb1e2")
	require.Len(t, got, 1)
	assert.Equal(t, index.Match{Distance: 0, Payload: "sample-collab"}, got[0])

	// Linear index: a near-duplicate of a sample text matches fuzzily.
	rt, err := reg.ByName(signal.TypeRawText)
	require.NoError(t, err)
	tidx, err := indexes.Load(rt.Name, rt.IndexClass, rt.IndexCompare())
	require.NoError(t, err)
	require.NotNil(t, tidx)
	query, err := rt.HashFromString("The quick brown fox jumps over the lazy dot")
	require.NoError(t, err)
	matches := tidx.Query(query)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].Distance)
	assert.Equal(t, "sample-collab", matches[0].Payload)
}

func TestRebuildIndexes_HonorsCollabFilters(t *testing.T) {
	reg, err := signal.NewRegistry()
	require.NoError(t, err)
	states, err := NewStateStore(t.TempDir())
	require.NoError(t, err)
	indexes, err := index.NewStore(t.TempDir())
	require.NoError(t, err)

	collab := &Collab{
		Name:            "urls-only",
		API:             SampleAPIName,
		Enabled:         true,
		OnlySignalTypes: []string{signal.TypeURL},
	}
	_, err = NewFetcher([]ExchangeAPI{NewStaticSampleAPI(reg)}, states, Options{}).
		Run(context.Background(), []*Collab{collab})
	require.NoError(t, err)

	counts, err := RebuildIndexes(reg, []*Collab{collab}, states, indexes)
	require.NoError(t, err)
	assert.Contains(t, counts, signal.TypeURL)
	assert.NotContains(t, counts, signal.TypePDQ)

	available, err := indexes.Available()
	require.NoError(t, err)
	assert.Equal(t, []string{signal.TypeURL}, available)
}

func TestRebuildIndexes_DeletionsDropIndex(t *testing.T) {
	reg, err := signal.NewRegistry()
	require.NoError(t, err)
	states, err := NewStateStore(t.TempDir())
	require.NoError(t, err)
	indexes, err := index.NewStore(t.TempDir())
	require.NoError(t, err)

	collab := &Collab{Name: "c", API: "x", Enabled: true}
	cs := NewCollabState()
	cs.Apply(&Delta{Updates: []Update{
		{SignalType: signal.TypeVideoMD5, Hash: "d1b9f60cd9857e8b2deed98ca4eeb1e2", Metadata: metaWithOwner(1)},
	}})
	require.NoError(t, states.Write("c", cs))

	_, err = RebuildIndexes(reg, []*Collab{collab}, states, indexes)
	require.NoError(t, err)
	available, _ := indexes.Available()
	assert.Equal(t, []string{signal.TypeVideoMD5}, available)

	// Tombstone the only record; the rebuild removes the index file.
	cs.Apply(&Delta{Updates: []Update{{SignalType: signal.TypeVideoMD5, Hash: "d1b9f60cd9857e8b2deed98ca4eeb1e2"}}})
	require.NoError(t, states.Write("c", cs))

	_, err = RebuildIndexes(reg, []*Collab{collab}, states, indexes)
	require.NoError(t, err)
	available, _ = indexes.Available()
	assert.Empty(t, available)
}
