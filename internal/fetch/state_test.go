package fetch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metaWithOwner(owner int64) *Metadata {
	return &Metadata{Opinions: []Opinion{{Owner: owner, Category: TruePositive}}}
}

func TestCollabState_Apply(t *testing.T) {
	cs := NewCollabState()
	cs.Apply(&Delta{
		Updates: []Update{
			{SignalType: "video_md5", Hash: "aaa", Metadata: metaWithOwner(1)},
			{SignalType: "video_md5", Hash: "bbb", Metadata: metaWithOwner(2)},
			{SignalType: "raw_text", Hash: "some text", Metadata: metaWithOwner(3)},
		},
		Checkpoint: Checkpoint{LastFetch: 100},
	})

	assert.Equal(t, []string{"aaa", "bbb"}, cs.HashesForType("video_md5"))
	assert.Equal(t, map[string]int{"video_md5": 2, "raw_text": 1}, cs.TypeCounts())
	assert.Equal(t, int64(100), cs.Checkpoint.LastFetch)

	// A later delta overrides one record and tombstones another.
	cs.Apply(&Delta{
		Updates: []Update{
			{SignalType: "video_md5", Hash: "aaa", Metadata: metaWithOwner(9)},
			{SignalType: "video_md5", Hash: "bbb", Metadata: nil},
		},
		Checkpoint: Checkpoint{LastFetch: 200},
	})

	assert.Equal(t, []string{"aaa"}, cs.HashesForType("video_md5"))
	assert.Equal(t, int64(9), cs.Records["video_md5"]["aaa"].Opinions[0].Owner)
	assert.Equal(t, int64(200), cs.Checkpoint.LastFetch)

	// Tombstoning the last record of a type drops the type entirely.
	cs.Apply(&Delta{Updates: []Update{{SignalType: "raw_text", Hash: "some text"}}})
	assert.NotContains(t, cs.TypeCounts(), "raw_text")
}

func TestStateStore_RoundTrip(t *testing.T) {
	store, err := NewStateStore(t.TempDir())
	require.NoError(t, err)

	cs := NewCollabState()
	cs.Apply(&Delta{
		Updates:    []Update{{SignalType: "url", Hash: "https://example.com/a", Metadata: metaWithOwner(7)}},
		Checkpoint: Checkpoint{LastFullFetch: 10, LastFetch: 20, Cursor: "page-2"},
	})
	require.NoError(t, store.Write("my-collab", cs))

	out, err := store.Read("my-collab")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, cs.Checkpoint, out.Checkpoint)
	assert.Equal(t, []string{"https://example.com/a"}, out.HashesForType("url"))
	assert.Equal(t, int64(7), out.Records["url"]["https://example.com/a"].Opinions[0].Owner)

	available, err := store.Available()
	require.NoError(t, err)
	assert.Equal(t, []string{"my-collab"}, available)
}

func TestStateStore_ReadMissing(t *testing.T) {
	store, err := NewStateStore(t.TempDir())
	require.NoError(t, err)

	cs, err := store.Read("never-fetched")
	require.NoError(t, err)
	assert.Nil(t, cs)
}

func TestStateStore_ReadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStateStore(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "broken"+stateFileSuffix)
	require.NoError(t, os.WriteFile(path, []byte("not json{"), 0o644))

	_, err = store.Read("broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--clean")
}

func TestStateStore_Clear(t *testing.T) {
	store, err := NewStateStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Write("c", NewCollabState()))
	require.NoError(t, store.Clear("c"))
	require.NoError(t, store.Clear("c")) // idempotent

	cs, err := store.Read("c")
	require.NoError(t, err)
	assert.Nil(t, cs)
}

func TestCheckpoint_Stale(t *testing.T) {
	cp := &Checkpoint{LastFullFetch: 1000}

	assert.False(t, cp.Stale(0, time.Unix(999999, 0)), "zero window never goes stale")
	assert.False(t, cp.Stale(time.Hour, time.Unix(1000+3599, 0)))
	assert.True(t, cp.Stale(time.Hour, time.Unix(1000+3601, 0)))

	var nilCp *Checkpoint
	assert.False(t, nilCp.Stale(time.Hour, time.Unix(999999, 0)))
}
