package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	idx := NewExact()
	idx.Add([]Entry{{Hash: "abc", Payload: "collab-a"}})
	require.NoError(t, store.Save("video_md5", ClassExact, idx))

	loaded, err := store.Load("video_md5", ClassExact, nil)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, idx.Query("abc"), loaded.Query("abc"))

	available, err := store.Available()
	require.NoError(t, err)
	assert.Equal(t, []string{"video_md5"}, available)
}

func TestStore_LoadMissingReturnsNil(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	idx, err := store.Load("pdq", ClassLinear, prefixCompare)
	require.NoError(t, err)
	assert.Nil(t, idx)
}

func TestStore_ClassMismatch(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	// Saving an index whose class contradicts the declared one fails loudly.
	err = store.Save("pdq", ClassLinear, NewExact())
	assert.ErrorIs(t, err, ErrClassMismatch)

	// A stored blob whose class contradicts the declared one fails on load.
	require.NoError(t, store.Save("pdq", ClassExact, NewExact()))
	_, err = store.Load("pdq", ClassLinear, prefixCompare)
	assert.ErrorIs(t, err, ErrClassMismatch)
}

func TestStore_LoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pdq"+FileExtension), []byte("garbage"), 0o644))
	_, err = store.Load("pdq", ClassLinear, prefixCompare)
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestStore_Clear(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("a", ClassExact, NewExact()))
	require.NoError(t, store.Save("b", ClassExact, NewExact()))

	require.NoError(t, store.Clear("a"))
	available, err := store.Available()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, available)

	require.NoError(t, store.Clear())
	available, err = store.Available()
	require.NoError(t, err)
	assert.Empty(t, available)
}
