package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollabStore_RoundTrip(t *testing.T) {
	store, err := NewCollabStore(t.TempDir())
	require.NoError(t, err)

	c := &Collab{
		Name:            "industry-photos",
		API:             "graph",
		Enabled:         true,
		OnlySignalTypes: []string{"pdq"},
		PrivacyGroup:    "123456",
	}
	require.NoError(t, store.Save(c))

	got, err := store.Get("industry-photos")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	all, err := store.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "industry-photos", all[0].Name)
}

func TestCollabStore_GetAllSorted(t *testing.T) {
	store, err := NewCollabStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, store.Save(&Collab{Name: name, API: SampleAPIName, Enabled: true}))
	}
	all, err := store.GetAll()
	require.NoError(t, err)
	names := []string{all[0].Name, all[1].Name, all[2].Name}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestCollabStore_Delete(t *testing.T) {
	store, err := NewCollabStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&Collab{Name: "gone", API: SampleAPIName}))
	require.NoError(t, store.Delete("gone"))
	require.NoError(t, store.Delete("gone")) // idempotent

	_, err = store.Get("gone")
	assert.Error(t, err)
}

func TestCollabStore_RejectsBadNames(t *testing.T) {
	store, err := NewCollabStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Save(&Collab{Name: ""}))
	assert.Error(t, store.Save(&Collab{Name: "../escape"}))
}

func TestCollab_WantsSignalType(t *testing.T) {
	tests := []struct {
		name   string
		collab Collab
		stype  string
		want   bool
	}{
		{"no filters", Collab{}, "pdq", true},
		{"only includes", Collab{OnlySignalTypes: []string{"pdq"}}, "pdq", true},
		{"only excludes others", Collab{OnlySignalTypes: []string{"pdq"}}, "url", false},
		{"not excludes", Collab{NotSignalTypes: []string{"url"}}, "url", false},
		{"not wins over only", Collab{OnlySignalTypes: []string{"url"}, NotSignalTypes: []string{"url"}}, "url", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.collab.WantsSignalType(tc.stype))
		})
	}
}
