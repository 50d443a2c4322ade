package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigexhq/sigex-cli/internal/content"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

func TestRegistry_ByName(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	pdq, err := reg.ByName(TypePDQ)
	require.NoError(t, err)
	assert.Equal(t, TypePDQ, pdq.Name)
	assert.Equal(t, index.ClassLinear, pdq.IndexClass)

	_, err = reg.ByName("no_such_type")
	assert.ErrorIs(t, err, ErrUnknownSignalType)
}

func TestRegistry_All(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	names := []string{}
	for _, st := range reg.All() {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{TypePDQ, TypeVideoMD5, TypeURL, TypeURLMD5, TypeRawText, TypeTextTLSH}, names)
}

func TestRegistry_ForContentType(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	photo := reg.ForContentType(content.Photo)
	require.Len(t, photo, 1)
	assert.Equal(t, TypePDQ, photo[0].Name)

	urls := reg.ForContentType(content.URL)
	assert.Len(t, urls, 2)
}

func TestRegistry_ForIndicator(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	got := reg.ForIndicator("RAW_URI")
	require.Len(t, got, 1)
	assert.Equal(t, TypeURL, got[0].Name)

	assert.Empty(t, reg.ForIndicator("HASH_UNKNOWN"))
}

func TestRegistry_Extensions(t *testing.T) {
	custom := &Type{
		Name:         "custom_exact",
		ContentTypes: []content.Type{content.Text},
		IndexClass:   index.ClassExact,
		Compare:      compareExactString,
		Validate:     func(string) bool { return true },
	}
	reg, err := NewRegistry(custom)
	require.NoError(t, err)
	got, err := reg.ByName("custom_exact")
	require.NoError(t, err)
	assert.Same(t, custom, got)

	// Duplicate names are rejected.
	_, err = NewRegistry(custom, custom)
	assert.Error(t, err)
}
