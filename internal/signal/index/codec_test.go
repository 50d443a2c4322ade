package index

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, idx Index, cmp CompareFunc) Index {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, idx.Serialize(&buf))
	out, err := Deserialize(&buf, cmp)
	require.NoError(t, err)
	return out
}

func TestRoundTrip_Exact(t *testing.T) {
	idx := NewExact()
	idx.Add([]Entry{
		{Hash: "abc", Payload: "collab-a"},
		{Hash: "abc", Payload: "collab-b"},
		{Hash: "def", Payload: "collab-a"},
	})

	out := roundTrip(t, idx, nil)
	assert.Equal(t, ClassExact, out.Class())
	assert.Equal(t, idx.Size(), out.Size())
	for _, h := range []string{"abc", "def", "missing"} {
		assert.ElementsMatch(t, idx.Query(h), out.Query(h), "query %q", h)
	}
}

func TestRoundTrip_Linear(t *testing.T) {
	idx := NewLinear(prefixCompare)
	idx.Add([]Entry{
		{Hash: "foo-one", Payload: "a"},
		{Hash: "foo-two", Payload: "b"},
		{Hash: "bar-one", Payload: "c"},
	})

	out := roundTrip(t, idx, prefixCompare)
	assert.Equal(t, ClassLinear, out.Class())
	assert.Equal(t, idx.Size(), out.Size())
	for _, h := range []string{"foo-one", "bar-one", "zzz"} {
		assert.Equal(t, idx.Query(h), out.Query(h), "query %q", h)
	}
}

func TestRoundTrip_EmptyIndex(t *testing.T) {
	out := roundTrip(t, NewExact(), nil)
	assert.Equal(t, 0, out.Size())
	assert.Empty(t, out.Query("anything"))
}

func TestDeserialize_Corrupt(t *testing.T) {
	var valid bytes.Buffer
	idx := NewExact()
	idx.Add([]Entry{{Hash: "abc", Payload: "p"}})
	require.NoError(t, idx.Serialize(&valid))

	tests := []struct {
		name string
		blob []byte
	}{
		{"empty", nil},
		{"foreign bytes", []byte("{\"not\": \"an index\"}")},
		{"bad magic", append([]byte("XXXX"), valid.Bytes()[4:]...)},
		{"truncated", valid.Bytes()[:valid.Len()-3]},
		{"trailing garbage", append(append([]byte{}, valid.Bytes()...), 0xde, 0xad)},
		// Header claims four billion entries but carries no data. Must fail
		// as corrupt without allocating room for the claimed count.
		{"huge entry count", append(append([]byte{}, valid.Bytes()[:7]...), 0xff, 0xff, 0xff, 0xff)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Deserialize(bytes.NewReader(tc.blob), nil)
			assert.ErrorIs(t, err, ErrCorruptIndex)
		})
	}
}

func TestDeserialize_BadVersion(t *testing.T) {
	var valid bytes.Buffer
	require.NoError(t, NewExact().Serialize(&valid))
	blob := valid.Bytes()
	blob[4] = 0xff // bump version field

	_, err := Deserialize(bytes.NewReader(blob), nil)
	assert.ErrorIs(t, err, ErrCorruptIndex)
}
