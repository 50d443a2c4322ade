package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoMD5_Hash(t *testing.T) {
	vm := newVideoMD5Type()
	h, err := vm.HashFromBytes([]byte("not really a video"))
	require.NoError(t, err)
	assert.Len(t, h, md5HexLength)
	assert.True(t, vm.Validate(h))

	same, err := vm.HashFromBytes([]byte("not really a video"))
	require.NoError(t, err)
	assert.Equal(t, h, same)
}

func TestVideoMD5_Compare(t *testing.T) {
	vm := newVideoMD5Type()

	res, err := vm.Compare("d1b9f60cd9857e8b2deed98ca4eeb1e2", "d1b9f60cd9857e8b2deed98ca4eeb1e2")
	require.NoError(t, err)
	assert.Equal(t, ComparisonResult{Matched: true, Distance: 0}, res)

	res, err = vm.Compare("d1b9f60cd9857e8b2deed98ca4eeb1e2", "00000000000000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, ComparisonResult{Matched: false, Distance: 1}, res)
}
