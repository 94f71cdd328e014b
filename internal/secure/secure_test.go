package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer(t *testing.T) {
	t.Parallel()

	b := NewBuffer(32)
	defer b.Destroy()

	require.Equal(t, 32, b.Len())
	assert.Len(t, b.Bytes(), 32)
}

func TestFromBytesZeroesSource(t *testing.T) {
	t.Parallel()

	src := []byte{0xde, 0xad, 0xbe, 0xef}
	b := FromBytes(src)
	defer b.Destroy()

	// Buffer owns the only live copy.
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b.Bytes())
	assert.Equal(t, []byte{0, 0, 0, 0}, src)
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	b := FromBytes([]byte("secret seed material"))
	data := b.Bytes()

	b.Destroy()

	assert.Nil(t, b.Bytes())
	assert.Equal(t, 0, b.Len())
	// The original backing array was wiped before release.
	for _, c := range data {
		assert.Zero(t, c)
	}
}

func TestDestroyIdempotent(t *testing.T) {
	t.Parallel()

	b := NewBuffer(16)
	b.Destroy()
	assert.NotPanics(t, func() { b.Destroy() })
}

func TestZero(t *testing.T) {
	t.Parallel()

	data := []byte{1, 2, 3}
	Zero(data)
	assert.Equal(t, []byte{0, 0, 0}, data)
}
