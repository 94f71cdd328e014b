package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriplabs/scrip/internal/wallet"
)

func TestDefaultProfiles(t *testing.T) {
	t.Parallel()

	profiles := DefaultProfiles()
	require.Len(t, profiles, 2)

	assert.Equal(t, "hash", profiles[0].Name)
	assert.Equal(t, wallet.SchemeHash, profiles[0].Scheme)
	assert.Equal(t, PriorityNative, profiles[0].Priority)

	assert.Equal(t, "bip44", profiles[1].Name)
	assert.Equal(t, wallet.SchemeBIP44, profiles[1].Scheme)
	assert.Equal(t, PriorityInterop, profiles[1].Priority)
}

func TestProfileByName(t *testing.T) {
	t.Parallel()

	hash := ProfileByName("hash")
	require.NotNil(t, hash)
	assert.Equal(t, wallet.SchemeHash, hash.Scheme)

	bip44 := ProfileByName("bip44")
	require.NotNil(t, bip44)
	assert.Equal(t, wallet.SchemeBIP44, bip44.Scheme)

	assert.Nil(t, ProfileByName("slip10"))
	assert.Nil(t, ProfileByName(""))
}

func TestSortByPriority(t *testing.T) {
	t.Parallel()

	in := []Profile{
		{Name: "c", Priority: 3},
		{Name: "a", Priority: 1},
		{Name: "b", Priority: 2},
	}
	sorted := SortByPriority(in)

	require.Len(t, sorted, 3)
	assert.Equal(t, "a", sorted[0].Name)
	assert.Equal(t, "b", sorted[1].Name)
	assert.Equal(t, "c", sorted[2].Name)

	// Input order is untouched.
	assert.Equal(t, "c", in[0].Name)
}
