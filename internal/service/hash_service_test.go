package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2PinHasher_RoundTrip(t *testing.T) {
	hasher := NewArgon2PinHasher()

	hash, err := hasher.Hash("1234")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := hasher.Verify("1234", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("9999", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2PinHasher_DistinctSalts(t *testing.T) {
	hasher := NewArgon2PinHasher()

	first, err := hasher.Hash("1234")
	require.NoError(t, err)
	second, err := hasher.Hash("1234")
	require.NoError(t, err)

	// Fresh salt per digest: equal inputs still produce distinct hashes.
	assert.NotEqual(t, first, second)

	for _, h := range []string{first, second} {
		ok, err := hasher.Verify("1234", h)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestArgon2PinHasher_Verify_BadFormat(t *testing.T) {
	hasher := NewArgon2PinHasher()

	for _, bad := range []string{"", "plaintext", "$bcrypt$whatever$x$y$z"} {
		_, err := hasher.Verify("1234", bad)
		assert.Error(t, err)
	}
}
