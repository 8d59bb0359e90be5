package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

var cheapArgon = config.OTPConfig{
	ArgonMemoryKB:    64,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifySecret(t *testing.T) {
	hash, err := HashSecret("042917", cheapArgon)
	require.NoError(t, err)
	assert.NotContains(t, hash, "042917")
	assert.Regexp(t, `^\$argon2id\$v=19\$m=64,t=1,p=1\$[A-Za-z0-9+/]+\$[A-Za-z0-9+/]+$`, hash)

	ok, err := VerifySecret("042917", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySecret("042918", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := HashSecret("042917", cheapArgon)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "every hash gets a fresh salt")

	_, err = HashSecret("", cheapArgon)
	require.Error(t, err)
}

func TestVerifySurvivesConfigChange(t *testing.T) {
	hash, err := HashSecret("555123", cheapArgon)
	require.NoError(t, err)

	// Parameters come from the hash, not from whatever is configured now.
	ok, err := VerifySecret("555123", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(8), paramsFromConfig(config.OTPConfig{}).memory)
}

func TestVerifySecretRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2id$v=19$m=x$salt$hash",
		"$argon2id$v=16$m=64,t=1,p=1$c2FsdHNhbHQ$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHQ$aGFzaA",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
	} {
		_, err := VerifySecret("123456", encoded)
		assert.ErrorIs(t, err, ErrInvalidHash, encoded)
	}
}

func TestGenerateNumericCode(t *testing.T) {
	for range 50 {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
	for _, n := range []int{0, 19} {
		_, err := GenerateNumericCode(n)
		assert.Error(t, err)
	}
}
