package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	password := "my-secure-password"
	hash, err := HashPassword(password)

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("A", 100))
	assert.Error(t, err)
}

func TestCheckPasswordHash(t *testing.T) {
	for _, password := range []string{"my-secure-password", "x", "pässwörd ✓", strings.Repeat("z", 60)} {
		hash, err := HashPassword(password)
		assert.NoError(t, err)

		assert.True(t, CheckPasswordHash(password, hash))
		assert.False(t, CheckPasswordHash(password+"!", hash))
		assert.False(t, CheckPasswordHash("", hash))
	}
}

func TestCheckPasswordHash_Garbage(t *testing.T) {
	assert.False(t, CheckPasswordHash("anything", "not-a-bcrypt-hash"))
}
