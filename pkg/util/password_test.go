package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	PasswordCost = bcrypt.MinCost

	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	assert.NotContains(t, hash, "hunter2")
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.True(t, CheckPassword("hunter2", hash))
	assert.False(t, CheckPassword("hunter3", hash))
}

func TestHashPassword_Salted(t *testing.T) {
	PasswordCost = bcrypt.MinCost

	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestFormatLoginAttemptKey(t *testing.T) {
	assert.Equal(t, "login_attempts:a@example.com", FormatLoginAttemptKey("a@example.com"))
}
