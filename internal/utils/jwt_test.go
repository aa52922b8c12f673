package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()

	token, err := GenerateToken(secret, userID, true, time.Hour)
	require.NoError(t, err)

	parsedID, isAdmin, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsedID)
	assert.True(t, isAdmin)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", uuid.New(), false, time.Hour)
	require.NoError(t, err)

	_, _, err = ParseToken("secret-b", token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", uuid.New(), false, -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseToken("secret", token)
	assert.Error(t, err)
}
