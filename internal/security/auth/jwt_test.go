package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm, err := NewTokenManager("s3cret", "")
	require.NoError(t, err)

	token, err := tm.GenerateToken("cli", "Ada", time.Hour)
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "cli", claims.Subject)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	tm, err := NewTokenManager("s3cret", "")
	require.NoError(t, err)
	other, err := NewTokenManager("different", "")
	require.NoError(t, err)

	foreign, err := other.GenerateToken("cli", "", time.Hour)
	require.NoError(t, err)
	_, err = tm.ValidateToken(foreign)
	assert.Error(t, err)

	expired, err := tm.GenerateToken("cli", "", -time.Minute)
	require.NoError(t, err)
	_, err = tm.ValidateToken(expired)
	assert.Error(t, err)

	otherIssuer, err := NewTokenManager("s3cret", "someone-else")
	require.NoError(t, err)
	wrongIss, err := otherIssuer.GenerateToken("cli", "", time.Hour)
	require.NoError(t, err)
	_, err = tm.ValidateToken(wrongIss)
	assert.Error(t, err)

	_, err = tm.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", "")
	assert.Error(t, err)
}

func TestGenerateToken_RequiresSubject(t *testing.T) {
	tm, err := NewTokenManager("s3cret", "")
	require.NoError(t, err)
	_, err = tm.GenerateToken("", "", time.Hour)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	tok, err := ExtractToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	tok, err = ExtractToken("bearer   xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer a b"} {
		_, err := ExtractToken(h)
		assert.Error(t, err, "header %q", h)
	}
}
