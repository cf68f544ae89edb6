package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tokens, err := NewTokens(testSecret, "taskboard-test", time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens
}

func TestNewTokensRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokens([]byte("short"), "iss", 0, 0)
	require.ErrorIs(t, err, ErrWeakSecret)
}

func TestNewTokensDefaultsTTLs(t *testing.T) {
	t.Parallel()

	tokens, err := NewTokens(testSecret, "iss", 0, 0)
	require.NoError(t, err)
	require.Equal(t, DefaultAccessTokenTTL, tokens.AccessTTL)
	require.Equal(t, DefaultRefreshTokenTTL, tokens.RefreshTTL)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)
	now := time.Now()

	raw, err := tokens.SignAccess("user-1", "user@example.com", "admin", now)
	require.NoError(t, err)

	claims, err := tokens.VerifyAccess(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "user@example.com", claims.Email)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, TokenTypeAccess, claims.TokenType)
	require.NotEmpty(t, claims.ID)
}

func TestRefreshTokenCarriesIdentityOnly(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)

	raw, err := tokens.SignRefresh("user-1", time.Now())
	require.NoError(t, err)

	claims, err := tokens.VerifyRefresh(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Empty(t, claims.Email)
	require.Empty(t, claims.Role)
}

func TestTokenKindConfusionRejected(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)
	now := time.Now()

	access, err := tokens.SignAccess("user-1", "u@example.com", "user", now)
	require.NoError(t, err)
	refresh, err := tokens.SignRefresh("user-1", now)
	require.NoError(t, err)

	_, err = tokens.VerifyRefresh(access)
	require.ErrorIs(t, err, ErrTokenType)

	_, err = tokens.VerifyAccess(refresh)
	require.ErrorIs(t, err, ErrTokenType)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)

	raw, err := tokens.SignAccess("user-1", "u@example.com", "user", time.Now().Add(-2*time.Minute))
	require.NoError(t, err)

	_, err = tokens.VerifyAccess(raw)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)
	other, err := NewTokens([]byte("ffffffffffffffffffffffffffffffff"), "taskboard-test", time.Minute, time.Hour)
	require.NoError(t, err)

	raw, err := tokens.SignAccess("user-1", "u@example.com", "user", time.Now())
	require.NoError(t, err)

	_, err = other.VerifyAccess(raw)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)
	other, err := NewTokens(testSecret, "someone-else", time.Minute, time.Hour)
	require.NoError(t, err)

	raw, err := tokens.SignAccess("user-1", "u@example.com", "user", time.Now())
	require.NoError(t, err)

	_, err = other.VerifyAccess(raw)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)

	_, err := tokens.VerifyAccess("not-a-jwt")
	require.ErrorIs(t, err, ErrMalformed)

	raw, err := tokens.SignAccess("user-1", "u@example.com", "user", time.Now())
	require.NoError(t, err)

	// Tamper with the payload segment.
	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	parts[1] = strings.Repeat("A", len(parts[1]))
	_, err = tokens.VerifyAccess(strings.Join(parts, "."))
	require.Error(t, err)
}

func TestAccessVerifierAdapter(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)

	raw, err := tokens.SignAccess("user-1", "u@example.com", "user", time.Now())
	require.NoError(t, err)

	claims, err := tokens.AccessVerifier().Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
}
