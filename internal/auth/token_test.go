package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"configllm/internal/config"
	"configllm/internal/domain"
)

func testAuthority(t *testing.T) *Authority {
	t.Helper()
	a, err := NewAuthority(config.AuthConfig{Secret: "s3cret", Issuer: "configllm", TokenExpiry: time.Hour})
	require.NoError(t, err)
	return a
}

func TestAuthority_IssueAndValidate(t *testing.T) {
	a := testAuthority(t)

	tok, err := a.Issue("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)

	claims, err := a.Validate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Operator)
	assert.Equal(t, "configllm", claims.Issuer)
}

func TestAuthority_RequiresSecret(t *testing.T) {
	_, err := NewAuthority(config.AuthConfig{})
	assert.Error(t, err)
}

func TestAuthority_Expired(t *testing.T) {
	a := testAuthority(t)
	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := a.Issue("alice")
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.Validate(tok.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthority_WrongSecret(t *testing.T) {
	tok, err := testAuthority(t).Issue("alice")
	require.NoError(t, err)

	other, err := NewAuthority(config.AuthConfig{Secret: "other", Issuer: "configllm"})
	require.NoError(t, err)
	_, err = other.Validate(tok.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthority_WrongAudience(t *testing.T) {
	a := testAuthority(t)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "configllm",
		Audience:  jwt.ClaimStrings{"refresh"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = a.Validate(signed)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthority_RejectsNoneAlg(t *testing.T) {
	a := testAuthority(t)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:   "configllm",
		Audience: jwt.ClaimStrings{audience},
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.Validate(signed)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
