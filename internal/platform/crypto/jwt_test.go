package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken_RoundTrip(t *testing.T) {
	token, jti, err := GenerateToken("test-secret", "admin", RoleOperator, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, jti)

	claims, err := ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "admin", claims.Sub)
	assert.Equal(t, RoleOperator, claims.Role)
}

func TestGenerateToken_EmptySecret(t *testing.T) {
	_, _, err := GenerateToken("", "admin", RoleOperator, time.Hour)
	assert.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, err := GenerateToken("test-secret", "admin", RoleOperator, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseToken_Expired(t *testing.T) {
	token, _, err := GenerateToken("test-secret", "admin", RoleOperator, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("test-secret", token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	c := Claims{Sub: "admin", Role: RoleOperator, RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken("test-secret", token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken("test-secret", "not.a.token")
	assert.Error(t, err)
}

func TestParseToken_RequiresExpiry(t *testing.T) {
	c := Claims{Sub: "admin", Role: RoleOperator, RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ParseToken("test-secret", token)
	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
}

func TestParseToken_WrongIssuer(t *testing.T) {
	c := Claims{Sub: "admin", Role: RoleOperator, RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ParseToken("test-secret", token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}
