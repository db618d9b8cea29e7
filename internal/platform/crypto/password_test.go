package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3r$ecret", hash)

	assert.True(t, VerifyPassword(hash, "Sup3r$ecret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "Sup3r$ecret"))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		want     error
	}{
		{"Test123!@#", nil},
		{"SecureP@ss1", nil},
		{"Str0ng#Pass", nil},
		{"Test1!", ErrPasswordTooShort},
		{"Abc12", ErrPasswordTooShort},
		{"test123!@#", ErrPasswordNoUpper},
		{"TEST123!@#", ErrPasswordNoLower},
		{"TestPass!@#", ErrPasswordNoNumber},
		{"TestPass123", ErrPasswordNoSpecialChar},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePasswordStrength(tt.password))
		})
	}
}
