package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"8 characters", "password", nil},
		{"72 bytes", strings.Repeat("a", 72), nil},
		{"7 characters", "1234567", ErrPasswordTooShort},
		{"empty", "", ErrPasswordTooShort},
		{"73 bytes", strings.Repeat("a", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("admin-secret-1")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$12$"), "bcrypt hash with cost 12")
	assert.True(t, CheckPassword("admin-secret-1", hash))
	assert.False(t, CheckPassword("Admin-secret-1", hash))
	assert.False(t, CheckPassword("", hash))
}

func TestHashPassword_ShortPasswordNotHashed(t *testing.T) {
	hash, err := HashPassword("short")

	assert.ErrorIs(t, err, ErrPasswordTooShort)
	assert.Empty(t, hash)
}

func TestHashPassword_Salted(t *testing.T) {
	hash1, err := HashPassword("samepassword")
	require.NoError(t, err)
	hash2, err := HashPassword("samepassword")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	assert.False(t, CheckPassword("password", "not-a-hash"))
	assert.False(t, CheckPassword("password", ""))
}
