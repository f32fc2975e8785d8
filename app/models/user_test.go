package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Taro@Example.COM", want: "taro@example.com"},
		{in: "  taro@example.com  ", want: "taro@example.com"},
		{in: "taro@example.com", want: "taro@example.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in))
		// normalization is idempotent
		assert.Equal(t, tt.want, NormalizeEmail(NormalizeEmail(tt.in)))
	}
}

func TestCreateUser(t *testing.T) {
	user, err := CreateUser("  Taro@Example.com ", "secret123")
	require.NoError(t, err)

	assert.Equal(t, "taro@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.Password, "password must be stored hashed")
	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("not-an-email", "secret123")
	assert.Error(t, err)

	_, err = CreateUser("taro@example.com", "short")
	assert.Error(t, err)
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("secret124", hash))
	assert.False(t, CheckPasswordHash("secret123", "not-a-bcrypt-hash"))
}
