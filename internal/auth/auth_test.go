package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

func TestHashPassword(t *testing.T) {
	t.Run("Successfully hash password", func(t *testing.T) {
		password := "mySecurePassword123"
		hashed, err := HashPassword(password)

		assert.NoError(t, err)
		assert.NotEmpty(t, hashed)
		assert.NotEqual(t, password, hashed)
	})

	t.Run("Different hashes for same password", func(t *testing.T) {
		password := "samePassword"
		hash1, _ := HashPassword(password)
		hash2, _ := HashPassword(password)

		assert.NotEqual(t, hash1, hash2)
	})
}

func TestCheckPassword(t *testing.T) {
	password := "correctPassword"
	hashed, _ := HashPassword(password)

	t.Run("Correct password", func(t *testing.T) {
		assert.True(t, CheckPassword(hashed, password))
	})

	t.Run("Incorrect password", func(t *testing.T) {
		assert.False(t, CheckPassword(hashed, "wrongPassword"))
	})

	t.Run("Empty password", func(t *testing.T) {
		assert.False(t, CheckPassword(hashed, ""))
	})
}

func TestGenerateAccessToken(t *testing.T) {
	t.Run("Successfully generate access token", func(t *testing.T) {
		token, err := GenerateAccessToken(1, "member@example.com", RoleMember, testSecret)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("Fail with empty secret", func(t *testing.T) {
		token, err := GenerateAccessToken(1, "member@example.com", RoleMember, "")

		assert.Error(t, err)
		assert.Equal(t, ErrEmptyJWTSecret, err)
		assert.Empty(t, token)
	})

	t.Run("Token contains correct claims", func(t *testing.T) {
		memberID := 42
		email := "test@example.com"
		role := RoleStaff

		token, err := GenerateAccessToken(memberID, email, role, testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)

		assert.Equal(t, memberID, claims.MemberID)
		assert.Equal(t, email, claims.Email)
		assert.Equal(t, role, claims.Role)
		assert.Equal(t, "access", claims.TokenType)
	})
}

func TestValidateToken(t *testing.T) {
	t.Run("Reject token signed with other secret", func(t *testing.T) {
		token, err := GenerateAccessToken(1, "member@example.com", RoleMember, testSecret)
		require.NoError(t, err)

		_, err = ValidateToken(token, "different-secret")
		assert.Error(t, err)
	})

	t.Run("Reject garbage", func(t *testing.T) {
		_, err := ValidateToken("not.a.token", testSecret)
		assert.Error(t, err)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	t.Run("Exchange refresh for access", func(t *testing.T) {
		_, refresh, err := GenerateTokens(7, "member@example.com", RoleMember, testSecret)
		require.NoError(t, err)

		access, claims, err := RefreshAccessToken(refresh, testSecret)
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.Equal(t, 7, claims.MemberID)
	})

	t.Run("Reject access token as refresh", func(t *testing.T) {
		access, err := GenerateAccessToken(7, "member@example.com", RoleMember, testSecret)
		require.NoError(t, err)

		_, _, err = RefreshAccessToken(access, testSecret)
		assert.Equal(t, ErrInvalidTokenType, err)
	})
}
