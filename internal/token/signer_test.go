package token_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgrieger/inkwell/internal/domain"
	"github.com/tgrieger/inkwell/internal/token"
)

const testSecret = "test-jwt-secret-key-for-testing-only"

func testPrincipal() domain.Principal {
	return domain.Principal{
		UserID: uuid.New(),
		Email:  "a@x.com",
		Name:   "Alice",
		Role:   domain.RoleUser,
	}
}

func TestSigner_RoundTrip(t *testing.T) {
	signer := token.NewSigner(testSecret, 15*time.Minute, 24*time.Hour)
	principal := testPrincipal()

	tests := []struct {
		name  string
		issue func(domain.Principal) (string, error)
	}{
		{name: "access token", issue: signer.IssueAccess},
		{name: "refresh token", issue: signer.IssueRefresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenString, err := tt.issue(principal)
			require.NoError(t, err)
			require.NotEmpty(t, tokenString)

			claims, err := signer.Parse(tokenString, false)
			require.NoError(t, err)

			assert.Equal(t, principal.UserID.String(), claims.Subject)
			assert.Equal(t, principal.Email, claims.Email)
			assert.Equal(t, principal.Role, claims.Role)

			parsed, err := claims.Principal()
			require.NoError(t, err)
			assert.Equal(t, principal.UserID, parsed.UserID)
			assert.Equal(t, principal.Email, parsed.Email)
			assert.Equal(t, principal.Role, parsed.Role)
		})
	}
}

func TestSigner_Expiry(t *testing.T) {
	// Negative TTLs mint tokens that are already past their expiry
	expired := token.NewSigner(testSecret, -time.Second, -time.Second)
	principal := testPrincipal()

	tokenString, err := expired.IssueAccess(principal)
	require.NoError(t, err)

	fresh := token.NewSigner(testSecret, 15*time.Minute, 24*time.Hour)

	// Strict parse rejects the expired token
	_, err = fresh.Parse(tokenString, false)
	assert.ErrorIs(t, err, token.ErrExpired)

	// The refresh path still gets the claims back
	claims, err := fresh.Parse(tokenString, true)
	require.NoError(t, err)
	assert.Equal(t, principal.UserID.String(), claims.Subject)
	assert.Equal(t, principal.Email, claims.Email)
}

func TestSigner_Invalid(t *testing.T) {
	signer := token.NewSigner(testSecret, 15*time.Minute, 24*time.Hour)
	other := token.NewSigner("a-completely-different-secret", 15*time.Minute, 24*time.Hour)

	wrongKey, err := other.IssueAccess(testPrincipal())
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong signing key", token: wrongKey},
		{name: "malformed token", token: "notavalidjwt"},
		{name: "garbage segments", token: "invalid.token.here"},
		{name: "empty token", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Invalid tokens stay invalid even with expiry tolerance
			for _, allowExpired := range []bool{false, true} {
				_, err := signer.Parse(tt.token, allowExpired)
				assert.ErrorIs(t, err, token.ErrInvalid)
			}
		})
	}
}

func TestClaims_PrincipalBadSubject(t *testing.T) {
	claims := &token.Claims{Email: "a@x.com", Role: domain.RoleUser}
	claims.Subject = "not-a-uuid"

	_, err := claims.Principal()
	assert.ErrorIs(t, err, token.ErrInvalid)
}
