package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgrieger/inkwell/internal/domain"
	repoPostgres "github.com/tgrieger/inkwell/internal/repository/postgres"
	"github.com/tgrieger/inkwell/internal/service"
	"github.com/tgrieger/inkwell/internal/session"
	"github.com/tgrieger/inkwell/internal/testutil"
)

func newAuthService(t *testing.T) (*service.AuthService, *testutil.TestDB, session.Store, *testutil.CapturePublisher) {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	repos := repoPostgres.NewRepositories(testDB.DB)
	sessions := session.NewMemoryStore()
	events := &testutil.CapturePublisher{}
	authService := service.NewAuthService(repos.User, sessions, testutil.TestSigner(), events)

	return authService, testDB, sessions, events
}

func TestAuthService_Register(t *testing.T) {
	authService, testDB, _, events := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   service.RegisterInput
		setup   func()
		wantErr error
	}{
		{
			name: "successful registration",
			input: service.RegisterInput{
				Email:    "new@example.com",
				Name:     "newuser",
				Password: "password123",
			},
		},
		{
			name: "duplicate email",
			input: service.RegisterInput{
				Email:    "existing@example.com",
				Name:     "someone",
				Password: "password123",
			},
			setup: func() {
				testutil.NewUserBuilder().
					WithEmail("existing@example.com").
					Build(t, testDB.DB)
			},
			wantErr: domain.ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDB.Truncate(t)

			if tt.setup != nil {
				tt.setup()
			}

			result, err := authService.Register(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.input.Email, result.User.Email)
			assert.Equal(t, domain.RoleUser, result.User.Role)
			assert.NotEmpty(t, result.AccessToken)
			assert.NotEmpty(t, result.RefreshToken)

			published := events.Events()
			require.NotEmpty(t, published)
			assert.Equal(t, domain.EventUserRegistered, published[len(published)-1].Type)
		})
	}
}

func TestAuthService_SignIn(t *testing.T) {
	authService, testDB, sessions, _ := newAuthService(t)
	ctx := context.Background()

	user, rawPassword := testutil.NewUserBuilder().
		WithEmail("login@example.com").
		WithPassword("correctpassword").
		Build(t, testDB.DB)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "successful sign-in",
			email:    user.Email,
			password: rawPassword,
		},
		{
			name:     "wrong password",
			email:    user.Email,
			password: "wrongpassword",
			wantErr:  domain.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "nobody@x.com",
			password: "anypassword",
			wantErr:  domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := authService.SignIn(ctx, tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, user.ID, result.User.ID)
			assert.NotEmpty(t, result.AccessToken)
			assert.NotEmpty(t, result.RefreshToken)
		})
	}

	t.Run("failed sign-in leaves no session", func(t *testing.T) {
		other, _ := testutil.NewUserBuilder().
			WithEmail("untouched@example.com").
			Build(t, testDB.DB)

		_, err := authService.SignIn(ctx, other.Email, "wrongpassword")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)

		_, err = sessions.Get(ctx, other.ID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestAuthService_SingleActiveSession(t *testing.T) {
	authService, testDB, sessions, _ := newAuthService(t)
	ctx := context.Background()

	user, rawPassword := testutil.NewUserBuilder().Build(t, testDB.DB)

	first, err := authService.SignIn(ctx, user.Email, rawPassword)
	require.NoError(t, err)

	second, err := authService.SignIn(ctx, user.Email, rawPassword)
	require.NoError(t, err)

	// Exactly one refresh token survives, and it is the second one
	stored, err := sessions.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.RefreshToken, stored)
	assert.NotEqual(t, first.RefreshToken, stored)
}

func TestAuthService_Refresh(t *testing.T) {
	authService, testDB, _, _ := newAuthService(t)
	ctx := context.Background()

	user, rawPassword := testutil.NewUserBuilder().Build(t, testDB.DB)

	result, err := authService.SignIn(ctx, user.Email, rawPassword)
	require.NoError(t, err)

	accessToken, err := authService.Refresh(ctx, result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)

	// The new access token authenticates as the same user
	principal, err := authService.Authenticate(ctx, accessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
}

func TestAuthService_RefreshWithoutSession(t *testing.T) {
	authService, testDB, sessions, _ := newAuthService(t)
	ctx := context.Background()

	user, rawPassword := testutil.NewUserBuilder().Build(t, testDB.DB)

	result, err := authService.SignIn(ctx, user.Email, rawPassword)
	require.NoError(t, err)

	// Drop the session server-side; the token itself is still well
	// signed and unexpired
	require.NoError(t, sessions.Delete(ctx, user.ID))

	_, err = authService.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestAuthService_SignOut(t *testing.T) {
	authService, testDB, _, _ := newAuthService(t)
	ctx := context.Background()

	user, rawPassword := testutil.NewUserBuilder().Build(t, testDB.DB)

	result, err := authService.SignIn(ctx, user.Email, rawPassword)
	require.NoError(t, err)

	// Sign-out is idempotent
	require.NoError(t, authService.SignOut(ctx, user.ID))
	require.NoError(t, authService.SignOut(ctx, user.ID))

	// The previously issued refresh token is now useless
	_, err = authService.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Signing out a user who never signed in is fine too
	require.NoError(t, authService.SignOut(ctx, uuid.New()))
}

func TestAuthService_Authenticate(t *testing.T) {
	authService, testDB, _, _ := newAuthService(t)
	ctx := context.Background()

	user, rawPassword := testutil.NewUserBuilder().Build(t, testDB.DB)

	result, err := authService.SignIn(ctx, user.Email, rawPassword)
	require.NoError(t, err)

	principal, err := authService.Authenticate(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, user.Email, principal.Email)
	assert.Equal(t, user.Role, principal.Role)

	// Role changes take effect immediately, not on next token issuance
	user.Role = domain.RoleAdmin
	require.NoError(t, testDB.DB.Save(user).Error)

	principal, err = authService.Authenticate(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, principal.Role)

	_, err = authService.Authenticate(ctx, "notavalidjwt")
	assert.Error(t, err)
}

func TestAuthService_EndToEnd(t *testing.T) {
	authService, testDB, _, _ := newAuthService(t)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithEmail("a@x.com").
		WithPassword("p").
		Build(t, testDB.DB)

	result, err := authService.SignIn(ctx, "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, "a@x.com", result.User.Email)
	assert.Equal(t, domain.RoleUser, result.User.Role)
	assert.NotEmpty(t, result.AccessToken)

	accessToken, err := authService.Refresh(ctx, result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEqual(t, result.AccessToken, accessToken)

	require.NoError(t, authService.SignOut(ctx, user.ID))

	_, err = authService.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
