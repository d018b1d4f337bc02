package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tgrieger/inkwell/internal/domain"
	"github.com/tgrieger/inkwell/internal/queue"
	"github.com/tgrieger/inkwell/internal/repository"
	"github.com/tgrieger/inkwell/internal/session"
	"github.com/tgrieger/inkwell/internal/token"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService orchestrates sign-in, sign-out and access-token refresh.
// It holds no state of its own; the session store carries the single
// active refresh token per user.
type AuthService struct {
	users    repository.UserRepository
	sessions session.Store
	signer   *token.Signer
	events   queue.Publisher
}

func NewAuthService(users repository.UserRepository, sessions session.Store, signer *token.Signer, events queue.Publisher) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		signer:   signer,
		events:   events,
	}
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	// A hit here is a uniqueness violation, distinct from "not found"
	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, domain.ErrEmailExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, registrationEvent(user))

	return s.issueSession(ctx, user)
}

// SignIn verifies credentials and opens a session. The lookup happens
// before any password work so an unknown email never reaches the
// verifier; the HTTP layer is responsible for collapsing the two failure
// kinds into one response.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

// issueSession mints both tokens and stores the refresh token under the
// user's session slot, overwriting any previous session.
func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	principal := domain.PrincipalOf(user)

	refreshToken, err := s.signer.IssueRefresh(principal)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Set(ctx, user.ID, refreshToken, s.signer.RefreshTTL()); err != nil {
		return nil, err
	}

	accessToken, err := s.signer.IssueAccess(principal)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// SignOut deletes the user's refresh session. Deleting an absent session
// is not an error.
func (s *AuthService) SignOut(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.Delete(ctx, userID)
}

// Refresh exchanges a refresh token for a new access token.
//
// The presented token is parsed with expiry tolerance only to identify
// the refreshing user; the stored session token is then re-validated
// strictly and its principal used to mint the new access token. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.signer.Parse(refreshToken, true)
	if err != nil {
		return "", err
	}

	principal, err := claims.Principal()
	if err != nil {
		return "", err
	}

	stored, err := s.sessions.Get(ctx, principal.UserID)
	if err != nil {
		return "", err
	}

	storedClaims, err := s.signer.Parse(stored, false)
	if err != nil {
		return "", err
	}

	storedPrincipal, err := storedClaims.Principal()
	if err != nil {
		return "", err
	}

	return s.signer.IssueAccess(storedPrincipal)
}

// Authenticate resolves a bearer token into a current principal. The
// subject is looked up in the credential store so role and email reflect
// current state rather than stale token claims.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error) {
	claims, err := s.signer.Parse(accessToken, false)
	if err != nil {
		return nil, err
	}

	stale, err := claims.Principal()
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, stale.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	principal := domain.PrincipalOf(user)
	return &principal, nil
}

func (s *AuthService) publish(ctx context.Context, event domain.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithField("event", event.Type).Warn("publish event")
	}
}

func registrationEvent(user *domain.User) domain.Event {
	event := domain.NewEvent(domain.EventUserRegistered, user.ID)
	event.Email = user.Email
	event.Name = user.Name
	return event
}
