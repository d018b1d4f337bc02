package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store holds the single active refresh token per user, with per-key TTL
// so abandoned sessions self-expire without explicit cleanup.
//
// Get returns domain.ErrSessionNotFound when no session exists. Delete of
// an absent key is not an error; sign-out is idempotent.
type Store interface {
	Set(ctx context.Context, userID uuid.UUID, refreshToken string, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// Key derives the session slot for a user. It is a pure function of the
// user id: a second sign-in overwrites the first session by design.
func Key(userID uuid.UUID) string {
	return "refresh:" + userID.String()
}
