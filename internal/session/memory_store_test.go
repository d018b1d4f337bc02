package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgrieger/inkwell/internal/domain"
	"github.com/tgrieger/inkwell/internal/session"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	// Absent key
	_, err := store.Get(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Set then get
	require.NoError(t, store.Set(ctx, userID, "token-one", time.Minute))
	got, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "token-one", got)

	// One slot per user: second set overwrites
	require.NoError(t, store.Set(ctx, userID, "token-two", time.Minute))
	got, err = store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "token-two", got)

	// Delete is idempotent
	require.NoError(t, store.Delete(ctx, userID))
	require.NoError(t, store.Delete(ctx, userID))

	_, err = store.Get(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Set(ctx, userID, "short-lived", 10*time.Millisecond))

	got, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "short-lived", got)

	time.Sleep(20 * time.Millisecond)

	_, err = store.Get(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestKey_DeterministicPerUser(t *testing.T) {
	userID := uuid.New()
	assert.Equal(t, session.Key(userID), session.Key(userID))
	assert.NotEqual(t, session.Key(userID), session.Key(uuid.New()))
}
