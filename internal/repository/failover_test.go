package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"otelshin/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore всегда возвращает ошибку
type brokenStore struct{}

func (brokenStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return nil, errors.New("store is down")
}

func (brokenStore) SaveSession(ctx context.Context, session *models.Session) error {
	return errors.New("store is down")
}

func (brokenStore) ClearSession(ctx context.Context, sessionID string) error {
	return errors.New("store is down")
}

func (brokenStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, errors.New("store is down")
}

func TestFailoverSessionStore(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	t.Run("PrimaryHealthy", func(t *testing.T) {
		primary := NewMemorySessionStore(time.Hour)
		fallback := NewMemorySessionStore(time.Hour)
		store := NewFailoverSessionStore(primary, fallback, &logger)

		session := &models.Session{SessionID: "sess_a", ChatID: 1}
		require.NoError(t, store.SaveSession(ctx, session))

		got, err := primary.GetSession(ctx, "sess_a")
		require.NoError(t, err)
		assert.NotNil(t, got)

		got, err = fallback.GetSession(ctx, "sess_a")
		require.NoError(t, err)
		assert.Nil(t, got, "fallback must stay untouched while primary is healthy")
	})

	t.Run("FallsBackOnError", func(t *testing.T) {
		fallback := NewMemorySessionStore(time.Hour)
		store := NewFailoverSessionStore(brokenStore{}, fallback, &logger)

		session := &models.Session{SessionID: "sess_b", ChatID: 2, Authorized: true}
		require.NoError(t, store.SaveSession(ctx, session))

		got, err := store.GetSession(ctx, "sess_b")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Authorized)
	})

	t.Run("RateLimitFallsBack", func(t *testing.T) {
		fallback := NewMemorySessionStore(time.Hour)
		store := NewFailoverSessionStore(brokenStore{}, fallback, &logger)

		allowed, err := store.CheckRateLimit(ctx, "k", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("ClearFallsBack", func(t *testing.T) {
		fallback := NewMemorySessionStore(time.Hour)
		store := NewFailoverSessionStore(brokenStore{}, fallback, &logger)

		require.NoError(t, fallback.SaveSession(ctx, &models.Session{SessionID: "sess_c"}))
		require.NoError(t, store.ClearSession(ctx, "sess_c"))

		got, _ := fallback.GetSession(ctx, "sess_c")
		assert.Nil(t, got)
	})
}
