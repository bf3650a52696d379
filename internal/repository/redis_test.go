package repository

import (
	"context"
	"testing"
	"time"

	"otelshin/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionStore(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	store := NewRedisSessionStore(client, 15*time.Minute, 24*time.Hour)
	ctx := context.Background()

	t.Run("SaveAndGetSession", func(t *testing.T) {
		session := &models.Session{
			SessionID: "sess_1000_abc",
			ChatID:    42,
			UserName:  "Иван",
			CreatedAt: time.Now(),
		}

		err := store.SaveSession(ctx, session)
		require.NoError(t, err)

		got, err := store.GetSession(ctx, "sess_1000_abc")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, session.SessionID, got.SessionID)
		assert.Equal(t, session.ChatID, got.ChatID)
		assert.Equal(t, session.UserName, got.UserName)
		assert.False(t, got.Authorized)
	})

	t.Run("GetNonExistentSession", func(t *testing.T) {
		got, err := store.GetSession(ctx, "sess_missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("AuthorizeIsMonotonic", func(t *testing.T) {
		session := &models.Session{SessionID: "sess_2000_def", ChatID: 42, Authorized: true}
		require.NoError(t, store.SaveSession(ctx, session))

		// повторная доставка без флага не должна разавторизовать
		dup := &models.Session{SessionID: "sess_2000_def", ChatID: 42}
		require.NoError(t, store.SaveSession(ctx, dup))

		got, err := store.GetSession(ctx, "sess_2000_def")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Authorized)
		assert.Equal(t, int64(42), got.ChatID)
	})

	t.Run("UnauthorizedSessionExpires", func(t *testing.T) {
		session := &models.Session{SessionID: "sess_3000_ghi", ChatID: 7}
		require.NoError(t, store.SaveSession(ctx, session))

		s.FastForward(15*time.Minute + time.Second)

		got, err := store.GetSession(ctx, "sess_3000_ghi")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("AuthorizedSessionOutlivesBaseTTL", func(t *testing.T) {
		session := &models.Session{SessionID: "sess_4000_jkl", ChatID: 7, Authorized: true}
		require.NoError(t, store.SaveSession(ctx, session))

		s.FastForward(time.Hour)

		got, err := store.GetSession(ctx, "sess_4000_jkl")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Authorized)
	})

	t.Run("ClearSession", func(t *testing.T) {
		session := &models.Session{SessionID: "sess_5000_mno"}
		require.NoError(t, store.SaveSession(ctx, session))

		err := store.ClearSession(ctx, "sess_5000_mno")
		require.NoError(t, err)

		got, _ := store.GetSession(ctx, "sess_5000_mno")
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "sess_rl"
		limit := 2
		window := time.Second

		allowed, err := store.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = store.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = store.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = store.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		store := NewRedisSessionStore(nil, time.Minute, time.Hour)
		_, err := store.GetSession(ctx, "sess")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		err := Ping(ctx, client)
		assert.NoError(t, err)
	})
}
