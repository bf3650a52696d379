package database

import (
	"context"
	"path/filepath"
	"testing"

	"otelshin/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateOrUpdateClient(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("Insert", func(t *testing.T) {
		err := db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 42, Name: "Иван"})
		require.NoError(t, err)

		got, err := db.GetClientByChatID(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "Иван", got.Name)
		assert.Empty(t, got.Phone)
		assert.False(t, got.IsAdmin)
	})

	t.Run("UpsertDoesNotDuplicate", func(t *testing.T) {
		require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 42, Name: "Иван"}))
		require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 42, Name: "Иван И."}))

		clients, err := db.ListClients(ctx)
		require.NoError(t, err)
		assert.Len(t, clients, 1)
	})

	t.Run("ManagerNameSurvivesUpsert", func(t *testing.T) {
		require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 9, Name: "Иван Петров", Phone: "+79990000009"}))
		require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 9, Name: "Иван"}))

		got, err := db.GetClientByChatID(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, "Иван Петров", got.Name)
	})

	t.Run("EmptyNameFilled", func(t *testing.T) {
		require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 10, Phone: "+79990000010"}))
		require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 10, Name: "Мария"}))

		got, err := db.GetClientByChatID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, "Мария", got.Name)
	})

	t.Run("EmptyFieldsDoNotErase", func(t *testing.T) {
		require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 7, Name: "Пётр", Phone: "+79991234567"}))
		require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 7}))

		got, err := db.GetClientByChatID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "Пётр", got.Name)
		assert.Equal(t, "+79991234567", got.Phone)
	})
}

func TestGetClientByChatID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetClientByChatID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateClientPhone(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 42, Name: "Иван"}))

	t.Run("UpdatesPhoneAndName", func(t *testing.T) {
		err := db.UpdateClientPhone(ctx, 42, "+79991234567", "Иван Петров")
		require.NoError(t, err)

		got, err := db.GetClientByChatID(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "+79991234567", got.Phone)
		assert.Equal(t, "Иван Петров", got.Name)
		assert.Equal(t, int64(42), got.ChatID)
	})

	t.Run("EmptyNameKept", func(t *testing.T) {
		err := db.UpdateClientPhone(ctx, 42, "+70000000000", "")
		require.NoError(t, err)

		got, _ := db.GetClientByChatID(ctx, 42)
		assert.Equal(t, "Иван Петров", got.Name)
		assert.Equal(t, "+70000000000", got.Phone)
	})

	t.Run("MissingClient", func(t *testing.T) {
		err := db.UpdateClientPhone(ctx, 999, "+1", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetClientByPhone(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 1, Phone: "+79991234567"}))

	got, err := db.GetClientByPhone(ctx, "+79991234567")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ChatID)

	_, err = db.GetClientByPhone(ctx, "+70000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindClientStrict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 42, Name: "Иван", Phone: "+79991234567"}))

	t.Run("ExactMatch", func(t *testing.T) {
		got, err := db.FindClientStrict(ctx, "+79991234567", 42)
		require.NoError(t, err)
		assert.Equal(t, "Иван", got.Name)
	})

	t.Run("PhoneUnderDifferentChatID", func(t *testing.T) {
		_, err := db.FindClientStrict(ctx, "+79991234567", 43)
		assert.ErrorIs(t, err, ErrPhoneChatIDMismatch)
	})

	t.Run("UnknownPhone", func(t *testing.T) {
		_, err := db.FindClientStrict(ctx, "+70000000000", 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListClients(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 1, Name: "А"}))
	require.NoError(t, db.CreateOrUpdateClient(ctx, &models.Client{ChatID: 2, Name: "Б", IsAdmin: true}))

	clients, err := db.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 2)
}
