package auth

import (
	"testing"

	"otelshin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileCache_GetReturnsCopy(t *testing.T) {
	cache := NewProfileCache()
	assert.Nil(t, cache.Get())

	cache.Set(&models.Profile{ChatID: "42", Name: "Иван"})

	got := cache.Get()
	require.NotNil(t, got)
	got.Name = "изменено"

	again := cache.Get()
	assert.Equal(t, "Иван", again.Name, "mutating the returned profile must not affect the cache")
}

func TestProfileCache_SubscribeNotify(t *testing.T) {
	cache := NewProfileCache()

	var seen []*models.Profile
	unsubscribe := cache.Subscribe(func(p *models.Profile) {
		seen = append(seen, p)
	})

	cache.Set(&models.Profile{ChatID: "42"})
	require.Len(t, seen, 1)
	assert.Equal(t, "42", seen[0].ChatID)

	cache.Clear()
	require.Len(t, seen, 2)
	assert.Nil(t, seen[1])
	assert.Nil(t, cache.Get())

	unsubscribe()
	cache.Set(&models.Profile{ChatID: "7"})
	assert.Len(t, seen, 2, "no notifications after unsubscribe")
}

func TestProfileCache_MultipleSubscribers(t *testing.T) {
	cache := NewProfileCache()

	var a, b int
	cache.Subscribe(func(*models.Profile) { a++ })
	cache.Subscribe(func(*models.Profile) { b++ })

	cache.Set(&models.Profile{ChatID: "1"})
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}
