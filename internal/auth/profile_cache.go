package auth

import (
	"sync"

	"otelshin/internal/models"
)

// ProfileCache держит общепроцессный кэш сохраненного профиля с явным контрактом
// подписки: держатель ссылки получает уведомление о внешнем изменении, а не
// опрашивает кэш сам. Замена localStorage + storage-событий веб-клиента.
type ProfileCache struct {
	mu      sync.RWMutex
	profile *models.Profile
	subs    map[int]func(*models.Profile)
	nextID  int
}

func NewProfileCache() *ProfileCache {
	return &ProfileCache{subs: make(map[int]func(*models.Profile))}
}

// Get возвращает копию текущего профиля или nil.
func (c *ProfileCache) Get() *models.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.profile == nil {
		return nil
	}
	copied := *c.profile
	return &copied
}

// Set сохраняет профиль и уведомляет подписчиков.
func (c *ProfileCache) Set(profile *models.Profile) {
	c.mu.Lock()
	var stored *models.Profile
	if profile != nil {
		copied := *profile
		stored = &copied
	}
	c.profile = stored
	subs := make([]func(*models.Profile), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(c.Get())
	}
}

// Clear сбрасывает профиль (выход из кабинета) и уведомляет подписчиков.
func (c *ProfileCache) Clear() {
	c.Set(nil)
}

// Subscribe регистрирует обработчик изменений и возвращает функцию отписки.
func (c *ProfileCache) Subscribe(fn func(*models.Profile)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
