package repository

import (
	"context"
	"sync"
	"time"

	"otelshin/internal/models"
)

// MemorySessionStore служит резервным хранилищем на время недоступности Redis и
// для тестов. TTL соблюдается лениво при чтении.
type MemorySessionStore struct {
	mu         sync.RWMutex
	sessions   map[string]memorySessionEntry
	rlMu       sync.Mutex
	rateLimits map[string]*rateLimitEntry
	ttl        time.Duration
}

type memorySessionEntry struct {
	session   *models.Session
	expiresAt time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions:   make(map[string]memorySessionEntry),
		rateLimits: make(map[string]*rateLimitEntry),
		ttl:        ttl,
	}
}

func (r *MemorySessionStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	r.mu.RLock()
	entry, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		r.mu.Lock()
		delete(r.sessions, sessionID)
		r.mu.Unlock()
		return nil, nil
	}
	copied := *entry.session
	return &copied, nil
}

func (r *MemorySessionStore) SaveSession(ctx context.Context, session *models.Session) error {
	existing, _ := r.GetSession(ctx, session.SessionID)
	merged := MergeSession(existing, session)

	var expiresAt time.Time
	if r.ttl > 0 && !merged.Authorized {
		expiresAt = time.Now().Add(r.ttl)
	}

	r.mu.Lock()
	r.sessions[merged.SessionID] = memorySessionEntry{session: merged, expiresAt: expiresAt}
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionStore) ClearSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// CheckRateLimit считает запросы по ключу в скользящем окне. Счетчик общий
// для конкурентных вызовов, поэтому инкремент выполняется под мьютексом.
func (r *MemorySessionStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	r.rlMu.Lock()
	defer r.rlMu.Unlock()

	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
		r.rateLimits[key] = entry
		return limit >= 1, nil
	}

	entry.count++
	return entry.count <= limit, nil
}
