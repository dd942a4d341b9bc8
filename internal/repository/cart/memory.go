package cart

import (
	"context"
	"sync"
	"time"

	"minishop-gateway/internal/domain"
)

type memoryEntry struct {
	snap      domain.CartSnapshot
	expiresAt time.Time
}

type memoryRepo struct {
	mu    sync.RWMutex
	carts map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewMemory keeps carts in process memory. ttl <= 0 disables expiry.
func NewMemory(ttl time.Duration) Repository {
	return &memoryRepo{carts: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (r *memoryRepo) Save(_ context.Context, snap domain.CartSnapshot) error {
	entry := r.entry(snap)
	r.mu.Lock()
	r.carts[snap.ID] = entry
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id string) (domain.CartSnapshot, error) {
	r.mu.RLock()
	entry, ok := r.carts[id]
	r.mu.RUnlock()
	if !ok {
		return domain.CartSnapshot{}, domain.ErrNotFound
	}
	if r.expired(entry) {
		r.mu.Lock()
		// a Save may have refreshed the entry since the read lock was released
		if current, ok := r.carts[id]; ok && r.expired(current) {
			delete(r.carts, id)
		}
		r.mu.Unlock()
		return domain.CartSnapshot{}, domain.ErrNotFound
	}
	return copySnapshot(entry.snap), nil
}

func (r *memoryRepo) Update(_ context.Context, id string, fn func(snap *domain.CartSnapshot) error) (domain.CartSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.carts[id]
	if !ok {
		return domain.CartSnapshot{}, domain.ErrNotFound
	}
	if r.expired(entry) {
		delete(r.carts, id)
		return domain.CartSnapshot{}, domain.ErrNotFound
	}
	snap := copySnapshot(entry.snap)
	if err := fn(&snap); err != nil {
		return domain.CartSnapshot{}, err
	}
	snap.ID = id
	r.carts[id] = r.entry(snap)
	return copySnapshot(snap), nil
}

func (r *memoryRepo) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && r.now().After(e.expiresAt)
}

func (r *memoryRepo) entry(snap domain.CartSnapshot) memoryEntry {
	e := memoryEntry{snap: copySnapshot(snap)}
	if r.ttl > 0 {
		e.expiresAt = r.now().Add(r.ttl)
	}
	return e
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.carts, id)
	return nil
}

// PurgeExpired drops every expired cart.
func (r *memoryRepo) PurgeExpired(_ context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, entry := range r.carts {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(r.carts, id)
			n++
		}
	}
	return n, nil
}

func copySnapshot(s domain.CartSnapshot) domain.CartSnapshot {
	s.Lines = append([]domain.CartLine(nil), s.Lines...)
	if s.FabOrigin != nil {
		p := *s.FabOrigin
		s.FabOrigin = &p
	}
	return s
}
