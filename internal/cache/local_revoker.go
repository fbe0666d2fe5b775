package cache

import (
	"context"
	"sync"
	"time"
)

// LocalRevoker keeps revoked session ids in process memory. It serves a
// single instance running without redis; entries are dropped once their
// token would have expired anyway.
type LocalRevoker struct {
	mu      sync.Mutex
	now     func() time.Time
	revoked map[string]time.Time
}

func NewLocalRevoker(now func() time.Time) *LocalRevoker {
	if now == nil {
		now = time.Now
	}
	return &LocalRevoker{now: now, revoked: make(map[string]time.Time)}
}

func (r *LocalRevoker) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[sessionID] = r.now().Add(ttl)
	return nil
}

func (r *LocalRevoker) Revoked(_ context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, until := range r.revoked {
		if !now.Before(until) {
			delete(r.revoked, id)
		}
	}
	_, ok := r.revoked[sessionID]
	return ok, nil
}

// Len reports how many sessions are still held.
func (r *LocalRevoker) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.revoked)
}
