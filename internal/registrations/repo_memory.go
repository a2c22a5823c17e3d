package registrations

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo, used when no
// database is configured (dev and tests).
type MemoryRepo struct {
	mu   sync.RWMutex
	data []Registration
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create stores a registration.
func (r *MemoryRepo) Create(ctx context.Context, reg Registration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, reg)
	return nil
}

// List returns stored registrations newest first, up to limit, matching
// the Postgres implementation's ordering.
func (r *MemoryRepo) List(ctx context.Context, limit int) ([]Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registration, 0, len(r.data))
	for i := len(r.data) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, r.data[i])
	}
	return out, nil
}
