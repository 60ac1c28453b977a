package analytics

import (
	"context"
	"sync"
)

// MemoryFunnelRepo counts distinct conversations per screen for the process lifetime.
type MemoryFunnelRepo struct {
	mu     sync.RWMutex
	counts map[string]map[int64]struct{}
}

var _ FunnelRepository = (*MemoryFunnelRepo)(nil)

func NewMemoryFunnelRepo() *MemoryFunnelRepo {
	return &MemoryFunnelRepo{counts: make(map[string]map[int64]struct{})}
}

func (r *MemoryFunnelRepo) Hit(_ context.Context, screen string, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.counts[screen]
	if !ok {
		m = make(map[int64]struct{})
		r.counts[screen] = m
	}
	m[chatID] = struct{}{}
	return nil
}

func (r *MemoryFunnelRepo) Counts(_ context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int, len(r.counts))
	for s, set := range r.counts {
		out[s] = len(set)
	}
	return out, nil
}
