package application

import (
	"context"
	"errors"
	"sync"
)

// KindStore resolves measurement-kind names to their stable ids.
type KindStore interface {
	ResolveOrCreateMeasurementKind(ctx context.Context, name string) (int64, error)
}

// KindResolver maps measurement-kind names to ids with a process-local
// cache. Kinds are immutable once created, so entries are never evicted; a
// kind created concurrently by another process instance is picked up on the
// next cache miss.
type KindResolver struct {
	store KindStore

	mu    sync.RWMutex
	cache map[string]int64
}

// NewKindResolver constructs a resolver over the given store.
func NewKindResolver(store KindStore) (*KindResolver, error) {
	if store == nil {
		return nil, errors.New("kind resolver: nil store")
	}
	return &KindResolver{store: store, cache: make(map[string]int64)}, nil
}

// Resolve returns the id for a kind name, creating the kind on first use.
func (r *KindResolver) Resolve(ctx context.Context, name string) (int64, error) {
	r.mu.RLock()
	id, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	id, err := r.store.ResolveOrCreateMeasurementKind(ctx, name)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.cache[name] = id
	r.mu.Unlock()
	return id, nil
}
