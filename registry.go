package gotable

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Source supplies the configuration, data included, of one table instance.
// It is called once per request.
type Source interface {
	TableConfig(ctx context.Context, id string) (Config, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, id string) (Config, error)

func (f SourceFunc) TableConfig(ctx context.Context, id string) (Config, error) {
	return f(ctx, id)
}

// StaticSource serves a fixed configuration. The id is always overwritten by
// the requested one.
func StaticSource(cfg Config) Source {
	return SourceFunc(func(_ context.Context, id string) (Config, error) {
		cfg.ID = id
		return cfg, nil
	})
}

// Registry maps instance identifiers to their sources. It is filled at startup
// and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	order   []InstanceID
	sources map[InstanceID]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[InstanceID]Source)}
}

// Register adds source under id. Ids are sanitized first; an empty result or
// a duplicate is rejected.
func (r *Registry) Register(id string, source Source) error {
	key := SanitizeID(id)
	if key.IsSingle() {
		return fmt.Errorf("cannot register table %q: %w", id, ErrInvalidInstanceID)
	}
	if source == nil {
		return fmt.Errorf("cannot register table %q: nil source", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[key]; ok {
		return fmt.Errorf("cannot register table %q: already registered", id)
	}

	r.sources[key] = source
	r.order = append(r.order, key)

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(id string, source Source) {
	if err := r.Register(id, source); err != nil {
		panic(err)
	}
}

// Lookup returns the source registered for the sanitized id.
func (r *Registry) Lookup(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.sources[SanitizeID(id)]
	return source, ok
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []InstanceID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}
