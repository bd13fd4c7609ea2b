package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// UserNamespace names the workspace of a Telegram user.
func UserNamespace(telegramID int64) string {
	return fmt.Sprintf("tg:%d", telegramID)
}

// Registry opens and caches one Store per namespace.
type Registry struct {
	open func(namespace string) Backend
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	store    *Store
	loaded   sync.Once
	lastUsed time.Time
}

func NewRegistry(open func(namespace string) Backend) *Registry {
	return &Registry{
		open:    open,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Open returns the workspace store for namespace, loading it on first use.
// Callers opening the same namespace wait for one shared load; other
// namespaces are not blocked by it.
func (r *Registry) Open(ctx context.Context, namespace string) *Store {
	r.mu.Lock()
	e, ok := r.entries[namespace]
	if !ok {
		e = &registryEntry{store: New(r.open(namespace))}
		r.entries[namespace] = e
	}
	e.lastUsed = r.now()
	r.mu.Unlock()

	e.loaded.Do(func() {
		// Shared by every waiter; detached from the first caller's cancellation.
		e.store.Load(context.WithoutCancel(ctx))
		log.Printf("[info] workspace opened namespace=%s", namespace)
	})
	return e.store
}

// EvictIdle drops workspaces unused for longer than maxIdle and returns how many were dropped.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	evicted := 0
	for ns, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, ns)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of open workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
