package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"day-planner/internal/ids"
	"day-planner/internal/store"
)

type memoryBackend struct {
	mu     sync.Mutex
	values map[string][]byte
	puts   int
}

func (m *memoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryBackend) Put(_ context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.values[k] = v
	}
	m.puts++
	return nil
}

type fixture struct {
	backend    *memoryBackend
	store      *store.Store
	tasks      *TaskService
	categories *CategoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := &memoryBackend{values: make(map[string][]byte)}
	st := store.New(backend)
	st.Load(context.Background())

	n := 0
	gen := ids.Func(func() string {
		n++
		return fmt.Sprintf("%03d", n)
	})
	tasks := NewTaskService(gen, NewReminderService(time.UTC))
	tasks.now = func() time.Time { return time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC) }

	return &fixture{
		backend:    backend,
		store:      st,
		tasks:      tasks,
		categories: NewCategoryService(gen),
	}
}
