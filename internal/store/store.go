// Package store owns the task and category collections of planner workspaces
// and persists them to a key-value backend.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"day-planner/internal/model"
)

// Persistence keys inside a workspace namespace.
const (
	KeyTasks      = "tasks"
	KeyCategories = "categories"
)

// Backend is a key-value persistence mechanism scoped to one workspace.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, entries map[string][]byte) error
}

// Data holds the collections of a workspace in insertion order.
type Data struct {
	Tasks      []model.Task
	Categories []model.Category
}

func (d Data) clone() Data {
	out := Data{
		Tasks:      make([]model.Task, len(d.Tasks)),
		Categories: make([]model.Category, len(d.Categories)),
	}
	copy(out.Tasks, d.Tasks)
	copy(out.Categories, d.Categories)
	for i := range out.Tasks {
		if lead := out.Tasks[i].NotificationTime; lead != nil {
			v := *lead
			out.Tasks[i].NotificationTime = &v
		}
	}
	return out
}

// TaskIndex returns the position of the task with id, or -1.
func (d Data) TaskIndex(id string) int {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// CategoryByID returns the category with id.
func (d Data) CategoryByID(id string) (model.Category, bool) {
	for _, c := range d.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

// Store is the single writer of one workspace.
type Store struct {
	backend Backend

	mu   sync.Mutex
	data Data
}

// New returns a store holding an empty task list and the default categories.
// Call Load to read persisted state.
func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		data:    Data{Tasks: []model.Task{}, Categories: DefaultCategories()},
	}
}

// Load reads both collections from the backend. A missing or unreadable
// tasks record yields an empty list; a missing or unreadable categories
// record yields the default set. Failures are logged, never returned.
func (s *Store) Load(ctx context.Context) {
	tasks, err := loadList[model.Task](ctx, s.backend, KeyTasks)
	if err != nil {
		log.Printf("[warn] load %s: %v; starting with no tasks", KeyTasks, err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	categories, err := loadList[model.Category](ctx, s.backend, KeyCategories)
	if err != nil {
		log.Printf("[warn] load %s: %v; using default categories", KeyCategories, err)
	}
	if categories == nil {
		categories = DefaultCategories()
	}

	s.mu.Lock()
	s.data = Data{Tasks: tasks, Categories: categories}
	s.mu.Unlock()
}

// loadList returns nil without error when the key is absent or holds null.
func loadList[T any](ctx context.Context, backend Backend, key string) ([]T, error) {
	raw, found, err := backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return items, nil
}

// Save writes both collections to the backend.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, s.data)
}

func (s *Store) persist(ctx context.Context, data Data) error {
	tasks, err := encodeList(data.Tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	categories, err := encodeList(data.Categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	if err := s.backend.Put(ctx, map[string][]byte{
		KeyTasks:      tasks,
		KeyCategories: categories,
	}); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	return nil
}

// encodeList writes items the way JSON.stringify does: no HTML escaping and
// no trailing newline.
func encodeList[T any](items []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Mutate applies fn to a copy of the collections. When fn succeeds the copy
// is persisted and becomes the current state; when fn or the save fails the
// store is left exactly as it was.
func (s *Store) Mutate(ctx context.Context, fn func(*Data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&work); err != nil {
		return err
	}
	if err := s.persist(ctx, work); err != nil {
		return err
	}
	s.data = work
	return nil
}

// Snapshot returns a copy of both collections.
func (s *Store) Snapshot() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone()
}

func (s *Store) Tasks() []model.Task {
	return s.Snapshot().Tasks
}

func (s *Store) Categories() []model.Category {
	return s.Snapshot().Categories
}
