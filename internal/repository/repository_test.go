package repository

import (
	"context"
	"path/filepath"
	"testing"

	"day-planner/internal/model"
)

func newTestDB(t *testing.T) *RecordRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "planner.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		t.Cleanup(func() { sqlDB.Close() })
	}
	return NewRecordRepository(db)
}

func TestBucketGetMissingKey(t *testing.T) {
	t.Parallel()
	repo := newTestDB(t)

	value, found, err := repo.Bucket("tg:1").Get(context.Background(), "tasks")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found || value != nil {
		t.Errorf("Expected missing key, got found=%t value=%q", found, value)
	}
}

func TestBucketPutOverwritesAndIsolatesNamespaces(t *testing.T) {
	t.Parallel()
	repo := newTestDB(t)
	ctx := context.Background()

	first := repo.Bucket("tg:1")
	second := repo.Bucket("tg:2")

	if err := first.Put(ctx, map[string][]byte{"tasks": []byte(`[]`), "categories": []byte(`[1]`)}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := first.Put(ctx, map[string][]byte{"tasks": []byte(`[{"id":"a"}]`)}); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	if err := second.Put(ctx, map[string][]byte{"tasks": []byte(`[{"id":"b"}]`)}); err != nil {
		t.Fatalf("Put into second namespace failed: %v", err)
	}

	value, found, err := first.Get(ctx, "tasks")
	if err != nil || !found {
		t.Fatalf("Get failed: found=%t err=%v", found, err)
	}
	if string(value) != `[{"id":"a"}]` {
		t.Errorf("Expected overwritten value, got %s", value)
	}

	value, _, _ = first.Get(ctx, "categories")
	if string(value) != `[1]` {
		t.Errorf("Expected untouched categories, got %s", value)
	}

	value, _, _ = second.Get(ctx, "tasks")
	if string(value) != `[{"id":"b"}]` {
		t.Errorf("Expected isolated namespace, got %s", value)
	}

	namespaces, err := repo.Namespaces(ctx)
	if err != nil {
		t.Fatalf("Namespaces failed: %v", err)
	}
	if len(namespaces) != 2 || namespaces[0] != "tg:1" || namespaces[1] != "tg:2" {
		t.Errorf("Expected [tg:1 tg:2], got %v", namespaces)
	}
}

func TestRecordRepositoryRejectsEmptyNamespace(t *testing.T) {
	t.Parallel()
	repo := newTestDB(t)

	if err := repo.PutAll(context.Background(), "", map[string]string{"tasks": "[]"}); err == nil {
		t.Error("Expected error for empty namespace")
	}
}

func TestUserUpsertRefreshesNames(t *testing.T) {
	t.Parallel()
	db, err := NewDB(filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	users := NewUserRepository(db)
	ctx := context.Background()

	created, err := users.Upsert(ctx, model.User{TelegramID: 42, FirstName: "Anna"})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	updated, err := users.Upsert(ctx, model.User{TelegramID: 42, FirstName: "Anya", Username: "anya"})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("Expected same row, got ids %d and %d", created.ID, updated.ID)
	}
	if updated.FirstName != "Anya" || updated.Username != "anya" {
		t.Errorf("Expected refreshed names, got %+v", updated)
	}

	all, err := users.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 user, got %d", len(all))
	}

	if _, err := users.Upsert(ctx, model.User{}); err == nil {
		t.Error("Expected error for missing telegram id")
	}
}
