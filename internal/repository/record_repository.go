package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"day-planner/internal/model"
)

// RecordRepository stores key-value records grouped by namespace.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Get returns gorm.ErrRecordNotFound when the key is absent.
func (r *RecordRepository) Get(ctx context.Context, namespace, key string) (*model.Record, error) {
	if namespace == "" || key == "" {
		return nil, fmt.Errorf("namespace and key are required")
	}
	var rec model.Record
	err := r.db.WithContext(ctx).Where(&model.Record{Namespace: namespace, Key: key}).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// PutAll upserts every key in values within one transaction.
func (r *RecordRepository) PutAll(ctx context.Context, namespace string, values map[string]string) error {
	if namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			rec := model.Record{Namespace: namespace, Key: key, Value: value, UpdatedAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&rec).Error
			if err != nil {
				return fmt.Errorf("put record %s/%s: %w", namespace, key, err)
			}
		}
		return nil
	})
}

// Namespaces lists every namespace that has at least one record.
func (r *RecordRepository) Namespaces(ctx context.Context) ([]string, error) {
	var namespaces []string
	if err := r.db.WithContext(ctx).Model(&model.Record{}).Distinct("namespace").Order("namespace ASC").Pluck("namespace", &namespaces).Error; err != nil {
		return nil, err
	}
	return namespaces, nil
}

// Bucket scopes the repository to a single namespace.
func (r *RecordRepository) Bucket(namespace string) *Bucket {
	return &Bucket{repo: r, namespace: namespace}
}

// Bucket is the persistence backend of one planner workspace.
type Bucket struct {
	repo      *RecordRepository
	namespace string
}

func (b *Bucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	rec, err := b.repo.Get(ctx, b.namespace, key)
	switch {
	case err == nil:
		return []byte(rec.Value), true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("get record %s/%s: %w", b.namespace, key, err)
	}
}

func (b *Bucket) Put(ctx context.Context, entries map[string][]byte) error {
	values := make(map[string]string, len(entries))
	for key, value := range entries {
		values[key] = string(value)
	}
	return b.repo.PutAll(ctx, b.namespace, values)
}
