package service

import (
	"context"
	"log"
	"strings"

	"day-planner/internal/ids"
	"day-planner/internal/model"
	"day-planner/internal/store"
)

// DefaultCategoryColor is assigned when a category is created without a color.
const DefaultCategoryColor = "#607D8B"

// CategoryService provides helpers around categories.
type CategoryService struct {
	ids ids.Generator
}

func NewCategoryService(gen ids.Generator) *CategoryService {
	return &CategoryService{ids: gen}
}

func (s *CategoryService) List(st *store.Store) []model.Category {
	return st.Categories()
}

// Create appends a category. Names are unique regardless of case.
func (s *CategoryService) Create(ctx context.Context, st *store.Store, name, color string) (model.Category, error) {
	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)
	if name == "" {
		return model.Category{}, invalid("name", "must not be empty")
	}
	if color == "" {
		color = DefaultCategoryColor
	}

	var created model.Category
	err := st.Mutate(ctx, func(d *store.Data) error {
		for _, c := range d.Categories {
			if strings.EqualFold(c.Name, name) {
				return ErrDuplicateCategory
			}
		}
		created = model.Category{
			ID: ids.Unique(s.ids, ids.CustomCategoryPrefix, func(id string) bool {
				if _, ok := d.CategoryByID(id); ok {
					return true
				}
				_, reserved := defaultIDs[id]
				return reserved
			}),
			Name:  name,
			Color: color,
		}
		d.Categories = append(d.Categories, created)
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	log.Printf("[info] category created id=%s name=%q", created.ID, created.Name)
	return created, nil
}

var defaultIDs = func() map[string]struct{} {
	out := make(map[string]struct{})
	for _, c := range store.DefaultCategories() {
		out[c.ID] = struct{}{}
	}
	return out
}()
