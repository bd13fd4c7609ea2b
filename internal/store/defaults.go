package store

import "day-planner/internal/model"

// Ids of the fixed seed categories.
const (
	CategoryStudy = "study"
	CategoryWork  = "work"
	CategoryHome  = "home"
)

// DefaultCategories returns a fresh copy of the seed categories.
func DefaultCategories() []model.Category {
	return []model.Category{
		{ID: CategoryStudy, Name: "Учеба", Color: "#4CAF50"},
		{ID: CategoryWork, Name: "Работа", Color: "#2196F3"},
		{ID: CategoryHome, Name: "Дом", Color: "#FF9800"},
	}
}
