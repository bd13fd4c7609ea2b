// Package ids generates identifiers for planner entities.
package ids

import (
	"github.com/google/uuid"
)

// CustomCategoryPrefix marks categories created by the user, keeping them apart from the fixed defaults.
const CustomCategoryPrefix = "custom_"

// Generator produces unique identifiers.
type Generator interface {
	NewID() string
}

// TimeOrdered issues UUIDv7 values, which sort by creation time and stay
// monotonic within a process.
type TimeOrdered struct{}

func (TimeOrdered) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) NewID() string {
	return f()
}

// Unique draws ids from gen until one is not in taken.
func Unique(gen Generator, prefix string, taken func(string) bool) string {
	for {
		id := prefix + gen.NewID()
		if !taken(id) {
			return id
		}
	}
}
