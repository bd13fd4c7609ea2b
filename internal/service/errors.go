package service

import (
	"errors"
	"fmt"

	"day-planner/internal/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateCategory = errors.New("category with this name already exists")
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")
	ErrTimeConflict      = errors.New("time conflict")
)

// ValidationError reports input rejected before any mutation.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConflictError carries the existing task occupying the requested slot.
type ConflictError struct {
	Task model.Task
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time conflict with task %q (%s %s)", e.Task.Title, e.Task.Date, e.Task.Time)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrTimeConflict
}

// ConflictOf extracts the conflicting task from err.
func ConflictOf(err error) (model.Task, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Task, true
	}
	return model.Task{}, false
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
