package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"day-planner/internal/ids"
	"day-planner/internal/model"
	"day-planner/internal/store"
)

// DefaultReminderLead is used when a reminder is requested without a lead time.
const DefaultReminderLead = 15

// TaskInput represents data required to create or edit a task.
type TaskInput struct {
	Title            string `json:"title"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	Category         string `json:"category"`
	Description      string `json:"description"`
	Notification     bool   `json:"notification"`
	NotificationTime int    `json:"notificationTime"`
}

// InputFromTask prefills an edit with the current values of task.
func InputFromTask(task model.Task) TaskInput {
	in := TaskInput{
		Title:        task.Title,
		Date:         task.Date,
		Time:         task.Time,
		Category:     task.Category,
		Description:  task.Description,
		Notification: task.Notification,
	}
	if task.NotificationTime != nil {
		in.NotificationTime = *task.NotificationTime
	}
	return in
}

// SaveOptions controls how Save treats an existing task and a time conflict.
type SaveOptions struct {
	// EditingID selects the task to overwrite; empty creates a new task.
	EditingID string
	// AllowConflict saves even when another task holds the same slot.
	// Callers set it only after the user confirmed a reported conflict.
	AllowConflict bool
}

// DayView is the hour-bucketed selection of one day.
type DayView struct {
	Date    string       `json:"date"`
	Filter  string       `json:"filter"`
	Buckets []HourBucket `json:"buckets"`
	Stats   DayStats     `json:"stats"`
}

// TaskService wraps task-related business logic over a workspace store.
type TaskService struct {
	ids       ids.Generator
	reminders *ReminderService
	now       func() time.Time
}

func NewTaskService(gen ids.Generator, reminders *ReminderService) *TaskService {
	return &TaskService{ids: gen, reminders: reminders, now: time.Now}
}

// Day returns the hour-bucketed view of date under filter.
func (s *TaskService) Day(st *store.Store, date, filter string) (DayView, error) {
	if !model.IsDate(date) {
		return DayView{}, invalid("date", "expected YYYY-MM-DD")
	}
	if filter == "" {
		filter = FilterAll
	}
	tasks := st.Tasks()
	return DayView{
		Date:    date,
		Filter:  filter,
		Buckets: TasksForDay(tasks, date, filter),
		Stats:   Stats(tasks, date, filter),
	}, nil
}

func (s *TaskService) TasksForDay(st *store.Store, date, filter string) ([]HourBucket, error) {
	view, err := s.Day(st, date, filter)
	if err != nil {
		return nil, err
	}
	return view.Buckets, nil
}

// FindConflict reports the task already holding date and clock, ignoring excludeID.
func (s *TaskService) FindConflict(st *store.Store, date, clock, excludeID string) (model.Task, bool) {
	return FindConflict(st.Tasks(), date, clock, excludeID)
}

func (s *TaskService) Get(st *store.Store, id string) (model.Task, error) {
	data := st.Snapshot()
	idx := data.TaskIndex(id)
	if idx < 0 {
		return model.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return data.Tasks[idx], nil
}

// Save creates a task or overwrites the one named by opts.EditingID.
// A slot already taken by another task yields a *ConflictError unless
// opts.AllowConflict is set; nothing is written in that case.
func (s *TaskService) Save(ctx context.Context, st *store.Store, input TaskInput, opts SaveOptions) (model.Task, error) {
	var saved model.Task
	err := st.Mutate(ctx, func(d *store.Data) error {
		in, err := normalizeInput(d, input)
		if err != nil {
			return err
		}

		idx := -1
		if opts.EditingID != "" {
			idx = d.TaskIndex(opts.EditingID)
			if idx < 0 {
				return fmt.Errorf("task %s: %w", opts.EditingID, ErrNotFound)
			}
		}

		if !opts.AllowConflict {
			if conflict, ok := FindConflict(d.Tasks, in.Date, in.Time, opts.EditingID); ok {
				return &ConflictError{Task: conflict}
			}
		}

		var task model.Task
		if idx >= 0 {
			task = d.Tasks[idx]
		} else {
			task = model.Task{
				ID:        ids.Unique(s.ids, "", func(id string) bool { return d.TaskIndex(id) >= 0 }),
				CreatedAt: model.NewTimestamp(s.now()),
			}
		}
		task.Title = in.Title
		task.Date = in.Date
		task.Time = in.Time
		task.Category = in.Category
		task.Description = in.Description
		task.Notification = in.Notification
		task.NotificationTime = nil
		task.NotificationID = ""
		if in.Notification {
			lead := in.NotificationTime
			task.NotificationTime = &lead
			s.reminders.RecordIntent(&task)
		}

		if idx >= 0 {
			d.Tasks[idx] = task
		} else {
			d.Tasks = append(d.Tasks, task)
		}
		saved = task
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}

	if opts.EditingID != "" {
		log.Printf("[info] task updated id=%s date=%s time=%s", saved.ID, saved.Date, saved.Time)
	} else {
		log.Printf("[info] task created id=%s date=%s time=%s", saved.ID, saved.Date, saved.Time)
	}
	s.reminders.LogPlan(saved)
	return saved, nil
}

func normalizeInput(d *store.Data, in TaskInput) (TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)

	if in.Title == "" {
		return in, invalid("title", "must not be empty")
	}
	if !model.IsDate(in.Date) {
		return in, invalid("date", "expected YYYY-MM-DD")
	}
	if !model.IsClock(in.Time) {
		return in, &ValidationError{Field: "time", Message: "expected HH:MM", Err: ErrInvalidTimeFormat}
	}
	if in.Category == "" {
		return in, invalid("category", "is required")
	}
	if _, ok := d.CategoryByID(in.Category); !ok {
		return in, invalid("category", fmt.Sprintf("unknown category %q", in.Category))
	}
	if in.Notification {
		switch {
		case in.NotificationTime == 0:
			in.NotificationTime = DefaultReminderLead
		case in.NotificationTime < 0 || in.NotificationTime > 24*60:
			return in, invalid("notificationTime", "must be between 1 and 1440 minutes")
		}
	}
	return in, nil
}

// Delete removes the task with id.
func (s *TaskService) Delete(ctx context.Context, st *store.Store, id string) error {
	err := st.Mutate(ctx, func(d *store.Data) error {
		idx := d.TaskIndex(id)
		if idx < 0 {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		d.Tasks = append(d.Tasks[:idx], d.Tasks[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[info] task deleted id=%s", id)
	return nil
}

// ToggleCompletion flips the completed flag of the task with id.
func (s *TaskService) ToggleCompletion(ctx context.Context, st *store.Store, id string) (model.Task, error) {
	var toggled model.Task
	err := st.Mutate(ctx, func(d *store.Data) error {
		idx := d.TaskIndex(id)
		if idx < 0 {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		d.Tasks[idx].Completed = !d.Tasks[idx].Completed
		toggled = d.Tasks[idx]
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}
	log.Printf("[info] task toggled id=%s completed=%t", toggled.ID, toggled.Completed)
	return toggled, nil
}

// Move reschedules a task. Unlike Save there is no way to accept a
// conflict: an occupied slot always refuses the move.
func (s *TaskService) Move(ctx context.Context, st *store.Store, id, date, clock string) (model.Task, error) {
	var moved model.Task
	err := st.Mutate(ctx, func(d *store.Data) error {
		idx := d.TaskIndex(id)
		if idx < 0 {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		if !model.IsClock(clock) {
			return &ValidationError{Field: "time", Message: "expected HH:MM", Err: ErrInvalidTimeFormat}
		}
		if !model.IsDate(date) {
			return invalid("date", "expected YYYY-MM-DD")
		}
		if conflict, ok := FindConflict(d.Tasks, date, clock, id); ok {
			return &ConflictError{Task: conflict}
		}
		d.Tasks[idx].Date = date
		d.Tasks[idx].Time = clock
		moved = d.Tasks[idx]
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}
	log.Printf("[info] task moved id=%s date=%s time=%s", moved.ID, moved.Date, moved.Time)
	s.reminders.LogPlan(moved)
	return moved, nil
}
