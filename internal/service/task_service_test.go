package service

import (
	"context"
	"errors"
	"testing"

	"day-planner/internal/store"
)

func studyInput() TaskInput {
	return TaskInput{Title: "Study", Date: "2024-05-01", Time: "09:00", Category: store.CategoryStudy}
}

func TestSaveCreatesTaskAndBucketsIt(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tasks.Save(ctx, f.store, studyInput(), SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if created.ID == "" || created.Completed || created.CreatedAt.IsZero() {
		t.Errorf("Unexpected created task %+v", created)
	}

	buckets, err := f.tasks.TasksForDay(f.store, "2024-05-01", FilterAll)
	if err != nil {
		t.Fatalf("TasksForDay failed: %v", err)
	}
	hour9 := buckets[9-FirstHour]
	if len(hour9.Tasks) != 1 || hour9.Tasks[0].ID != created.ID {
		t.Errorf("Expected hour 9 to hold exactly the new task, got %+v", hour9.Tasks)
	}
	if len(buckets[10-FirstHour].Tasks) != 0 {
		t.Errorf("Expected hour 10 to be empty")
	}
	if f.backend.puts != 1 {
		t.Errorf("Expected one persisted write, got %d", f.backend.puts)
	}
}

func TestSaveReportsConflictAndAllowsOverride(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	in := TaskInput{Title: "Standup", Date: "2024-05-01", Time: "10:00", Category: store.CategoryWork}
	first, err := f.tasks.Save(ctx, f.store, in, SaveOptions{})
	if err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	in.Title = "Review"
	_, err = f.tasks.Save(ctx, f.store, in, SaveOptions{})
	if !errors.Is(err, ErrTimeConflict) {
		t.Fatalf("Expected time conflict, got %v", err)
	}
	conflict, ok := ConflictOf(err)
	if !ok || conflict.ID != first.ID {
		t.Errorf("Expected conflict with %s, got %+v", first.ID, conflict)
	}
	if len(f.store.Tasks()) != 1 {
		t.Fatalf("Expected conflicting save to be rejected")
	}

	second, err := f.tasks.Save(ctx, f.store, in, SaveOptions{AllowConflict: true})
	if err != nil {
		t.Fatalf("override Save failed: %v", err)
	}
	if second.ID == first.ID {
		t.Errorf("Expected distinct ids")
	}

	got, ok := f.tasks.FindConflict(f.store, "2024-05-01", "10:00", "")
	if !ok || got.ID != first.ID {
		t.Errorf("Expected deterministic first conflict %s, got %s", first.ID, got.ID)
	}
}

func TestSaveEditDoesNotConflictWithItself(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tasks.Save(ctx, f.store, studyInput(), SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := f.tasks.ToggleCompletion(ctx, f.store, created.ID); err != nil {
		t.Fatalf("ToggleCompletion failed: %v", err)
	}

	edit := studyInput()
	edit.Title = "Study hard"
	edit.Description = "chapter 3"
	updated, err := f.tasks.Save(ctx, f.store, edit, SaveOptions{EditingID: created.ID})
	if err != nil {
		t.Fatalf("edit Save failed: %v", err)
	}
	if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt.Time) {
		t.Errorf("Expected id and createdAt to be preserved, got %+v", updated)
	}
	if !updated.Completed {
		t.Errorf("Expected completion to survive an edit")
	}
	if updated.Title != "Study hard" || updated.Description != "chapter 3" {
		t.Errorf("Expected fields to be overwritten, got %+v", updated)
	}
	if len(f.store.Tasks()) != 1 {
		t.Errorf("Expected edit in place, got %d tasks", len(f.store.Tasks()))
	}
}

func TestSaveEditUnknownTask(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.tasks.Save(context.Background(), f.store, studyInput(), SaveOptions{EditingID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		edit  func(*TaskInput)
		field string
	}{
		{"empty title", func(in *TaskInput) { in.Title = "   " }, "title"},
		{"bad date", func(in *TaskInput) { in.Date = "01.05.2024" }, "date"},
		{"bad time", func(in *TaskInput) { in.Time = "9:00" }, "time"},
		{"out of range time", func(in *TaskInput) { in.Time = "25:00" }, "time"},
		{"missing category", func(in *TaskInput) { in.Category = "" }, "category"},
		{"unknown category", func(in *TaskInput) { in.Category = "gym" }, "category"},
		{"negative lead", func(in *TaskInput) { in.Notification = true; in.NotificationTime = -5 }, "notificationTime"},
	}

	for _, tt := range tests {
		in := studyInput()
		tt.edit(&in)
		_, err := f.tasks.Save(ctx, f.store, in, SaveOptions{})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", tt.name, err)
			continue
		}
		if verr.Field != tt.field {
			t.Errorf("%s: expected field %s, got %s", tt.name, tt.field, verr.Field)
		}
	}

	in := studyInput()
	in.Time = "9:00"
	if _, err := f.tasks.Save(ctx, f.store, in, SaveOptions{}); !errors.Is(err, ErrInvalidTimeFormat) {
		t.Errorf("Expected bad time to match ErrInvalidTimeFormat, got %v", err)
	}

	if len(f.store.Tasks()) != 0 || f.backend.puts != 0 {
		t.Errorf("Expected no mutation after rejected input")
	}
}

func TestSaveRecordsReminderIntent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	in := studyInput()
	in.Notification = true
	created, err := f.tasks.Save(ctx, f.store, in, SaveOptions{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if created.NotificationTime == nil || *created.NotificationTime != DefaultReminderLead {
		t.Errorf("Expected default lead, got %v", created.NotificationTime)
	}
	if created.NotificationID != "notif_"+created.ID {
		t.Errorf("Expected notification id, got %q", created.NotificationID)
	}

	in.Notification = false
	updated, err := f.tasks.Save(ctx, f.store, in, SaveOptions{EditingID: created.ID})
	if err != nil {
		t.Fatalf("edit Save failed: %v", err)
	}
	if updated.NotificationTime != nil || updated.NotificationID != "" {
		t.Errorf("Expected reminder to be cleared, got %+v", updated)
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	a, _ := f.tasks.Save(ctx, f.store, studyInput(), SaveOptions{})
	in := studyInput()
	in.Time = "11:00"
	b, _ := f.tasks.Save(ctx, f.store, in, SaveOptions{})

	if err := f.tasks.Delete(ctx, f.store, a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	tasks := f.store.Tasks()
	if len(tasks) != 1 || tasks[0].ID != b.ID {
		t.Errorf("Expected only %s left, got %+v", b.ID, tasks)
	}
	if err := f.tasks.Delete(ctx, f.store, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestToggleCompletion(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, _ := f.tasks.Save(ctx, f.store, studyInput(), SaveOptions{})

	toggled, err := f.tasks.ToggleCompletion(ctx, f.store, created.ID)
	if err != nil || !toggled.Completed {
		t.Fatalf("Expected completed, got %+v %v", toggled, err)
	}
	toggled, err = f.tasks.ToggleCompletion(ctx, f.store, created.ID)
	if err != nil || toggled.Completed {
		t.Fatalf("Expected reopened, got %+v %v", toggled, err)
	}
	if _, err := f.tasks.ToggleCompletion(ctx, f.store, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMoveTask(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	a, _ := f.tasks.Save(ctx, f.store, studyInput(), SaveOptions{})
	in := studyInput()
	in.Time = "12:00"
	b, _ := f.tasks.Save(ctx, f.store, in, SaveOptions{})

	_, err := f.tasks.Move(ctx, f.store, a.ID, "2024-05-01", "12:00")
	if conflict, ok := ConflictOf(err); !ok || conflict.ID != b.ID {
		t.Fatalf("Expected conflict with %s, got %v", b.ID, err)
	}
	gotA, _ := f.tasks.Get(f.store, a.ID)
	gotB, _ := f.tasks.Get(f.store, b.ID)
	if gotA.Time != "09:00" || gotB.Time != "12:00" || gotA.Date != "2024-05-01" {
		t.Errorf("Expected both tasks unchanged after refused move, got %s and %s", gotA.Time, gotB.Time)
	}

	for _, bad := range []string{"9:00", "09:00:00", "ab:cd", "24:30"} {
		if _, err := f.tasks.Move(ctx, f.store, a.ID, "2024-05-02", bad); !errors.Is(err, ErrInvalidTimeFormat) {
			t.Errorf("Move to %q: expected ErrInvalidTimeFormat, got %v", bad, err)
		}
	}

	moved, err := f.tasks.Move(ctx, f.store, a.ID, "2024-05-02", "12:00")
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if moved.ID != a.ID || moved.Date != "2024-05-02" || moved.Time != "12:00" {
		t.Errorf("Unexpected moved task %+v", moved)
	}

	if _, err := f.tasks.Move(ctx, f.store, a.ID, "2024-05-02", "12:00"); err != nil {
		t.Errorf("Expected moving onto its own slot to succeed, got %v", err)
	}
	if _, err := f.tasks.Move(ctx, f.store, "missing", "2024-05-02", "13:00"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDayRejectsInvalidDate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var verr *ValidationError
	if _, err := f.tasks.Day(f.store, "2024/05/01", FilterAll); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError, got %v", err)
	}

	view, err := f.tasks.Day(f.store, "2024-05-01", "")
	if err != nil {
		t.Fatalf("Day failed: %v", err)
	}
	if view.Filter != FilterAll || len(view.Buckets) != 15 {
		t.Errorf("Unexpected view %+v", view)
	}
}
