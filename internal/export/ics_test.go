package export

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"

	"day-planner/internal/model"
	"day-planner/internal/store"
)

func TestDayCalendar(t *testing.T) {
	t.Parallel()
	lead := 20
	tasks := []model.Task{
		{ID: "b", Title: "Standup", Date: "2024-05-01", Time: "10:00", Category: store.CategoryWork, Completed: true},
		{ID: "a", Title: "Study", Date: "2024-05-01", Time: "09:00", Category: store.CategoryStudy, Description: "ch 3", Notification: true, NotificationTime: &lead},
		{ID: "c", Title: "Night", Date: "2024-05-01", Time: "23:00", Category: store.CategoryHome},
		{ID: "d", Title: "Other day", Date: "2024-05-02", Time: "09:00", Category: store.CategoryHome},
	}
	stamp := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)

	out, err := DayCalendar(tasks, store.DefaultCategories(), "2024-05-01", "all", stamp)
	if err != nil {
		t.Fatalf("DayCalendar failed: %v", err)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar failed: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Id() != "a@day-planner" {
		t.Errorf("Expected events in day order, first is %s", events[0].Id())
	}
	if p := events[0].GetProperty(ics.ComponentPropertyDtStart); p == nil || p.Value != "20240501T090000" {
		t.Errorf("Unexpected DTSTART %+v", p)
	}

	for _, want := range []string{"SUMMARY:Study", "DESCRIPTION:ch 3", "CATEGORIES:Учеба", "STATUS:CONFIRMED", "TRIGGER:-PT20M", "ACTION:DISPLAY"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected calendar to contain %q", want)
		}
	}
	if strings.Contains(out, "STATUS:COMPLETED") {
		t.Errorf("COMPLETED is not a valid event status:\n%s", out)
	}
	if p := events[1].GetProperty(PropertyCompleted); p == nil || p.Value != "TRUE" {
		t.Errorf("Expected completed task to carry %s, got %+v", PropertyCompleted, p)
	}
	if p := events[0].GetProperty(PropertyCompleted); p != nil {
		t.Errorf("Expected open task without %s, got %+v", PropertyCompleted, p)
	}
}

func TestDayCalendarFilterAndValidation(t *testing.T) {
	t.Parallel()
	tasks := []model.Task{
		{ID: "a", Title: "Study", Date: "2024-05-01", Time: "09:00", Category: store.CategoryStudy},
		{ID: "b", Title: "Standup", Date: "2024-05-01", Time: "10:00", Category: store.CategoryWork},
	}

	out, err := DayCalendar(tasks, store.DefaultCategories(), "2024-05-01", store.CategoryWork, time.Now())
	if err != nil {
		t.Fatalf("DayCalendar failed: %v", err)
	}
	if strings.Contains(out, "SUMMARY:Study") || !strings.Contains(out, "SUMMARY:Standup") {
		t.Errorf("Expected only the work task, got:\n%s", out)
	}

	if _, err := DayCalendar(tasks, nil, "01/05/2024", "all", time.Now()); err == nil {
		t.Errorf("Expected invalid date to be rejected")
	}
	if got := FileName("2024-05-01"); got != "planner-2024-05-01.ics" {
		t.Errorf("Unexpected file name %s", got)
	}
}
