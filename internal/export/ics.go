// Package export renders planner days in interchange formats.
package export

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"day-planner/internal/model"
	"day-planner/internal/service"
)

const (
	productID = "-//day-planner//planner export//RU"
	// Tasks carry no duration; every event spans this long.
	eventLength = 30 * time.Minute
	icsLocal    = "20060102T150405"
)

// PropertyCompleted marks a finished task. VEVENT has no completed status.
const PropertyCompleted ics.ComponentProperty = "X-DAY-PLANNER-COMPLETED"

// DayCalendar builds a VCALENDAR holding the tasks shown in the day view
// of date under filter. Events use floating local time.
func DayCalendar(tasks []model.Task, categories []model.Category, date, filter string, stamp time.Time) (string, error) {
	if !model.IsDate(date) {
		return "", fmt.Errorf("export day %q: invalid date", date)
	}

	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, bucket := range service.TasksForDay(tasks, date, filter) {
		for _, task := range bucket.Tasks {
			start, err := task.Start(time.UTC)
			if err != nil {
				continue
			}
			event := cal.AddEvent(task.ID + "@day-planner")
			event.SetDtStampTime(stamp.UTC())
			event.SetProperty(ics.ComponentPropertyDtStart, start.Format(icsLocal))
			event.SetProperty(ics.ComponentPropertyDtEnd, start.Add(eventLength).Format(icsLocal))
			event.SetSummary(task.Title)
			if desc := strings.TrimSpace(task.Description); desc != "" {
				event.SetDescription(desc)
			}
			if name, ok := names[task.Category]; ok {
				event.AddCategory(name)
			}
			event.SetStatus(ics.ObjectStatusConfirmed)
			if task.Completed {
				event.SetProperty(PropertyCompleted, "TRUE")
			}
			if task.Notification && task.NotificationTime != nil {
				alarm := event.AddAlarm()
				alarm.SetAction(ics.ActionDisplay)
				alarm.SetTrigger(fmt.Sprintf("-PT%dM", *task.NotificationTime))
				alarm.SetProperty(ics.ComponentPropertyDescription, task.Title)
			}
		}
	}

	return cal.Serialize(), nil
}

// FileName suggests a download name for the calendar of date.
func FileName(date string) string {
	return "planner-" + date + ".ics"
}
