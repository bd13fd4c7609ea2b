package service

import (
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"day-planner/internal/model"
)

// ReminderService records reminder intent and builds human-readable day summaries.
// Reminders are planned and logged only; nothing is ever sent.
type ReminderService struct {
	loc *time.Location
}

func NewReminderService(loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderService{loc: loc}
}

// Plan returns the instant a reminder for task is due.
func (s *ReminderService) Plan(task model.Task) (time.Time, bool) {
	if !task.Notification || task.NotificationTime == nil {
		return time.Time{}, false
	}
	start, err := task.Start(s.loc)
	if err != nil {
		return time.Time{}, false
	}
	return start.Add(-time.Duration(*task.NotificationTime) * time.Minute), true
}

// RecordIntent marks task as having a planned reminder.
func (s *ReminderService) RecordIntent(task *model.Task) {
	task.NotificationID = "notif_" + task.ID
}

func (s *ReminderService) LogPlan(task model.Task) {
	if at, ok := s.Plan(task); ok {
		log.Printf("[info] reminder planned id=%s task=%s at=%s", task.NotificationID, task.ID, at.Format(time.RFC3339))
	}
}

var (
	weekdaysRu = [...]string{"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота"}
	monthsRu   = [...]string{"января", "февраля", "марта", "апреля", "мая", "июня", "июля", "августа", "сентября", "октября", "ноября", "декабря"}
)

// DayTitle renders date the way the planner header shows it, e.g. "Сегодня, среда, 1 мая".
func (s *ReminderService) DayTitle(date string, now time.Time) string {
	d, err := model.ParseDate(date, s.loc)
	if err != nil {
		return date
	}
	label := fmt.Sprintf("%s, %d %s", weekdaysRu[d.Weekday()], d.Day(), monthsRu[d.Month()-1])

	today := model.FormatDate(now.In(s.loc))
	yesterday, _ := model.ShiftDate(today, -1)
	tomorrow, _ := model.ShiftDate(today, 1)
	switch date {
	case today:
		return "Сегодня, " + label
	case yesterday:
		return "Вчера, " + label
	case tomorrow:
		return "Завтра, " + label
	default:
		return label
	}
}

// DaySummary renders view as HTML for chat delivery.
func (s *ReminderService) DaySummary(view DayView, categories []model.Category, now time.Time) string {
	catNames := make(map[string]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = c.Name
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📅 <b>%s</b>\n", html.EscapeString(s.DayTitle(view.Date, now))))
	if view.Filter != "" && view.Filter != FilterAll {
		builder.WriteString(fmt.Sprintf("🏷 Фильтр: %s\n", html.EscapeString(categoryName(view.Filter, catNames))))
	}
	builder.WriteByte('\n')

	empty := true
	for _, bucket := range view.Buckets {
		if len(bucket.Tasks) == 0 {
			continue
		}
		empty = false
		builder.WriteString(fmt.Sprintf("🕘 <b>%02d:00</b>\n", bucket.Hour))
		for i, task := range bucket.Tasks {
			shared := (i > 0 && bucket.Tasks[i-1].Time == task.Time) ||
				(i+1 < len(bucket.Tasks) && bucket.Tasks[i+1].Time == task.Time)
			builder.WriteString(formatTask(task, catNames, shared))
		}
	}
	if empty {
		builder.WriteString("— на этот день задач нет\n")
	}

	if view.Stats.Total > 0 {
		builder.WriteString(fmt.Sprintf("\n✅ Выполнено %d из %d", view.Stats.Completed, view.Stats.Total))
	}
	if view.Stats.Hidden > 0 {
		builder.WriteString(fmt.Sprintf("\nℹ️ Вне сетки %02d:00–%02d:00: %d", FirstHour, LastHour, view.Stats.Hidden))
	}

	return strings.TrimSpace(builder.String())
}

func formatTask(task model.Task, catNames map[string]string, shared bool) string {
	var sb strings.Builder

	mark := "⬜"
	if task.Completed {
		mark = "✅"
	}
	title := html.EscapeString(strings.TrimSpace(task.Title))
	if task.Completed {
		title = "<s>" + title + "</s>"
	}
	sb.WriteString(fmt.Sprintf("%s <code>%s</code> %s <i>(%s)</i>", mark, task.Time, title,
		html.EscapeString(categoryName(task.Category, catNames))))
	if shared {
		sb.WriteString(" ⚠️")
	}
	if task.Notification && task.NotificationTime != nil {
		sb.WriteString(fmt.Sprintf(" 🔔%d мин", *task.NotificationTime))
	}
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func categoryName(id string, catNames map[string]string) string {
	if name, ok := catNames[id]; ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return "без категории"
}
