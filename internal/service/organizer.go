package service

import (
	"sort"

	"day-planner/internal/model"
)

// The day view covers hours FirstHour..LastHour inclusive.
const (
	FirstHour = 8
	LastHour  = 22

	// FilterAll selects tasks of every category.
	FilterAll = "all"
)

// HourBucket groups the tasks starting within one hour of the day view.
type HourBucket struct {
	Hour  int          `json:"hour"`
	Tasks []model.Task `json:"tasks"`
}

// DayStats summarizes a day selection.
type DayStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	// Hidden counts selected tasks that fall outside the hourly window.
	Hidden int `json:"hidden"`
}

// SelectDay returns the tasks dated exactly date that match filter,
// ordered by time of day. Tasks sharing a time keep their insertion order.
func SelectDay(tasks []model.Task, date, filter string) []model.Task {
	selected := make([]model.Task, 0)
	for _, task := range tasks {
		if task.Date != date {
			continue
		}
		if filter != "" && filter != FilterAll && task.Category != filter {
			continue
		}
		selected = append(selected, task)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return sortKey(selected[i]) < sortKey(selected[j])
	})
	return selected
}

// Unparseable times sort first and are never bucketed.
func sortKey(task model.Task) int {
	minutes, ok := task.Minutes()
	if !ok {
		return -1
	}
	return minutes
}

// TasksForDay buckets the day selection into the fixed hourly slots.
// Every hour of the window is present, empty or not; tasks starting
// before FirstHour or after LastHour are left out.
func TasksForDay(tasks []model.Task, date, filter string) []HourBucket {
	buckets := make([]HourBucket, 0, LastHour-FirstHour+1)
	for hour := FirstHour; hour <= LastHour; hour++ {
		buckets = append(buckets, HourBucket{Hour: hour, Tasks: []model.Task{}})
	}
	for _, task := range SelectDay(tasks, date, filter) {
		hour := task.Hour()
		if hour < FirstHour || hour > LastHour {
			continue
		}
		b := &buckets[hour-FirstHour]
		b.Tasks = append(b.Tasks, task)
	}
	return buckets
}

// Stats counts the day selection.
func Stats(tasks []model.Task, date, filter string) DayStats {
	var stats DayStats
	for _, task := range SelectDay(tasks, date, filter) {
		stats.Total++
		if task.Completed {
			stats.Completed++
		}
		if hour := task.Hour(); hour < FirstHour || hour > LastHour {
			stats.Hidden++
		}
	}
	return stats
}

// FindConflict returns the first task, in insertion order, that occupies
// exactly the same date and time, ignoring the task with excludeID.
func FindConflict(tasks []model.Task, date, clock, excludeID string) (model.Task, bool) {
	for _, task := range tasks {
		if excludeID != "" && task.ID == excludeID {
			continue
		}
		if task.Date == date && task.Time == clock {
			return task, true
		}
	}
	return model.Task{}, false
}
