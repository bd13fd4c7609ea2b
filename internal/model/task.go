package model

import "time"

// Task represents a single item in the planner.
type Task struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	Category         string    `json:"category"`
	Description      string    `json:"description"`
	Completed        bool      `json:"completed"`
	CreatedAt        Timestamp `json:"createdAt"`
	Notification     bool      `json:"notification"`
	NotificationTime *int      `json:"notificationTime"`
	NotificationID   string    `json:"notificationId,omitempty"`
}

// Minutes returns the task start as minutes since midnight.
func (t Task) Minutes() (int, bool) {
	return ClockMinutes(t.Time)
}

// Hour returns the hour of day the task starts at, or -1 when the stored time is malformed.
func (t Task) Hour() int {
	minutes, ok := t.Minutes()
	if !ok {
		return -1
	}
	return minutes / 60
}

// Start combines the task date and time in loc.
func (t Task) Start(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+ClockLayout, t.Date+" "+t.Time, loc)
}
