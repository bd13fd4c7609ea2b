package model

import "time"

// Record is a single key-value entry of a workspace namespace.
type Record struct {
	Namespace string `gorm:"primaryKey"`
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}
