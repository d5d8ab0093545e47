package models

import "time"

// LocalEntry is one opaque blob in the local durable tier, keyed by namespace.
type LocalEntry struct {
	Namespace string    `gorm:"primaryKey;size:100"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (LocalEntry) TableName() string {
	return "local_entries"
}
