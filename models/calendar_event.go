package models

import "time"

type CalendarEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Title       string    `gorm:"not null;size:200" json:"title"`
	Description string    `gorm:"size:2000" json:"description"`
	Category    string    `gorm:"size:50;index" json:"category"`
	EventDate   time.Time `gorm:"not null;type:date;index" json:"event_date"`
}
