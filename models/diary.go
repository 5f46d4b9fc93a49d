package models

import "time"

// DiaryEntry is a private work log note. Its action items can later be sent
// on as work-in-progress tasks.
type DiaryEntry struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	UserID         uint              `gorm:"not null;index" json:"user_id"`
	EntryTimestamp time.Time         `gorm:"not null;index" json:"entry_timestamp"`
	Title          string            `gorm:"not null;size:200" json:"title"`
	Summary        string            `gorm:"not null;type:text" json:"summary"`
	ActionItems    []DiaryActionItem `gorm:"foreignKey:DiaryEntryID;constraint:OnDelete:CASCADE" json:"action_items"`
}

type DiaryActionItem struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DiaryEntryID uint       `gorm:"not null;index" json:"diary_entry_id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	Text         string     `gorm:"not null;size:1000" json:"text"`
	IsCompleted  bool       `gorm:"default:false" json:"is_completed"`
	SentToWIPAt  *time.Time `json:"sent_to_wip_at"`
}
