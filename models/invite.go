package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

// Invite lets an admin onboard a client by email. The client follows the
// emailed code to set a password.
type Invite struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Code      string         `gorm:"uniqueIndex;not null;size:64" json:"code"`
	Email     string         `gorm:"not null;size:255;index" json:"email"`
	Role      Role           `gorm:"not null;size:20" json:"role"`
	Used      bool           `gorm:"default:false" json:"used"`
	CreatedBy uint           `gorm:"not null" json:"created_by"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
	ProjectID *uint          `gorm:"index" json:"project_id"`
}

func GenerateInviteCode() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (i *Invite) IsValid() bool {
	return i.IsValidAt(time.Now())
}

func (i *Invite) IsValidAt(now time.Time) bool {
	return !i.Used && now.Before(i.ExpiresAt)
}
