package models

import (
	"time"

	"gorm.io/datatypes"
)

type Profile struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	UserID      uint              `gorm:"uniqueIndex;not null" json:"user_id"`
	Username    string            `gorm:"uniqueIndex;not null;size:30" json:"username"`
	DisplayName string            `gorm:"size:100" json:"display_name"`
	FullName    string            `gorm:"size:200" json:"full_name"`
	Bio         string            `gorm:"size:2000" json:"bio"`
	AvatarURL   string            `gorm:"size:500" json:"avatar_url"`
	WebsiteURL  string            `gorm:"size:500" json:"website_url"`
	SocialLinks datatypes.JSONMap `json:"social_links"`
	TokenHandle string            `gorm:"size:60" json:"token_handle"`
	TokenTicker string            `gorm:"size:6" json:"token_ticker"`
}

// DisplayLabel is the name shown next to a user in lists.
func (p *Profile) DisplayLabel() string {
	switch {
	case p == nil:
		return ""
	case p.DisplayName != "":
		return p.DisplayName
	case p.FullName != "":
		return p.FullName
	default:
		return p.Username
	}
}

type Skill struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Category    string    `gorm:"size:100" json:"category"`
	Description string    `gorm:"size:500" json:"description"`
}

type UserSkill struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_skill" json:"user_id"`
	SkillID   uint      `gorm:"not null;uniqueIndex:idx_user_skill" json:"skill_id"`
	Skill     *Skill    `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
}
