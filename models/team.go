package models

import (
	"time"

	"gorm.io/datatypes"
)

type Team struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Name        string            `gorm:"not null;size:100" json:"name"`
	Slug        string            `gorm:"uniqueIndex;not null;size:120" json:"slug"`
	Description string            `gorm:"size:1000" json:"description"`
	IconName    string            `gorm:"size:60" json:"icon_name"`
	ColorScheme datatypes.JSONMap `json:"color_scheme"`
	CreatedBy   uint              `gorm:"not null;index" json:"created_by"`
	Members     []TeamMembership  `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

type TeamRole string

const (
	TeamOwner  TeamRole = "owner"
	TeamAdmin  TeamRole = "admin"
	TeamMember TeamRole = "member"
)

func ParseTeamRole(s string) (TeamRole, error) {
	switch r := TeamRole(s); r {
	case TeamOwner, TeamAdmin, TeamMember:
		return r, nil
	}
	return "", ErrInvalidRole
}

// CanManage reports whether the role may edit the team and its members.
func (r TeamRole) CanManage() bool {
	return r == TeamOwner || r == TeamAdmin
}

// TeamMembership joins a user to a team with a role.
type TeamMembership struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
	TeamID   uint      `gorm:"not null;uniqueIndex:idx_team_user" json:"team_id"`
	Team     *Team     `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_team_user;index" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role     TeamRole  `gorm:"not null;size:20;default:member" json:"role"`
}

// CanChangeRole checks whether actor may set target's role to next. owners
// is the number of owners the team currently has.
func CanChangeRole(actor, target TeamRole, next TeamRole, owners int) error {
	if !actor.CanManage() {
		return ErrInvalidRole
	}
	// only owners touch owners
	if (target == TeamOwner || next == TeamOwner) && actor != TeamOwner {
		return ErrInvalidRole
	}
	if target == TeamOwner && next != TeamOwner && owners <= 1 {
		return ErrLastOwner
	}
	return nil
}

// CanRemove checks whether actor may remove target from the team. Removing
// yourself is leaving, which any member may do unless they are the last owner.
func CanRemove(actor, target TeamRole, self bool, owners int) error {
	if target == TeamOwner && owners <= 1 {
		return ErrLastOwner
	}
	if self {
		return nil
	}
	if !actor.CanManage() {
		return ErrInvalidRole
	}
	if target == TeamOwner && actor != TeamOwner {
		return ErrInvalidRole
	}
	return nil
}

type TeamMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	TeamID    uint      `gorm:"not null;index" json:"team_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Content   string    `gorm:"not null;size:4000" json:"content"`
}
