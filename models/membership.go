package models

import (
	"time"
)

type MembershipStatus string

const (
	MembershipInvited              MembershipStatus = "invited"
	MembershipPendingOwnerApproval MembershipStatus = "pending_owner_approval"
	MembershipApproved             MembershipStatus = "approved"
	MembershipRejected             MembershipStatus = "rejected"
	MembershipDeclined             MembershipStatus = "declined"
	MembershipRevoked              MembershipStatus = "revoked"
	MembershipExpired              MembershipStatus = "expired"
	MembershipRemoved              MembershipStatus = "removed"
)

// membershipTransitions lists every status a membership may move to from
// its current one. Anything missing is final.
var membershipTransitions = map[MembershipStatus][]MembershipStatus{
	MembershipInvited:              {MembershipPendingOwnerApproval, MembershipDeclined, MembershipRevoked, MembershipExpired},
	MembershipPendingOwnerApproval: {MembershipApproved, MembershipRejected, MembershipRevoked},
	MembershipApproved:             {MembershipRemoved},
}

type ProjectRole string

const (
	ProjectRoleManager       ProjectRole = "project_manager"
	ProjectRoleCollaborator  ProjectRole = "collaborator"
	ProjectRoleClientContact ProjectRole = "client_contact"
	ProjectRoleViewer        ProjectRole = "viewer"
	ProjectRoleMember        ProjectRole = "member"
)

func ParseProjectRole(s string) (ProjectRole, error) {
	if s == "" {
		return ProjectRoleMember, nil
	}
	switch r := ProjectRole(s); r {
	case ProjectRoleManager, ProjectRoleCollaborator, ProjectRoleClientContact, ProjectRoleViewer, ProjectRoleMember:
		return r, nil
	}
	return "", ErrInvalidRole
}

// ProjectMembership links a user to a project. A user holds at most one
// active (invited, pending or approved) membership per project; finished
// ones are kept as history.
type ProjectMembership struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	ProjectID uint             `gorm:"not null;index;uniqueIndex:idx_project_user_active,priority:1,where:status IN ('invited'\\,'pending_owner_approval'\\,'approved')" json:"project_id"`
	Project   *Project         `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID    uint             `gorm:"not null;index;uniqueIndex:idx_project_user_active,priority:2" json:"user_id"`
	User      *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      ProjectRole      `gorm:"not null;size:30;default:member" json:"role"`
	Status    MembershipStatus `gorm:"not null;size:30;index" json:"status"`
	InvitedBy *uint            `json:"invited_by"`
}

func (m *ProjectMembership) CanTransitionTo(next MembershipStatus) bool {
	for _, s := range membershipTransitions[m.Status] {
		if s == next {
			return true
		}
	}
	return false
}

func (m *ProjectMembership) Transition(next MembershipStatus) error {
	if !m.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	m.Status = next
	return nil
}

// IsActive reports whether the membership still blocks a new invitation for
// the same user.
func (m *ProjectMembership) IsActive() bool {
	switch m.Status {
	case MembershipInvited, MembershipPendingOwnerApproval, MembershipApproved:
		return true
	}
	return false
}

// ActiveMembershipStatuses is used in queries that look for a live membership.
func ActiveMembershipStatuses() []MembershipStatus {
	return []MembershipStatus{MembershipInvited, MembershipPendingOwnerApproval, MembershipApproved}
}
