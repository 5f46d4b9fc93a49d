package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectPendingSetup ProjectStatus = "pending_setup"
	ProjectInProgress   ProjectStatus = "in_progress"
	ProjectLive         ProjectStatus = "live"
	ProjectOnHold       ProjectStatus = "on_hold"
	ProjectCompleted    ProjectStatus = "completed"
	ProjectArchived     ProjectStatus = "archived"
)

func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch st := ProjectStatus(s); st {
	case ProjectPendingSetup, ProjectInProgress, ProjectLive, ProjectOnHold, ProjectCompleted, ProjectArchived:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// Project is a client engagement owned by one user. Members join through
// ProjectMembership.
type Project struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	DeletedAt        gorm.DeletedAt      `gorm:"index" json:"-"`
	Slug             string              `gorm:"uniqueIndex;not null;size:120" json:"slug"`
	Name             string              `gorm:"not null;size:200" json:"name"`
	OwnerID          uint                `gorm:"not null;index" json:"owner_id"`
	Owner            *User               `gorm:"foreignKey:OwnerID" json:"-"`
	Status           ProjectStatus       `gorm:"not null;size:30;default:pending_setup" json:"status"`
	Email            string              `gorm:"size:255;index" json:"email,omitempty"`
	Brief            string              `gorm:"size:5000" json:"brief"`
	Notes            string              `gorm:"size:5000" json:"notes"`
	Description      string              `gorm:"size:5000" json:"description"`
	Category         string              `gorm:"size:100" json:"category"`
	Badge1           string              `gorm:"size:60" json:"badge1"`
	Badge2           string              `gorm:"size:60" json:"badge2"`
	Badge3           string              `gorm:"size:60" json:"badge3"`
	Badge4           string              `gorm:"size:60" json:"badge4"`
	Badge5           string              `gorm:"size:60" json:"badge5"`
	PreviewURL       string              `gorm:"size:500" json:"preview_url"`
	LiveURL          string              `gorm:"size:500" json:"live_url"`
	RepoURL          string              `gorm:"size:500" json:"repo_url"`
	LogoURL          string              `gorm:"size:500" json:"logo_url"`
	ProjectTypes     pq.StringArray      `gorm:"type:text[]" json:"project_types"`
	RequestedBudget  decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"requested_budget"`
	IsFeatured       bool                `gorm:"default:false" json:"is_featured"`
	HowHeard         string              `gorm:"size:500" json:"how_heard,omitempty"`
	InspirationLinks string              `gorm:"size:2000" json:"inspiration_links,omitempty"`
}

// CanTransitionTo reports whether the status may move to next. Archived
// projects can only be reopened into setup.
func (p *Project) CanTransitionTo(next ProjectStatus) bool {
	if p.Status == next {
		return true
	}
	if p.Status == ProjectArchived {
		return next == ProjectPendingSetup
	}
	return true
}

func (p *Project) SetStatus(next ProjectStatus) error {
	if !p.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	p.Status = next
	return nil
}

func (p *Project) Badges() []string {
	var out []string
	for _, b := range []string{p.Badge1, p.Badge2, p.Badge3, p.Badge4, p.Badge5} {
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}
