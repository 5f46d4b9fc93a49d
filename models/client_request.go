package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// ClientRequest is a prospective client's intake form awaiting review.
type ClientRequest struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time           `json:"created_at"`
	Name             string              `gorm:"not null;size:200" json:"name"`
	Email            string              `gorm:"not null;size:255;index" json:"email"`
	Website          string              `gorm:"size:500" json:"website"`
	Phone            string              `gorm:"size:50" json:"phone"`
	LogoURL          string              `gorm:"size:500" json:"logo_url"`
	ProjectBrief     string              `gorm:"size:5000" json:"project_brief"`
	ProjectTypes     pq.StringArray      `gorm:"type:text[]" json:"project_types"`
	RequestedBudget  decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"requested_budget"`
	Socials          string              `gorm:"size:2000" json:"socials"`
	GithubLinks      string              `gorm:"size:2000" json:"github_links"`
	InspirationLinks string              `gorm:"size:2000" json:"inspiration_links"`
	HowHeard         string              `gorm:"size:500" json:"how_heard"`
	Status           RequestStatus       `gorm:"not null;size:20;default:pending;index" json:"status"`
	ReviewNotes      string              `gorm:"size:2000" json:"review_notes"`
	RejectionReason  string              `gorm:"size:2000" json:"rejection_reason"`
	ReviewedBy       string              `gorm:"size:255" json:"reviewed_by"`
	ReviewedAt       *time.Time          `json:"reviewed_at"`
}

func (r *ClientRequest) Approve(reviewer, notes string, at time.Time) {
	r.Status = RequestApproved
	r.ReviewNotes = notes
	r.ReviewedBy = reviewer
	r.ReviewedAt = &at
}

func (r *ClientRequest) Reject(reviewer, reason string, at time.Time) {
	r.Status = RequestRejected
	r.RejectionReason = reason
	r.ReviewedBy = reviewer
	r.ReviewedAt = &at
}
