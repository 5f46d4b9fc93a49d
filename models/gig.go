package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GigStatus string

const (
	GigDraft      GigStatus = "draft"
	GigOpen       GigStatus = "open"
	GigInProgress GigStatus = "in_progress"
	GigClosed     GigStatus = "closed"
	GigCompleted  GigStatus = "completed"
)

func ParseGigStatus(s string) (GigStatus, error) {
	switch st := GigStatus(s); st {
	case GigDraft, GigOpen, GigInProgress, GigClosed, GigCompleted:
		return st, nil
	}
	return "", ErrInvalidStatus
}

const (
	BudgetFixed      = "fixed"
	BudgetHourly     = "hourly"
	BudgetNegotiable = "negotiable"

	LocationRemote = "remote"
	LocationOnSite = "on_site"
	LocationHybrid = "hybrid"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

type Gig struct {
	ID                 uint                `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	DeletedAt          gorm.DeletedAt      `gorm:"index" json:"-"`
	UserID             uint                `gorm:"not null;index" json:"user_id"`
	Title              string              `gorm:"not null;size:120" json:"title"`
	Description        string              `gorm:"size:5000" json:"description"`
	Category           string              `gorm:"size:100;index" json:"category"`
	SubCategory        string              `gorm:"size:100" json:"sub_category"`
	SkillsRequired     pq.StringArray      `gorm:"type:text[]" json:"skills_required"`
	Tags               pq.StringArray      `gorm:"type:text[]" json:"tags"`
	BudgetType         string              `gorm:"not null;size:20;default:negotiable" json:"budget_type"`
	BudgetAmountMin    decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"budget_amount_min"`
	BudgetAmountMax    decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"budget_amount_max"`
	Currency           string              `gorm:"not null;size:3;default:USD" json:"currency"`
	LocationPreference string              `gorm:"not null;size:20;default:remote" json:"location_preference"`
	Deadline           *time.Time          `gorm:"type:date" json:"deadline"`
	Status             GigStatus           `gorm:"not null;size:20;index;default:draft" json:"status"`
	IsPublished        bool                `gorm:"default:false;index" json:"is_published"`
}

// Normalize fills defaults and keeps status in step with the publish flag.
func (g *Gig) Normalize() {
	g.Title = strings.TrimSpace(g.Title)
	g.Currency = strings.ToUpper(strings.TrimSpace(g.Currency))
	if g.Currency == "" {
		g.Currency = "USD"
	}
	if g.BudgetType == "" {
		g.BudgetType = BudgetNegotiable
	}
	if g.LocationPreference == "" {
		g.LocationPreference = LocationRemote
	}
	if g.Status == "" {
		g.Status = GigDraft
	}
	if g.IsPublished && g.Status == GigDraft {
		g.Status = GigOpen
	}
	if !g.IsPublished && g.Status == GigOpen {
		g.Status = GigDraft
	}
}

func (g *Gig) Validate() error {
	switch {
	case g.Title == "":
		return errors.New("title is required")
	case len(g.Title) > 120:
		return errors.New("title must be at most 120 characters")
	}
	switch g.BudgetType {
	case BudgetFixed, BudgetHourly, BudgetNegotiable:
	default:
		return errors.New("budget_type must be fixed, hourly or negotiable")
	}
	switch g.LocationPreference {
	case LocationRemote, LocationOnSite, LocationHybrid:
	default:
		return errors.New("location_preference must be remote, on_site or hybrid")
	}
	if !currencyPattern.MatchString(g.Currency) {
		return errors.New("currency must be a three letter code")
	}
	if _, err := ParseGigStatus(string(g.Status)); err != nil {
		return err
	}
	if g.BudgetAmountMin.Valid && g.BudgetAmountMin.Decimal.IsNegative() {
		return errors.New("budget_amount_min must not be negative")
	}
	if g.BudgetAmountMax.Valid && g.BudgetAmountMax.Decimal.IsNegative() {
		return errors.New("budget_amount_max must not be negative")
	}
	if g.BudgetAmountMin.Valid && g.BudgetAmountMax.Valid &&
		g.BudgetAmountMin.Decimal.GreaterThan(g.BudgetAmountMax.Decimal) {
		return errors.New("budget_amount_min must not exceed budget_amount_max")
	}
	return nil
}

func (g *Gig) Publish() {
	g.IsPublished = true
	if g.Status == GigDraft {
		g.Status = GigOpen
	}
}

func (g *Gig) Unpublish() {
	g.IsPublished = false
	g.Status = GigDraft
}

// VisibleTo reports whether the gig can be read by the given user; drafts are
// private to their owner.
func (g *Gig) VisibleTo(u *User) bool {
	if g.IsPublished {
		return true
	}
	return u != nil && u.CanManageGig(g)
}

// ParseList splits a comma separated form value, dropping empty entries.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
