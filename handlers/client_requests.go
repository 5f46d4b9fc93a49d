package handlers

import (
	"net/http"
	"strings"

	"b0ase/models"

	"github.com/shopspring/decimal"
)

type ClientRequestHandler struct {
	*Deps
}

func NewClientRequestHandler(d *Deps) *ClientRequestHandler {
	return &ClientRequestHandler{Deps: d}
}

type clientRequestForm struct {
	Name             string              `json:"name" validate:"required,max=200"`
	Email            string              `json:"email" validate:"required,email,max=255"`
	Website          string              `json:"website" validate:"omitempty,url,max=500"`
	Phone            string              `json:"phone" validate:"max=50"`
	LogoURL          string              `json:"logo_url" validate:"omitempty,url,max=500"`
	ProjectBrief     string              `json:"project_brief" validate:"required,max=5000"`
	ProjectTypes     []string            `json:"project_types" validate:"max=20"`
	RequestedBudget  decimal.NullDecimal `json:"requested_budget"`
	Socials          string              `json:"socials" validate:"max=2000"`
	GithubLinks      string              `json:"github_links" validate:"max=2000"`
	InspirationLinks string              `json:"inspiration_links" validate:"max=2000"`
	HowHeard         string              `json:"how_heard" validate:"max=500"`
}

// Submit stores a prospective client's intake form for review.
func (h *ClientRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form clientRequestForm
	if !bind(w, r, &form) {
		return
	}
	if form.RequestedBudget.Valid && form.RequestedBudget.Decimal.IsNegative() {
		writeError(w, http.StatusBadRequest, "requested_budget must not be negative")
		return
	}

	req := models.ClientRequest{
		Name:             strings.TrimSpace(form.Name),
		Email:            normalizeEmail(form.Email),
		Website:          form.Website,
		Phone:            strings.TrimSpace(form.Phone),
		LogoURL:          form.LogoURL,
		ProjectBrief:     form.ProjectBrief,
		ProjectTypes:     form.ProjectTypes,
		RequestedBudget:  form.RequestedBudget,
		Socials:          form.Socials,
		GithubLinks:      form.GithubLinks,
		InspirationLinks: form.InspirationLinks,
		HowHeard:         form.HowHeard,
		Status:           models.RequestPending,
	}
	if err := h.DB.WithContext(r.Context()).Create(&req).Error; err != nil {
		h.storeError(w, err, "client request")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":     req.ID,
		"status": req.Status,
	})
}
