package handlers

import (
	"net/http"
	"time"

	"b0ase/events"
	"b0ase/models"
)

type InvitationHandler struct {
	*Deps
}

func NewInvitationHandler(d *Deps) *InvitationHandler {
	return &InvitationHandler{Deps: d}
}

type invitationView struct {
	ID           uint                 `json:"id"`
	Role         models.ProjectRole   `json:"role"`
	InvitedAt    time.Time            `json:"invited_at"`
	ProjectSlug  string               `json:"project_slug"`
	ProjectName  string               `json:"project_name"`
	ProjectBrief string               `json:"project_brief"`
	Status       models.ProjectStatus `json:"project_status"`
	Owner        string               `json:"owner"`
}

// List returns the caller's open invitations with enough of the project to
// decide on them.
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var memberships []models.ProjectMembership
	err := h.DB.WithContext(r.Context()).
		Preload("Project.Owner.Profile").
		Where("user_id = ? AND status = ?", user.ID, models.MembershipInvited).
		Order("created_at DESC").
		Find(&memberships).Error
	if err != nil {
		h.storeError(w, err, "invitation")
		return
	}

	out := make([]invitationView, 0, len(memberships))
	for _, m := range memberships {
		// the project may have been deleted since
		if m.Project == nil {
			continue
		}
		v := invitationView{
			ID:           m.ID,
			Role:         m.Role,
			InvitedAt:    m.CreatedAt,
			ProjectSlug:  m.Project.Slug,
			ProjectName:  m.Project.Name,
			ProjectBrief: m.Project.Brief,
			Status:       m.Project.Status,
		}
		if m.Project.Owner != nil {
			v.Owner = m.Project.Owner.Profile.DisplayLabel()
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

// Accept moves the invitation on to the owner for approval.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	m, ok := h.decide(w, r, models.MembershipPendingOwnerApproval)
	if !ok {
		return
	}
	h.publish(events.New(events.MembershipAccepted, m.ProjectID, m.UserID, map[string]any{"membership_id": m.ID}))
	writeJSON(w, http.StatusOK, m)
}

func (h *InvitationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	m, ok := h.decide(w, r, models.MembershipDeclined)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *InvitationHandler) decide(w http.ResponseWriter, r *http.Request, next models.MembershipStatus) (*models.ProjectMembership, bool) {
	user := currentUser(r)
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	var m models.ProjectMembership
	if err := h.DB.WithContext(r.Context()).Where("id = ? AND user_id = ?", id, user.ID).First(&m).Error; err != nil {
		h.storeError(w, err, "invitation")
		return nil, false
	}
	if m.Status != models.MembershipInvited {
		writeError(w, http.StatusConflict, "invitation is no longer open")
		return nil, false
	}
	if err := m.Transition(next); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return nil, false
	}
	if err := h.DB.WithContext(r.Context()).Model(&m).Update("status", m.Status).Error; err != nil {
		h.storeError(w, err, "invitation")
		return nil, false
	}
	return &m, true
}
