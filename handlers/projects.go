package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"b0ase/database"
	"b0ase/events"
	"b0ase/mailer"
	"b0ase/models"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	*Deps
}

func NewProjectHandler(d *Deps) *ProjectHandler {
	return &ProjectHandler{Deps: d}
}

type projectRequest struct {
	Name            string              `json:"name" validate:"required,max=200"`
	Brief           string              `json:"brief" validate:"max=5000"`
	Notes           string              `json:"notes" validate:"max=5000"`
	Description     string              `json:"description" validate:"max=5000"`
	Category        string              `json:"category" validate:"max=100"`
	Badges          []string            `json:"badges" validate:"max=5,dive,max=60"`
	PreviewURL      string              `json:"preview_url" validate:"omitempty,url"`
	LiveURL         string              `json:"live_url" validate:"omitempty,url"`
	RepoURL         string              `json:"repo_url" validate:"omitempty,url"`
	ProjectTypes    []string            `json:"project_types" validate:"max=20"`
	RequestedBudget decimal.NullDecimal `json:"requested_budget"`
}

func (req *projectRequest) apply(p *models.Project) {
	p.Name = strings.TrimSpace(req.Name)
	p.Brief = req.Brief
	p.Notes = req.Notes
	p.Description = req.Description
	p.Category = req.Category
	badges := make([]string, 5)
	copy(badges, req.Badges)
	p.Badge1, p.Badge2, p.Badge3, p.Badge4, p.Badge5 = badges[0], badges[1], badges[2], badges[3], badges[4]
	p.PreviewURL = req.PreviewURL
	p.LiveURL = req.LiveURL
	p.RepoURL = req.RepoURL
	p.ProjectTypes = req.ProjectTypes
	p.RequestedBudget = req.RequestedBudget
}

type projectView struct {
	*models.Project
	Badges []string `json:"badges"`
}

func viewProject(p *models.Project) projectView {
	return projectView{Project: p, Badges: p.Badges()}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req projectRequest
	if !bind(w, r, &req) {
		return
	}
	slug, err := models.Slugify(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	slug, err = freeProjectSlug(h.DB.WithContext(r.Context()), slug)
	if errors.Is(err, errSlugTaken) {
		writeError(w, http.StatusConflict, "a project with this name already exists")
		return
	}
	if err != nil {
		h.storeError(w, err, "project")
		return
	}

	project := models.Project{
		Slug:    slug,
		OwnerID: user.ID,
		Email:   user.Email,
		Status:  models.ProjectPendingSetup,
	}
	req.apply(&project)

	if err := h.DB.WithContext(r.Context()).Create(&project).Error; err != nil {
		if database.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "a project with this name already exists")
			return
		}
		h.storeError(w, err, "project")
		return
	}

	h.publish(events.New(events.ProjectCreated, project.ID, user.ID, map[string]any{"slug": project.Slug}))
	writeJSON(w, http.StatusCreated, viewProject(&project))
}

var errSlugTaken = errors.New("slug taken")

// freeProjectSlug returns base unless a deleted project still holds it, in
// which case the first free base-N is used. A live project holding base is
// errSlugTaken.
func freeProjectSlug(db *gorm.DB, base string) (string, error) {
	slug := base
	for n := 2; ; n++ {
		var holder models.Project
		err := db.Unscoped().Select("id", "deleted_at").Where("slug = ?", slug).First(&holder).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return slug, nil
		case err != nil:
			return "", err
		case slug == base && !holder.DeletedAt.Valid:
			return "", errSlugTaken
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

// List returns the projects the caller owns plus those they are an approved
// member of.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	projects := []models.Project{}
	err := h.DB.WithContext(r.Context()).
		Where("owner_id = ?", user.ID).
		Or("id IN (?)", h.DB.Model(&models.ProjectMembership{}).
			Select("project_id").
			Where("user_id = ? AND status = ?", user.ID, models.MembershipApproved)).
		Order("updated_at DESC").
		Find(&projects).Error
	if err != nil {
		h.storeError(w, err, "project")
		return
	}

	out := make([]projectView, 0, len(projects))
	for i := range projects {
		out = append(out, viewProject(&projects[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProjectHandler) findBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	if err := h.DB.WithContext(ctx).Where("slug = ?", slug).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (h *ProjectHandler) canView(ctx context.Context, user *models.User, p *models.Project) (bool, error) {
	if user.CanManageProject(p) {
		return true, nil
	}
	var n int64
	err := h.DB.WithContext(ctx).Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ? AND status = ?", p.ID, user.ID, models.MembershipApproved).
		Count(&n).Error
	return n > 0, err
}

// project loads the {slug} project and checks the caller may view it, or
// manage it when manage is set. It answers the request itself on failure.
func (h *ProjectHandler) project(w http.ResponseWriter, r *http.Request, manage bool) (*models.Project, bool) {
	user := currentUser(r)
	project, err := h.findBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.storeError(w, err, "project")
		return nil, false
	}

	if manage {
		if !user.CanManageProject(project) {
			writeError(w, http.StatusForbidden, "only the project owner can do that")
			return nil, false
		}
		return project, true
	}

	ok, err := h.canView(r.Context(), user, project)
	if err != nil {
		h.storeError(w, err, "project")
		return nil, false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "you do not have access to this project")
		return nil, false
	}
	return project, true
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, ok := h.project(w, r, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewProject(project))
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, ok := h.project(w, r, true)
	if !ok {
		return
	}

	var req projectRequest
	if !bind(w, r, &req) {
		return
	}
	req.apply(project)

	if err := h.DB.WithContext(r.Context()).Save(project).Error; err != nil {
		h.storeError(w, err, "project")
		return
	}
	writeJSON(w, http.StatusOK, viewProject(project))
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, ok := h.project(w, r, true)
	if !ok {
		return
	}
	if err := h.DB.WithContext(r.Context()).Delete(project).Error; err != nil {
		h.storeError(w, err, "project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *ProjectHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	project, ok := h.project(w, r, true)
	if !ok {
		return
	}

	var req statusRequest
	if !bind(w, r, &req) {
		return
	}
	next, err := models.ParseProjectStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "status must be one of: pending_setup, in_progress, live, on_hold, completed, archived")
		return
	}

	previous := project.Status
	if err := project.SetStatus(next); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err := h.DB.WithContext(r.Context()).Model(project).Update("status", project.Status).Error; err != nil {
		h.storeError(w, err, "project")
		return
	}

	if previous != next {
		h.publish(events.New(events.ProjectStatusChanged, project.ID, currentUser(r).ID, map[string]any{
			"from": previous,
			"to":   next,
		}))
	}
	writeJSON(w, http.StatusOK, viewProject(project))
}

func (h *ProjectHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	project, ok := h.project(w, r, true)
	if !ok {
		return
	}

	url, ok := h.upload(w, r, "logos/"+project.Slug)
	if !ok {
		return
	}
	if err := h.DB.WithContext(r.Context()).Model(project).Update("logo_url", url).Error; err != nil {
		h.storeError(w, err, "project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"logo_url": url})
}

func (h *ProjectHandler) Members(w http.ResponseWriter, r *http.Request) {
	project, ok := h.project(w, r, false)
	if !ok {
		return
	}

	members := []models.ProjectMembership{}
	err := h.DB.WithContext(r.Context()).
		Preload("User.Profile").
		Where("project_id = ?", project.ID).
		Order("created_at").
		Find(&members).Error
	if err != nil {
		h.storeError(w, err, "membership")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type inviteMemberRequest struct {
	Username string `json:"username" validate:"required"`
	Role     string `json:"role"`
}

// InviteMember invites a user by username. A user may hold only one live
// membership per project.
func (h *ProjectHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	project, ok := h.project(w, r, true)
	if !ok {
		return
	}

	var req inviteMemberRequest
	if !bind(w, r, &req) {
		return
	}
	role, err := models.ParseProjectRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "role must be one of: project_manager, collaborator, client_contact, viewer, member")
		return
	}

	var invitee models.User
	err = h.DB.WithContext(r.Context()).
		Joins("Profile").
		Where(`"Profile"."username" = ?`, strings.ToLower(strings.TrimSpace(req.Username))).
		First(&invitee).Error
	if err != nil {
		h.storeError(w, err, "user")
		return
	}
	if invitee.ID == project.OwnerID {
		writeError(w, http.StatusBadRequest, "the project owner cannot be invited")
		return
	}

	membership := models.ProjectMembership{
		ProjectID: project.ID,
		UserID:    invitee.ID,
		Role:      role,
		Status:    models.MembershipInvited,
		InvitedBy: &user.ID,
	}
	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.ProjectMembership{}).
			Where("project_id = ? AND user_id = ? AND status IN ?", project.ID, invitee.ID, models.ActiveMembershipStatuses()).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return errAlreadyMember
		}
		return tx.Create(&membership).Error
	})
	if errors.Is(err, errAlreadyMember) || database.IsUniqueViolation(err) {
		writeError(w, http.StatusConflict, "user already has an active membership on this project")
		return
	}
	if err != nil {
		h.storeError(w, err, "membership")
		return
	}

	h.send(mailer.ProjectInvitationEmail(invitee.Email, project.Name, user.Profile.DisplayLabel(), h.Config.SiteURL))
	h.publish(events.New(events.MembershipInvited, project.ID, user.ID, map[string]any{
		"membership_id": membership.ID,
		"user_id":       invitee.ID,
		"role":          role,
	}))
	membership.User = &invitee
	writeJSON(w, http.StatusCreated, membership)
}

var errAlreadyMember = errors.New("already a member")

func (h *ProjectHandler) membership(w http.ResponseWriter, r *http.Request, project *models.Project) (*models.ProjectMembership, bool) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	var m models.ProjectMembership
	if err := h.DB.WithContext(r.Context()).Where("id = ? AND project_id = ?", id, project.ID).First(&m).Error; err != nil {
		h.storeError(w, err, "membership")
		return nil, false
	}
	return &m, true
}

func (h *ProjectHandler) ApproveMember(w http.ResponseWriter, r *http.Request) {
	h.decideMember(w, r, models.MembershipApproved, events.MembershipApproved)
}

func (h *ProjectHandler) RejectMember(w http.ResponseWriter, r *http.Request) {
	h.decideMember(w, r, models.MembershipRejected, events.MembershipRejected)
}

func (h *ProjectHandler) decideMember(w http.ResponseWriter, r *http.Request, next models.MembershipStatus, event events.Type) {
	project, ok := h.project(w, r, true)
	if !ok {
		return
	}
	m, ok := h.membership(w, r, project)
	if !ok {
		return
	}

	if err := m.Transition(next); err != nil {
		writeError(w, http.StatusConflict, "membership is "+string(m.Status)+", expected pending_owner_approval")
		return
	}
	if err := h.DB.WithContext(r.Context()).Model(m).Update("status", m.Status).Error; err != nil {
		h.storeError(w, err, "membership")
		return
	}

	h.publish(events.New(event, project.ID, currentUser(r).ID, map[string]any{"membership_id": m.ID, "user_id": m.UserID}))
	writeJSON(w, http.StatusOK, m)
}

// RemoveMember takes an approved member off the project, or withdraws an
// invitation that has not been decided yet.
func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	project, ok := h.project(w, r, true)
	if !ok {
		return
	}
	m, ok := h.membership(w, r, project)
	if !ok {
		return
	}

	next := models.MembershipRevoked
	if m.Status == models.MembershipApproved {
		next = models.MembershipRemoved
	}
	if err := m.Transition(next); err != nil {
		writeError(w, http.StatusConflict, "membership is already "+string(m.Status))
		return
	}
	if err := h.DB.WithContext(r.Context()).Model(m).Update("status", m.Status).Error; err != nil {
		h.storeError(w, err, "membership")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type unlockRequest struct {
	Password string `json:"password" validate:"required"`
}

// Unlock checks a project preview password. It is public and answers the
// same way for unknown projects and wrong passwords.
func (h *ProjectHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if !bind(w, r, &req) {
		return
	}

	var login models.ProjectLogin
	err := h.DB.WithContext(r.Context()).Where("project_slug = ?", chi.URLParam(r, "slug")).First(&login).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.storeError(w, err, "project login")
		return
	}
	if err != nil || !login.Check(req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unlocked", "project_slug": login.ProjectSlug})
}
