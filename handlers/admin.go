package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"b0ase/events"
	"b0ase/mailer"
	"b0ase/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AdminHandler struct {
	*Deps
}

func NewAdminHandler(d *Deps) *AdminHandler {
	return &AdminHandler{Deps: d}
}

type projectLoginRequest struct {
	ProjectSlug string `json:"project_slug" validate:"required,max=120"`
	Password    string `json:"password" validate:"required,max=72"`
}

func (h *AdminHandler) ListProjectLogins(w http.ResponseWriter, r *http.Request) {
	logins := []models.ProjectLogin{}
	if err := h.DB.WithContext(r.Context()).Order("project_slug").Find(&logins).Error; err != nil {
		h.storeError(w, err, "project login")
		return
	}
	writeJSON(w, http.StatusOK, logins)
}

func (h *AdminHandler) CreateProjectLogin(w http.ResponseWriter, r *http.Request) {
	var req projectLoginRequest
	if !bind(w, r, &req) {
		return
	}
	login := models.ProjectLogin{ProjectSlug: strings.TrimSpace(req.ProjectSlug)}
	if err := login.SetPassword(req.Password); err != nil {
		h.storeError(w, err, "project login")
		return
	}
	if err := h.DB.WithContext(r.Context()).Create(&login).Error; err != nil {
		h.storeError(w, err, "project login")
		return
	}
	writeJSON(w, http.StatusCreated, login)
}

// UpdateProjectLogin replaces the password for an existing project slug.
func (h *AdminHandler) UpdateProjectLogin(w http.ResponseWriter, r *http.Request) {
	var req projectLoginRequest
	if !bind(w, r, &req) {
		return
	}

	var login models.ProjectLogin
	if err := h.DB.WithContext(r.Context()).Where("project_slug = ?", strings.TrimSpace(req.ProjectSlug)).First(&login).Error; err != nil {
		h.storeError(w, err, "project login")
		return
	}
	if err := login.SetPassword(req.Password); err != nil {
		h.storeError(w, err, "project login")
		return
	}
	if err := h.DB.WithContext(r.Context()).Model(&login).Update("password_hash", login.PasswordHash).Error; err != nil {
		h.storeError(w, err, "project login")
		return
	}
	writeJSON(w, http.StatusOK, login)
}

type deleteProjectLoginRequest struct {
	ProjectSlug string `json:"project_slug" validate:"required"`
}

func (h *AdminHandler) DeleteProjectLogin(w http.ResponseWriter, r *http.Request) {
	var req deleteProjectLoginRequest
	if !bind(w, r, &req) {
		return
	}
	res := h.DB.WithContext(r.Context()).Where("project_slug = ?", strings.TrimSpace(req.ProjectSlug)).Delete(&models.ProjectLogin{})
	if res.Error != nil {
		h.storeError(w, res.Error, "project login")
		return
	}
	if res.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "project login not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListClientRequests(w http.ResponseWriter, r *http.Request) {
	db := h.DB.WithContext(r.Context())
	if s := r.URL.Query().Get("status"); s != "" {
		switch models.RequestStatus(s) {
		case models.RequestPending, models.RequestApproved, models.RequestRejected:
		default:
			writeError(w, http.StatusBadRequest, "status must be one of: pending, approved, rejected")
			return
		}
		db = db.Where("status = ?", s)
	}

	requests := []models.ClientRequest{}
	if err := db.Order("created_at DESC").Find(&requests).Error; err != nil {
		h.storeError(w, err, "client request")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *AdminHandler) clientRequest(w http.ResponseWriter, r *http.Request) (*models.ClientRequest, bool) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	var req models.ClientRequest
	if err := h.DB.WithContext(r.Context()).First(&req, id).Error; err != nil {
		h.storeError(w, err, "client request")
		return nil, false
	}
	return &req, true
}

type approveRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// ApproveClientRequest marks the request approved and opens a project for
// the client's email unless one already exists. The approval email is best
// effort.
func (h *AdminHandler) ApproveClientRequest(w http.ResponseWriter, r *http.Request) {
	admin := currentUser(r)
	cr, ok := h.clientRequest(w, r)
	if !ok {
		return
	}

	var body approveRequest
	if !bindOptional(w, r, &body) {
		return
	}
	if cr.Status != models.RequestPending {
		writeError(w, http.StatusConflict, "request has already been "+string(cr.Status))
		return
	}

	var project models.Project
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", cr.Email).First(&project).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err != nil {
			if err := h.openProject(tx, cr, admin, &project); err != nil {
				return err
			}
		}
		cr.Approve(admin.Email, body.Notes, time.Now().UTC())
		return tx.Save(cr).Error
	})
	if err != nil {
		h.storeError(w, err, "client request")
		return
	}

	mailed := h.send(mailer.ApprovalEmail(cr.Email, cr.Name, h.Config.SiteURL)) == nil
	h.publish(events.New(events.ClientRequestApproved, cr.ID, admin.ID, map[string]any{
		"email":        cr.Email,
		"project_slug": project.Slug,
	}))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request":    cr,
		"project":    viewProject(&project),
		"email_sent": mailed,
	})
}

// openProject creates the client's project from their request. The client
// owns it when they already have an account, the reviewing admin otherwise.
func (h *AdminHandler) openProject(tx *gorm.DB, cr *models.ClientRequest, admin *models.User, project *models.Project) error {
	ownerID := admin.ID
	var client models.User
	err := tx.Where("email = ?", cr.Email).First(&client).Error
	switch {
	case err == nil:
		ownerID = client.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	slug, err := models.Slugify(cr.Name)
	if err != nil {
		slug = fmt.Sprintf("client-%d", cr.ID)
	}
	var taken int64
	if err := tx.Unscoped().Model(&models.Project{}).Where("slug = ?", slug).Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		slug = fmt.Sprintf("%s-%d", slug, cr.ID)
	}

	*project = models.Project{
		Slug:             slug,
		Name:             cr.Name,
		OwnerID:          ownerID,
		Status:           models.ProjectPendingSetup,
		Email:            cr.Email,
		Brief:            cr.ProjectBrief,
		LiveURL:          cr.Website,
		LogoURL:          cr.LogoURL,
		ProjectTypes:     cr.ProjectTypes,
		RequestedBudget:  cr.RequestedBudget,
		HowHeard:         cr.HowHeard,
		InspirationLinks: cr.InspirationLinks,
	}
	return tx.Create(project).Error
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

func (h *AdminHandler) RejectClientRequest(w http.ResponseWriter, r *http.Request) {
	cr, ok := h.clientRequest(w, r)
	if !ok {
		return
	}
	var body rejectRequest
	if !bind(w, r, &body) {
		return
	}
	if cr.Status != models.RequestPending {
		writeError(w, http.StatusConflict, "request has already been "+string(cr.Status))
		return
	}

	cr.Reject(currentUser(r).Email, strings.TrimSpace(body.Reason), time.Now().UTC())
	if err := h.DB.WithContext(r.Context()).Save(cr).Error; err != nil {
		h.storeError(w, err, "client request")
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

func (h *AdminHandler) ResendApprovalEmail(w http.ResponseWriter, r *http.Request) {
	cr, ok := h.clientRequest(w, r)
	if !ok {
		return
	}
	if cr.Status != models.RequestApproved {
		writeError(w, http.StatusConflict, "only approved requests can be re-sent the approval email")
		return
	}
	if err := h.send(mailer.ApprovalEmail(cr.Email, cr.Name, h.Config.SiteURL)); err != nil {
		writeError(w, http.StatusBadGateway, "failed to send approval email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

type inviteClientRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	ProjectSlug string `json:"project_slug"`
}

// InviteClient issues a set-password code for a client who has no account
// yet, optionally tied to one of the studio's projects.
func (h *AdminHandler) InviteClient(w http.ResponseWriter, r *http.Request) {
	admin := currentUser(r)

	var req inviteClientRequest
	if !bind(w, r, &req) {
		return
	}
	email := normalizeEmail(req.Email)

	var existing int64
	if err := h.DB.WithContext(r.Context()).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		h.storeError(w, err, "user")
		return
	}
	if existing > 0 {
		writeError(w, http.StatusConflict, "a user with this email is already registered")
		return
	}

	invite := models.Invite{
		Email:     email,
		Role:      models.RoleMember,
		CreatedBy: admin.ID,
		ExpiresAt: time.Now().UTC().Add(h.Config.InviteExpiration),
	}
	if slug := strings.TrimSpace(req.ProjectSlug); slug != "" {
		var project models.Project
		if err := h.DB.WithContext(r.Context()).Where("slug = ?", slug).First(&project).Error; err != nil {
			h.storeError(w, err, "project")
			return
		}
		invite.ProjectID = &project.ID
	}

	code, err := models.GenerateInviteCode()
	if err != nil {
		h.Log.Error("generate invite code", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create invitation")
		return
	}
	invite.Code = code
	if err := h.DB.WithContext(r.Context()).Create(&invite).Error; err != nil {
		h.storeError(w, err, "invitation")
		return
	}

	msg := mailer.ClientInviteEmail(email, h.Config.SiteURL, code)
	mailed := h.send(msg) == nil
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"code":       code,
		"expires_at": invite.ExpiresAt,
		"link":       strings.TrimRight(h.Config.SiteURL, "/") + "/set-password?code=" + code,
		"email_sent": mailed,
	})
}

func (h *AdminHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	var projects []models.Project
	if err := h.DB.WithContext(r.Context()).Order("created_at DESC").Find(&projects).Error; err != nil {
		h.storeError(w, err, "project")
		return
	}
	out := make([]projectView, 0, len(projects))
	for i := range projects {
		out = append(out, viewProject(&projects[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type featuredRequest struct {
	IsFeatured *bool `json:"is_featured" validate:"required"`
}

func (h *AdminHandler) SetFeatured(w http.ResponseWriter, r *http.Request) {
	var req featuredRequest
	if !bind(w, r, &req) {
		return
	}

	var project models.Project
	if err := h.DB.WithContext(r.Context()).Where("slug = ?", chi.URLParam(r, "slug")).First(&project).Error; err != nil {
		h.storeError(w, err, "project")
		return
	}
	if err := h.DB.WithContext(r.Context()).Model(&project).Update("is_featured", *req.IsFeatured).Error; err != nil {
		h.storeError(w, err, "project")
		return
	}
	writeJSON(w, http.StatusOK, viewProject(&project))
}
