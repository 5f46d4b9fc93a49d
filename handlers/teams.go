package handlers

import (
	"errors"
	"net/http"
	"strings"

	"b0ase/database"
	"b0ase/events"
	"b0ase/models"

	"github.com/go-chi/chi/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

type TeamHandler struct {
	*Deps
}

func NewTeamHandler(d *Deps) *TeamHandler {
	return &TeamHandler{Deps: d}
}

type teamRequest struct {
	Name        string                 `json:"name" validate:"required,max=100"`
	Description string                 `json:"description" validate:"max=1000"`
	IconName    string                 `json:"icon_name" validate:"max=60"`
	ColorScheme map[string]interface{} `json:"color_scheme"`
}

func (req *teamRequest) apply(t *models.Team) {
	t.Name = strings.TrimSpace(req.Name)
	t.Description = req.Description
	t.IconName = req.IconName
	if req.ColorScheme != nil {
		t.ColorScheme = datatypes.JSONMap(req.ColorScheme)
	}
}

// Create makes the caller the team's owner. The studio admin account joins
// every new team as an admin.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req teamRequest
	if !bind(w, r, &req) {
		return
	}
	slug, err := models.Slugify(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	team := models.Team{Slug: slug, CreatedBy: user.ID}
	req.apply(&team)

	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.TeamMembership{TeamID: team.ID, UserID: user.ID, Role: models.TeamOwner}).Error; err != nil {
			return err
		}

		var admin models.User
		err := tx.Where("email = ?", normalizeEmail(h.Config.AdminEmail)).First(&admin).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil
		case err != nil:
			return err
		case admin.ID == user.ID:
			return nil
		}
		return tx.Create(&models.TeamMembership{TeamID: team.ID, UserID: admin.ID, Role: models.TeamAdmin}).Error
	})
	if database.IsUniqueViolation(err) {
		writeError(w, http.StatusConflict, "a team with this name already exists")
		return
	}
	if err != nil {
		h.storeError(w, err, "team")
		return
	}

	h.publish(events.New(events.TeamCreated, team.ID, user.ID, map[string]any{"slug": team.Slug}))
	writeJSON(w, http.StatusCreated, team)
}

type myTeam struct {
	models.Team
	Role models.TeamRole `json:"role"`
}

// Mine lists the teams the caller belongs to with their role in each.
func (h *TeamHandler) Mine(w http.ResponseWriter, r *http.Request) {
	teams := []myTeam{}
	err := h.DB.WithContext(r.Context()).
		Model(&models.Team{}).
		Select("teams.*, team_memberships.role AS role").
		Joins("JOIN team_memberships ON team_memberships.team_id = teams.id").
		Where("team_memberships.user_id = ?", currentUser(r).ID).
		Order("teams.name").
		Scan(&teams).Error
	if err != nil {
		h.storeError(w, err, "team")
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) Browse(w http.ResponseWriter, r *http.Request) {
	teams := []models.Team{}
	db := h.DB.WithContext(r.Context())
	if term := strings.TrimSpace(r.URL.Query().Get("q")); term != "" {
		db = db.Where("name ILIKE ?", "%"+escapeLike(term)+"%")
	}
	if err := db.Order("created_at DESC").Limit(100).Find(&teams).Error; err != nil {
		h.storeError(w, err, "team")
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) team(w http.ResponseWriter, r *http.Request) (*models.Team, bool) {
	var team models.Team
	if err := h.DB.WithContext(r.Context()).Where("slug = ?", chi.URLParam(r, "slug")).First(&team).Error; err != nil {
		h.storeError(w, err, "team")
		return nil, false
	}
	return &team, true
}

// roleIn returns the user's role in the team, or "" when they are not a
// member.
func roleIn(db *gorm.DB, teamID, userID uint) (models.TeamRole, error) {
	var m models.TeamMembership
	err := db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return m.Role, err
}

func countOwners(db *gorm.DB, teamID uint) (int, error) {
	var n int64
	err := db.Model(&models.TeamMembership{}).
		Where("team_id = ? AND role = ?", teamID, models.TeamOwner).
		Count(&n).Error
	return int(n), err
}

type teamDetail struct {
	*models.Team
	Role        models.TeamRole `json:"role,omitempty"`
	MemberCount int64           `json:"member_count"`
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	team, ok := h.team(w, r)
	if !ok {
		return
	}
	role, err := roleIn(h.DB.WithContext(r.Context()), team.ID, currentUser(r).ID)
	if err != nil {
		h.storeError(w, err, "team")
		return
	}
	detail := teamDetail{Team: team, Role: role}
	if err := h.DB.WithContext(r.Context()).Model(&models.TeamMembership{}).Where("team_id = ?", team.ID).Count(&detail.MemberCount).Error; err != nil {
		h.storeError(w, err, "team")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	team, ok := h.team(w, r)
	if !ok {
		return
	}
	role, err := roleIn(h.DB.WithContext(r.Context()), team.ID, currentUser(r).ID)
	if err != nil {
		h.storeError(w, err, "team")
		return
	}
	if !role.CanManage() {
		writeError(w, http.StatusForbidden, "only team owners and admins can edit the team")
		return
	}

	var req teamRequest
	if !bind(w, r, &req) {
		return
	}
	req.apply(team)
	if err := h.DB.WithContext(r.Context()).Save(team).Error; err != nil {
		h.storeError(w, err, "team")
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	team, ok := h.team(w, r)
	if !ok {
		return
	}
	role, err := roleIn(h.DB.WithContext(r.Context()), team.ID, currentUser(r).ID)
	if err != nil {
		h.storeError(w, err, "team")
		return
	}
	if role != models.TeamOwner {
		writeError(w, http.StatusForbidden, "only team owners can delete the team")
		return
	}

	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", team.ID).Delete(&models.TeamMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", team.ID).Delete(&models.TeamMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(team).Error
	})
	if err != nil {
		h.storeError(w, err, "team")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	team, ok := h.team(w, r)
	if !ok {
		return
	}

	membership := models.TeamMembership{TeamID: team.ID, UserID: user.ID, Role: models.TeamMember}
	if err := h.DB.WithContext(r.Context()).Create(&membership).Error; err != nil {
		if database.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "already a member of this team")
			return
		}
		h.storeError(w, err, "membership")
		return
	}

	h.publish(events.New(events.TeamMemberJoined, team.ID, user.ID, nil))
	writeJSON(w, http.StatusCreated, membership)
}

func (h *TeamHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	team, ok := h.team(w, r)
	if !ok {
		return
	}
	h.removeMember(w, r, team, user.ID)
}

func (h *TeamHandler) Members(w http.ResponseWriter, r *http.Request) {
	team, ok := h.team(w, r)
	if !ok {
		return
	}
	members := []models.TeamMembership{}
	err := h.DB.WithContext(r.Context()).
		Preload("User.Profile").
		Where("team_id = ?", team.ID).
		Order("joined_at").
		Find(&members).Error
	if err != nil {
		h.storeError(w, err, "membership")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type memberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin member"`
}

func (h *TeamHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	team, ok := h.team(w, r)
	if !ok {
		return
	}
	targetID, err := urlID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req memberRoleRequest
	if !bind(w, r, &req) {
		return
	}
	next, err := models.ParseTeamRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var target models.TeamMembership
	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		actor, err := roleIn(tx, team.ID, currentUser(r).ID)
		if err != nil {
			return err
		}
		if err := tx.Where("team_id = ? AND user_id = ?", team.ID, targetID).First(&target).Error; err != nil {
			return err
		}
		owners, err := countOwners(tx, team.ID)
		if err != nil {
			return err
		}
		if err := models.CanChangeRole(actor, target.Role, next, owners); err != nil {
			return err
		}
		target.Role = next
		return tx.Model(&target).Update("role", next).Error
	})
	if h.teamRuleError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, target)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	team, ok := h.team(w, r)
	if !ok {
		return
	}
	targetID, err := urlID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.removeMember(w, r, team, targetID)
}

func (h *TeamHandler) removeMember(w http.ResponseWriter, r *http.Request, team *models.Team, targetID uint) {
	user := currentUser(r)
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var target models.TeamMembership
		if err := tx.Where("team_id = ? AND user_id = ?", team.ID, targetID).First(&target).Error; err != nil {
			return err
		}
		actor, err := roleIn(tx, team.ID, user.ID)
		if err != nil {
			return err
		}
		owners, err := countOwners(tx, team.ID)
		if err != nil {
			return err
		}
		if err := models.CanRemove(actor, target.Role, targetID == user.ID, owners); err != nil {
			return err
		}
		return tx.Delete(&target).Error
	})
	if h.teamRuleError(w, err) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// teamRuleError answers a failed membership change and reports whether it did.
func (h *TeamHandler) teamRuleError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, models.ErrLastOwner):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidRole):
		writeError(w, http.StatusForbidden, "you do not have permission to change this member")
	default:
		h.storeError(w, err, "membership")
	}
	return true
}

type messageView struct {
	models.TeamMessage
	Author string `json:"author"`
}

// Messages returns up to limit messages older than ?before, oldest first.
func (h *TeamHandler) Messages(w http.ResponseWriter, r *http.Request) {
	team, ok := h.team(w, r)
	if !ok {
		return
	}
	if !h.requireMember(w, r, team) {
		return
	}

	limit := queryInt(r, "limit", defaultMessageLimit)
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	db := h.DB.WithContext(r.Context()).Preload("User.Profile").Where("team_id = ?", team.ID)
	if before := queryInt(r, "before", 0); before > 0 {
		db = db.Where("id < ?", before)
	}

	var messages []models.TeamMessage
	if err := db.Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		h.storeError(w, err, "message")
		return
	}

	out := make([]messageView, len(messages))
	for i, m := range messages {
		v := messageView{TeamMessage: m}
		if m.User != nil {
			v.Author = m.User.Profile.DisplayLabel()
		}
		out[len(messages)-1-i] = v
	}
	writeJSON(w, http.StatusOK, out)
}

type postMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

func (h *TeamHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	team, ok := h.team(w, r)
	if !ok {
		return
	}
	if !h.requireMember(w, r, team) {
		return
	}

	var req postMessageRequest
	if !bind(w, r, &req) {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	msg := models.TeamMessage{TeamID: team.ID, UserID: user.ID, Content: content}
	if err := h.DB.WithContext(r.Context()).Create(&msg).Error; err != nil {
		h.storeError(w, err, "message")
		return
	}
	writeJSON(w, http.StatusCreated, messageView{TeamMessage: msg, Author: user.Profile.DisplayLabel()})
}

func (h *TeamHandler) requireMember(w http.ResponseWriter, r *http.Request, team *models.Team) bool {
	role, err := roleIn(h.DB.WithContext(r.Context()), team.ID, currentUser(r).ID)
	if err != nil {
		h.storeError(w, err, "team")
		return false
	}
	if role == "" {
		writeError(w, http.StatusForbidden, "only team members can read and post messages")
		return false
	}
	return true
}
