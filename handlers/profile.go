package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"b0ase/database"
	"b0ase/models"
	"b0ase/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProfileHandler struct {
	*Deps
}

func NewProfileHandler(d *Deps) *ProfileHandler {
	return &ProfileHandler{Deps: d}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user.Profile == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, user.Profile)
}

type updateProfileRequest struct {
	Username    *string                `json:"username"`
	DisplayName *string                `json:"display_name" validate:"omitempty,max=100"`
	FullName    *string                `json:"full_name" validate:"omitempty,max=200"`
	Bio         *string                `json:"bio" validate:"omitempty,max=2000"`
	WebsiteURL  *string                `json:"website_url" validate:"omitempty,url"`
	SocialLinks map[string]interface{} `json:"social_links"`
	TokenHandle *string                `json:"token_handle" validate:"omitempty,max=60"`
	TokenTicker *string                `json:"token_ticker" validate:"omitempty,max=6"`
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req updateProfileRequest
	if !bind(w, r, &req) {
		return
	}

	profile := user.Profile
	if profile == nil {
		profile = &models.Profile{UserID: user.ID}
	}
	if req.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*req.Username))
		if !models.ValidUsername(username) {
			writeError(w, http.StatusBadRequest, errInvalidUsername.Error())
			return
		}
		profile.Username = username
	}
	if profile.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	setString(&profile.DisplayName, req.DisplayName)
	setString(&profile.FullName, req.FullName)
	setString(&profile.Bio, req.Bio)
	setString(&profile.WebsiteURL, req.WebsiteURL)
	setString(&profile.TokenHandle, req.TokenHandle)
	if req.TokenTicker != nil {
		profile.TokenTicker = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(*req.TokenTicker), "$"))
	}
	if req.SocialLinks != nil {
		profile.SocialLinks = datatypes.JSONMap(req.SocialLinks)
	}

	if err := h.DB.WithContext(r.Context()).Save(profile).Error; err != nil {
		if database.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		h.storeError(w, err, "profile")
		return
	}
	user.Profile = profile
	writeJSON(w, http.StatusOK, profile)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// UploadAvatar stores a multipart "file" image and points the profile at it.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user.Profile == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	url, ok := h.upload(w, r, "avatars/"+strconv.FormatUint(uint64(user.ID), 10))
	if !ok {
		return
	}
	if err := h.DB.WithContext(r.Context()).Model(user.Profile).Update("avatar_url", url).Error; err != nil {
		h.storeError(w, err, "profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

// upload reads the "file" form field and stores it under prefix. It answers
// the request itself on failure.
func (d *Deps) upload(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	if d.Uploads == nil {
		writeError(w, http.StatusServiceUnavailable, "uploads are not configured")
		return "", false
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+64<<10)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return "", false
	}
	defer file.Close()

	url, err := storage.UploadImage(r.Context(), d.Uploads, prefix, file)
	switch {
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	case err != nil:
		d.Log.Error("upload failed", zap.String("prefix", prefix), zap.Error(err))
		writeError(w, http.StatusBadGateway, "upload failed")
		return "", false
	}
	return url, true
}

type publicProfile struct {
	*models.Profile
	Skills []models.Skill `json:"skills"`
}

func (h *ProfileHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	var profile models.Profile
	err := h.DB.WithContext(r.Context()).Where("username = ?", strings.ToLower(chi.URLParam(r, "username"))).First(&profile).Error
	if err != nil {
		h.storeError(w, err, "profile")
		return
	}

	skills, err := h.userSkills(h.DB.WithContext(r.Context()), profile.UserID)
	if err != nil {
		h.storeError(w, err, "skill")
		return
	}
	writeJSON(w, http.StatusOK, publicProfile{Profile: &profile, Skills: skills})
}

func (h *ProfileHandler) userSkills(db *gorm.DB, userID uint) ([]models.Skill, error) {
	skills := []models.Skill{}
	err := db.Joins("JOIN user_skills ON user_skills.skill_id = skills.id").
		Where("user_skills.user_id = ?", userID).
		Order("skills.name").
		Find(&skills).Error
	return skills, err
}

func (h *ProfileHandler) ListSkills(w http.ResponseWriter, r *http.Request) {
	skills := []models.Skill{}
	if err := h.DB.WithContext(r.Context()).Order("category, name").Find(&skills).Error; err != nil {
		h.storeError(w, err, "skill")
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

func (h *ProfileHandler) MySkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.userSkills(h.DB.WithContext(r.Context()), currentUser(r).ID)
	if err != nil {
		h.storeError(w, err, "skill")
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

type setSkillsRequest struct {
	SkillIDs []uint `json:"skill_ids" validate:"max=50"`
}

// SetSkills replaces the caller's skill list.
func (h *ProfileHandler) SetSkills(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req setSkillsRequest
	if !bind(w, r, &req) {
		return
	}

	ids := uniqueIDs(req.SkillIDs)
	var skills []models.Skill
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if len(ids) > 0 {
			var known int64
			if err := tx.Model(&models.Skill{}).Where("id IN ?", ids).Count(&known).Error; err != nil {
				return err
			}
			if int(known) != len(ids) {
				return gorm.ErrRecordNotFound
			}
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserSkill{}).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			rows := make([]models.UserSkill, 0, len(ids))
			for _, id := range ids {
				rows = append(rows, models.UserSkill{UserID: user.ID, SkillID: id})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		var err error
		skills, err = h.userSkills(tx, user.ID)
		return err
	})
	if err != nil {
		h.storeError(w, err, "skill")
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
