package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"b0ase/database"
	"b0ase/middleware"
	"b0ase/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errInvalidUsername = errors.New("username must be 3-30 lowercase letters, digits or underscores")

type AuthHandler struct {
	*Deps
}

func NewAuthHandler(d *Deps) *AuthHandler {
	return &AuthHandler{Deps: d}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Username string `json:"username" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	User               *models.User `json:"user"`
	Token              string       `json:"token"`
	MustChangePassword bool         `json:"must_change_password"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !bind(w, r, &req) {
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if !models.ValidUsername(req.Username) {
		writeError(w, http.StatusBadRequest, errInvalidUsername.Error())
		return
	}

	user := models.User{Email: normalizeEmail(req.Email), Role: models.RoleMember}
	if err := user.SetPassword(req.Password); err != nil {
		h.storeError(w, err, "user")
		return
	}

	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		user.Profile = &models.Profile{UserID: user.ID, Username: req.Username}
		return tx.Create(user.Profile).Error
	})
	if database.IsUniqueViolation(err) {
		writeError(w, http.StatusConflict, "email or username already registered")
		return
	}
	if err != nil {
		h.storeError(w, err, "user")
		return
	}

	h.startSession(w, http.StatusCreated, &user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !bind(w, r, &req) {
		return
	}

	var user models.User
	err := h.DB.WithContext(r.Context()).Preload("Profile").Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.storeError(w, err, "user")
		return
	}
	if err != nil || !user.CheckPassword(req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.startSession(w, http.StatusOK, &user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, user *models.User) {
	token, err := h.Auth.GenerateToken(user)
	if err != nil {
		h.Log.Error("generate token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	h.Auth.SetCookie(w, token)
	writeJSON(w, status, sessionResponse{User: user, Token: token, MustChangePassword: user.MustChangePassword})
}

// Logout revokes the current token and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Revoke(r.Context(), middleware.GetClaimsFromContext(r.Context())); err != nil {
		h.Log.Error("revoke token", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "could not end session, try again")
		return
	}
	middleware.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req changePasswordRequest
	if !bind(w, r, &req) {
		return
	}
	if !user.CheckPassword(req.CurrentPassword) {
		writeError(w, http.StatusBadRequest, "current password is incorrect")
		return
	}
	if req.NewPassword == req.CurrentPassword {
		writeError(w, http.StatusBadRequest, "new password must differ from the current one")
		return
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		h.storeError(w, err, "user")
		return
	}
	err := h.DB.WithContext(r.Context()).Model(user).Updates(map[string]interface{}{
		"password_hash":        user.PasswordHash,
		"must_change_password": false,
	}).Error
	if err != nil {
		h.storeError(w, err, "user")
		return
	}
	user.MustChangePassword = false
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *AuthHandler) findInvite(ctx context.Context, code string) (*models.Invite, error) {
	var invite models.Invite
	if err := h.DB.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		return nil, err
	}
	if !invite.IsValid() {
		return nil, gorm.ErrRecordNotFound
	}
	return &invite, nil
}

func (h *AuthHandler) InviteInfo(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	invite, err := h.findInvite(r.Context(), code)
	if err != nil {
		h.storeError(w, err, "invitation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"email":      invite.Email,
		"expires_at": invite.ExpiresAt,
	})
}

type setPasswordRequest struct {
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Username string `json:"username"`
}

// SetPassword completes an invited client's account. An existing account
// for the invited email just gets the new password.
func (h *AuthHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if !bind(w, r, &req) {
		return
	}

	invite, err := h.findInvite(r.Context(), req.Code)
	if err != nil {
		h.storeError(w, err, "invitation")
		return
	}

	var user models.User
	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", invite.Email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			username := strings.ToLower(strings.TrimSpace(req.Username))
			if !models.ValidUsername(username) {
				return errInvalidUsername
			}
			user = models.User{Email: invite.Email, Role: invite.Role}
			if err := user.SetPassword(req.Password); err != nil {
				return err
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			user.Profile = &models.Profile{UserID: user.ID, Username: username}
			if err := tx.Create(user.Profile).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := user.SetPassword(req.Password); err != nil {
				return err
			}
			user.MustChangePassword = false
			if err := tx.Save(&user).Error; err != nil {
				return err
			}
		}

		if invite.ProjectID != nil {
			if err := grantClientContact(tx, invite, user.ID); err != nil {
				return err
			}
		}

		return tx.Model(invite).Update("used", true).Error
	})
	switch {
	case errors.Is(err, errInvalidUsername):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case database.IsUniqueViolation(err):
		writeError(w, http.StatusConflict, "username already taken")
		return
	case err != nil:
		h.storeError(w, err, "user")
		return
	}

	h.startSession(w, http.StatusOK, &user)
}

// grantClientContact gives the invited user an approved client_contact
// membership on the invite's project unless they already hold an active one.
func grantClientContact(tx *gorm.DB, invite *models.Invite, userID uint) error {
	var active int64
	err := tx.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ? AND status IN ?", *invite.ProjectID, userID, models.ActiveMembershipStatuses()).
		Count(&active).Error
	if err != nil || active > 0 {
		return err
	}
	return tx.Create(&models.ProjectMembership{
		ProjectID: *invite.ProjectID,
		UserID:    userID,
		Role:      models.ProjectRoleClientContact,
		Status:    models.MembershipApproved,
		InvitedBy: &invite.CreatedBy,
	}).Error
}
