package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	Email              string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash       string         `gorm:"not null" json:"-"`
	Role               Role           `gorm:"not null;size:20;default:MEMBER" json:"role"`
	MustChangePassword bool           `gorm:"default:false" json:"must_change_password"`
	Profile            *Profile       `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) CanManageProject(p *Project) bool {
	if u.IsAdmin() {
		return true
	}
	return p.OwnerID == u.ID
}

func (u *User) CanManageGig(g *Gig) bool {
	if u.IsAdmin() {
		return true
	}
	return g.UserID == u.ID
}

func (u *User) CanManageToken(t *Token) bool {
	return t.UserID == u.ID
}

func (u *User) CanManageProjectLogins() bool {
	return u.IsAdmin()
}
