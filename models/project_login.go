package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ProjectLogin is the shared password guarding a client's project preview.
type ProjectLogin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ProjectSlug  string    `gorm:"uniqueIndex;not null;size:120" json:"project_slug"`
	PasswordHash string    `gorm:"not null" json:"-"`
}

func (l *ProjectLogin) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	l.PasswordHash = string(hash)
	return nil
}

func (l *ProjectLogin) Check(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(l.PasswordHash), []byte(password)) == nil
}
