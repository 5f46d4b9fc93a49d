package database

import (
	"errors"

	"b0ase/logger"
	"b0ase/models"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

const (
	defaultAdminEmail    = "admin@localhost"
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin"
)

func Init(dsn string, log *zap.Logger) error {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(log),
	})
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}

	if err := seedDefaultAdmin(db, log); err != nil {
		return err
	}

	DB = db
	return nil
}

// Migrate brings the schema up to date with the models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Skill{},
		&models.UserSkill{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.ProjectLogin{},
		&models.Gig{},
		&models.Team{},
		&models.TeamMembership{},
		&models.TeamMessage{},
		&models.Token{},
		&models.Invite{},
		&models.ClientRequest{},
		&models.CalendarEvent{},
		&models.DiaryEntry{},
		&models.DiaryActionItem{},
	)
}

func seedDefaultAdmin(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := models.User{
		Email:              defaultAdminEmail,
		Role:               models.RoleAdmin,
		MustChangePassword: true,
	}
	if err := admin.SetPassword(defaultAdminPassword); err != nil {
		return err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{
			UserID:      admin.ID,
			Username:    defaultAdminUsername,
			DisplayName: "Administrator",
		}).Error
	})
	if err != nil {
		return err
	}

	log.Info("default admin user created", zap.String("email", defaultAdminEmail))
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
