package database

import (
	"fmt"

	"github.com/Destcable/API-cloud-storage/internal/config"
	"github.com/Destcable/API-cloud-storage/internal/models"
	"github.com/Destcable/API-cloud-storage/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	// TranslateError turns driver unique-index violations into
	// gorm.ErrDuplicatedKey, which the grant and registration paths rely on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := seedAdminUser(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the schema. The composite unique index on file_accesses
// (declared on the model) is what collapses a concurrent double-grant into the
// idempotent path; the role check constraint keeps the enum closed.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.File{},
		&models.FileAccess{},
	); err != nil {
		return err
	}

	// pg_constraint and DO blocks only exist on postgres; other dialects get
	// the schema without the check.
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	constraint := `
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1
    FROM pg_constraint
    WHERE conname = 'file_access_role_check'
  ) THEN
    ALTER TABLE file_accesses
    ADD CONSTRAINT file_access_role_check
    CHECK (role IN ('author', 'co-author'));
  END IF;
END $$;`

	return db.Exec(constraint).Error
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("Qa1")
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        "admin@admin.ru",
		PasswordHash: hash,
		FirstName:    "admin",
		LastName:     "admin",
	}

	return db.Create(&admin).Error
}
