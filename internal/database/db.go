package database

import (
	"fmt"
	"log"

	"everlasting-kin/internal/config"
	"everlasting-kin/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	if err := Open(postgres.Open(cfg.DatabaseDSN)); err != nil {
		log.Fatalf("Database init failed: %v", err)
	}
	log.Println("Database connection ready, migration complete.")
}

// Open connects through the given dialector, migrates every table and
// installs the result as DB.
func Open(dialector gorm.Dialector) error {
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	return nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.DeceasedRecord{},
		&models.AdminRequest{},
		&models.AuditLog{},
		&models.SetupMarker{},
		// Schema only; no handler touches these yet.
		&models.NextOfKin{},
		&models.PoliceReport{},
		&models.NotificationLog{},
		&models.OTPVerification{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
