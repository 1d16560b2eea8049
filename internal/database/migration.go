package database

import (
	"fmt"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Account{},
		&models.Entry{},
		&models.Transfer{},
		&models.ExchangeRate{},
		&models.Category{},
		&models.AuditLog{},
		&models.Backup{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
