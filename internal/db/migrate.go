package db

import (
	"errors"  // Sentinel comparison
	"strings" // Username normalization

	"arcade_wallet/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library

	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
)

// adminSeedBalance is the float the initial admin's wallet starts with; it
// funds approvals and direct topups.
const adminSeedBalance = 10000

// Migrate performs automatic migration for the database schema and seeds the
// initial admin user if one is configured and absent.
func Migrate(dsn, adminUser, adminPass string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	logrus.Info("Migration completed.")

	if adminUser == "" || adminPass == "" {
		return // No seed configured
	}
	if err := SeedAdmin(db, adminUser, adminPass); err != nil {
		logrus.Fatalf("admin seed failed: %v", err)
	}
}

// SeedAdmin creates the admin user and wallet unless the username is taken.
func SeedAdmin(db *gorm.DB, username, password string) error {
	username = strings.ToLower(username)
	var existing domain.User
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		logrus.WithField("username", username).Info("Admin already seeded")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Name:         username,
		Role:         domain.RoleAdmin,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		wallet := domain.Wallet{
			UserID:         &admin.ID,
			DisplayName:    admin.Name,
			Balance:        adminSeedBalance,
			InitialBalance: adminSeedBalance,
			IsActive:       true,
		}
		return tx.Create(&wallet).Error
	})
	if err != nil {
		return err
	}
	logrus.WithField("username", username).Info("Admin seeded")
	return nil
}
