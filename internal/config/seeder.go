package config

import (
	"fmt"
	"log"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/core/domain"
	"docshelf/internal/pkg/password"
)

// SeedAdmin creates the bootstrap administrator account if no admin exists.
// The admin identity is configuration-driven; there is no hardcoded default
// password, so seeding is skipped with a warning when ADMIN_PASSWORD is unset.
func SeedAdmin(config *Config) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	var count int64
	if err := DB.Model(&models.User{}).
		Where("role = ? AND is_active = ?", string(domain.RoleAdmin), true).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admin users: %w", err)
	}

	if count > 0 {
		log.Println("✅ Admin account already exists, skipping seed")
		return nil
	}

	if config.Admin.Password == "" {
		log.Println("⚠️  ADMIN_PASSWORD not set, skipping admin seed (no administrator will exist)")
		return nil
	}

	hashed, err := password.Hash(config.Admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		Username: config.Admin.Username,
		Email:    config.Admin.Email,
		Password: hashed,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}

	if err := DB.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("✅ Bootstrap admin created [username: %s]", admin.Username)
	return nil
}
