/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/friendsincode/guardrota/internal/models"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.ScheduleRun{},
	); err != nil {
		return err
	}

	if err := normalizeLegacyRoles(database); err != nil {
		return err
	}

	return nil
}

// normalizeLegacyRoles rewrites roles saved before the viewer role existed.
func normalizeLegacyRoles(database *gorm.DB) error {
	if err := database.Model(&models.User{}).
		Where("role IS NULL OR TRIM(role) = ''").
		Update("role", models.RoleViewer).Error; err != nil {
		return fmt.Errorf("normalize empty roles: %w", err)
	}
	if err := database.Model(&models.User{}).
		Where("LOWER(TRIM(role)) = ?", "supervisor").
		Update("role", models.RoleManager).Error; err != nil {
		return fmt.Errorf("normalize supervisor roles: %w", err)
	}
	return nil
}
