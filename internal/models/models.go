/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"strings"
	"time"
)

// RoleName enumerates the RBAC roles.
type RoleName string

const (
	RoleAdmin   RoleName = "admin"
	RoleManager RoleName = "manager"
	RoleViewer  RoleName = "viewer"
)

// NormalizeRole maps free-form role input onto a known role. Unknown values become viewer.
func NormalizeRole(raw string) RoleName {
	switch RoleName(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager, "supervisor":
		return RoleManager
	default:
		return RoleViewer
	}
}

// CanEdit reports whether the role may change profiles and generate schedules.
func (r RoleName) CanEdit() bool {
	return r == RoleAdmin || r == RoleManager
}

// User represents an authenticated account.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Password  string    `json:"-"`
	Role      RoleName  `gorm:"type:varchar(16)" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
