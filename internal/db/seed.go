/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friendsincode/guardrota/internal/models"
)

// ErrUserExists is returned when seeding an email that is already registered.
var ErrUserExists = errors.New("user already exists")

// Default planning window for a new profile.
const (
	DefaultScheduleStart = "11:00"
	DefaultScheduleEnd   = "19:30"
	DefaultLunchStart    = "13:00"
	DefaultLunchEnd      = "16:00"
)

// DefaultRotation is the physical walking order of the stock pool layout.
var DefaultRotation = []string{
	"Kiddie", "Dive", "Main", "Break", "First Aid", "Slide",
	"Main2", "Rover", "Lap", "See Manager", "Bathroom Break",
}

// DefaultImportance ranks the stock stations; the head goes unattended first.
var DefaultImportance = []string{
	"Bathroom Break", "Rover", "Main2", "See Manager", "Slide",
	"Kiddie", "First Aid", "Dive", "Lap", "Main", "Break",
}

// DefaultShifts is the sample roster shipped with a new profile.
var DefaultShifts = []models.ShiftEntry{
	{Guard: "Guard A", Start: "09:45", End: "15:30"},
	{Guard: "Guard B", Start: "09:45", End: "15:30"},
	{Guard: "Guard C", Start: "10:30", End: "16:00"},
	{Guard: "Guard D", Start: "10:30", End: "16:00"},
	{Guard: "Guard E", Start: "11:00", End: "20:00"},
	{Guard: "Guard F", Start: "11:00", End: "20:00"},
	{Guard: "Guard G", Start: "11:00", End: "20:00"},
	{Guard: "Guard H", Start: "11:00", End: "20:00"},
	{Guard: "Guard I", Start: "13:00", End: "19:00"},
	{Guard: "Guard J", Start: "14:00", End: "20:00"},
	{Guard: "Guard K", Start: "14:00", End: "20:00"},
	{Guard: "Guard L", Start: "14:00", End: "20:00"},
	{Guard: "Guard M", Start: "15:30", End: "20:00"},
}

// DefaultProfile returns a profile populated with the stock layout and roster.
func DefaultProfile(userID string) *models.Profile {
	return &models.Profile{
		ID:            uuid.NewString(),
		UserID:        userID,
		ScheduleStart: DefaultScheduleStart,
		ScheduleEnd:   DefaultScheduleEnd,
		LunchStart:    DefaultLunchStart,
		LunchEnd:      DefaultLunchEnd,
		Rotation:      slices.Clone(DefaultRotation),
		Importance:    slices.Clone(DefaultImportance),
		Coverage:      map[string][]models.CoverageWindow{},
		Shifts:        slices.Clone(DefaultShifts),
	}
}

// SeedUser describes the account created by Seed. PasswordHash must already be hashed.
type SeedUser struct {
	Email        string
	PasswordHash string
	Role         models.RoleName
}

// Seed creates a user and their default profile in one transaction.
func Seed(ctx context.Context, database *gorm.DB, in SeedUser) (*models.User, *models.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.PasswordHash == "" {
		return nil, nil, fmt.Errorf("seed: email and password are required")
	}
	role := in.Role
	if role == "" {
		role = models.RoleAdmin
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Email:    email,
		Password: in.PasswordHash,
		Role:     role,
	}
	profile := DefaultProfile(user.ID)

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}
