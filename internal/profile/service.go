/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package profile owns the editable planning settings of each account: windows, the
// station layout, the roster and coverage.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/guardrota/internal/db"
	"github.com/friendsincode/guardrota/internal/events"
	"github.com/friendsincode/guardrota/internal/models"
)

// ErrNotFound is returned when the account has no profile.
var ErrNotFound = errors.New("profile not found")

// Service reads and edits profiles.
type Service struct {
	db     *gorm.DB
	bus    events.Publisher
	logger zerolog.Logger
}

// NewService creates a profile service. bus may be nil.
func NewService(database *gorm.DB, bus events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		db:     database,
		bus:    bus,
		logger: logger.With().Str("component", "profile").Logger(),
	}
}

// Get returns the profile of a user.
func (s *Service) Get(ctx context.Context, userID string) (*models.Profile, error) {
	return load(s.db.WithContext(ctx), userID)
}

// GetOrCreate returns the user's profile, creating the stock one on first use.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.Get(ctx, userID)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return p, err
	}
	return s.createDefault(ctx, userID)
}

// createDefault inserts the stock profile. A concurrent first request for the same user
// trips the unique user_id index, in which case the row it stored is returned.
func (s *Service) createDefault(ctx context.Context, userID string) (*models.Profile, error) {
	p := db.DefaultProfile(userID)
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if existing, loadErr := s.Get(ctx, userID); loadErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Str("profile_id", p.ID).Msg("default profile created")
	return p, nil
}

// UpdateWindows sets the schedule and lunch windows.
func (s *Service) UpdateWindows(ctx context.Context, userID string, w Windows) (*models.Profile, error) {
	normalized, err := NormalizeWindows(w)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, "windows", func(p *models.Profile) error {
		p.ScheduleStart = normalized.ScheduleStart
		p.ScheduleEnd = normalized.ScheduleEnd
		p.LunchStart = normalized.LunchStart
		p.LunchEnd = normalized.LunchEnd
		return nil
	})
}

// UpdateRotation applies a rotation edit. See ApplyRotationEdits.
func (s *Service) UpdateRotation(ctx context.Context, userID string, edits []StationEdit) (*models.Profile, error) {
	return s.mutate(ctx, userID, "rotation", func(p *models.Profile) error {
		layout, err := ApplyRotationEdits(Layout{
			Rotation:   p.Rotation,
			Importance: p.Importance,
			Coverage:   p.Coverage,
		}, edits)
		if err != nil {
			return err
		}
		p.Rotation = layout.Rotation
		p.Importance = layout.Importance
		p.Coverage = layout.Coverage
		return nil
	})
}

// UpdateImportance stores a most-important-first ranking.
func (s *Service) UpdateImportance(ctx context.Context, userID string, ranking []string) (*models.Profile, error) {
	return s.mutate(ctx, userID, "importance", func(p *models.Profile) error {
		importance, err := ImportanceFromRanking(ranking, p.Rotation)
		if err != nil {
			return err
		}
		p.Importance = importance
		return nil
	})
}

// UpdateShifts replaces the roster.
func (s *Service) UpdateShifts(ctx context.Context, userID string, entries []models.ShiftEntry) (*models.Profile, error) {
	shifts, err := NormalizeShifts(entries)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, "shifts", func(p *models.Profile) error {
		p.Shifts = shifts
		return nil
	})
}

// UpdateCoverage replaces the coverage windows.
func (s *Service) UpdateCoverage(ctx context.Context, userID string, coverage map[string][]models.CoverageWindow) (*models.Profile, error) {
	return s.mutate(ctx, userID, "coverage", func(p *models.Profile) error {
		normalized, err := NormalizeCoverage(p.Rotation, coverage)
		if err != nil {
			return err
		}
		p.Coverage = normalized
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, userID, field string, apply func(*models.Profile) error) (*models.Profile, error) {
	var updated *models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := load(tx, userID)
		if err != nil {
			return err
		}
		if err := apply(p); err != nil {
			return err
		}
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Str("field", field).Msg("profile updated")
	if s.bus != nil {
		s.bus.Publish(events.EventProfileUpdated, events.Payload{
			"user_id":    userID,
			"profile_id": updated.ID,
			"field":      field,
		})
	}
	return updated, nil
}

func load(tx *gorm.DB, userID string) (*models.Profile, error) {
	var p models.Profile
	err := tx.Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}
