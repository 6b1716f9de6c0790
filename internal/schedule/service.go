/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule generates rosters from stored profiles, records each run and hands
// the rendered workbook to the cache, object storage and the event bus.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/guardrota/internal/cache"
	"github.com/friendsincode/guardrota/internal/events"
	"github.com/friendsincode/guardrota/internal/models"
	"github.com/friendsincode/guardrota/internal/profile"
	"github.com/friendsincode/guardrota/internal/render"
	"github.com/friendsincode/guardrota/internal/storage"
	"github.com/friendsincode/guardrota/internal/telemetry"
)

// ErrRunNotFound is returned for unknown run ids and runs owned by someone else.
var ErrRunNotFound = errors.New("schedule run not found")

// DefaultHistoryLimit caps History when the caller passes zero.
const DefaultHistoryLimit = 50

// Service generates schedules for stored profiles.
type Service struct {
	db           *gorm.DB
	profiles     *profile.Service
	cache        *cache.Cache
	store        storage.ObjectStore
	bus          events.Publisher
	maxLunchDrop int
	logger       zerolog.Logger
}

// NewService constructs the schedule service. Cache, store and bus are optional and
// set afterwards.
func NewService(database *gorm.DB, profiles *profile.Service, maxLunchDrop int, logger zerolog.Logger) *Service {
	return &Service{
		db:           database,
		profiles:     profiles,
		maxLunchDrop: maxLunchDrop,
		logger:       logger.With().Str("component", "schedule").Logger(),
	}
}

// SetCache sets the workbook cache.
func (s *Service) SetCache(c *cache.Cache) { s.cache = c }

// SetStore sets the object store rendered workbooks are published to.
func (s *Service) SetStore(store storage.ObjectStore) { s.store = store }

// SetBus sets the event publisher.
func (s *Service) SetBus(bus events.Publisher) { s.bus = bus }

// Output is one generated schedule.
type Output struct {
	Run      *models.ScheduleRun
	View     *render.View
	Workbook []byte
	// Cached is true when the view came from the cache without running the engine.
	Cached bool
}

// Generate builds the schedule for the user's profile. The workbook is rendered when
// requested or when an object store is configured.
func (s *Service) Generate(ctx context.Context, userID string, withWorkbook bool) (*Output, error) {
	p, err := s.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	cfg := profile.RosterConfig(p, s.maxLunchDrop)
	digest, err := Digest(cfg)
	if err != nil {
		return nil, err
	}
	needWorkbook := withWorkbook || s.store != nil
	logger := s.logger.With().Str("user_id", userID).Str("digest", digest[:12]).Logger()

	started := time.Now()
	out := &Output{}
	var view render.View
	if s.cache.GetView(ctx, digest, &view) {
		out.View = &view
		out.Cached = true
		if needWorkbook {
			if data, ok := s.cache.GetWorkbook(ctx, digest); ok {
				out.Workbook = data
			} else {
				out.Cached = false
			}
		}
	}

	if !out.Cached {
		res, err := Build(ctx, cfg, logger)
		if err != nil {
			s.publish(events.EventScheduleFailed, events.Payload{
				"user_id": userID,
				"digest":  digest,
				"error":   err.Error(),
			})
			return nil, err
		}
		out.View = render.NewView(res)
		if err := s.cache.SetView(ctx, digest, out.View); err != nil {
			logger.Debug().Err(err).Msg("cache view")
		}
		if needWorkbook {
			data, err := render.Workbook(res)
			if err != nil {
				return nil, fmt.Errorf("render workbook: %w", err)
			}
			out.Workbook = data
			if err := s.cache.SetWorkbook(ctx, digest, data); err != nil {
				logger.Debug().Err(err).Msg("cache workbook")
			}
		}
	}

	run := &models.ScheduleRun{
		ID:         uuid.NewString(),
		ProfileID:  p.ID,
		UserID:     userID,
		Digest:     digest,
		Slots:      len(out.View.Times),
		Stations:   len(out.View.Stations),
		Guards:     len(out.View.Guards),
		Anomalies:  len(out.View.Anomalies),
		LunchDrop:  out.View.LunchDrop,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if s.store != nil && out.Workbook != nil {
		run.ObjectKey = s.export(ctx, run.ID, out.Workbook, logger)
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("record schedule run: %w", err)
	}
	out.Run = run

	logger.Info().
		Str("run_id", run.ID).
		Bool("cached", out.Cached).
		Int("anomalies", run.Anomalies).
		Int("lunch_drop", run.LunchDrop).
		Msg("schedule generated")

	s.publish(events.EventScheduleGenerated, events.Payload{
		"run_id":     run.ID,
		"user_id":    userID,
		"digest":     digest,
		"anomalies":  run.Anomalies,
		"object_key": run.ObjectKey,
	})
	if !withWorkbook {
		out.Workbook = nil
	}
	return out, nil
}

// export publishes the workbook and returns its key, or "" when the upload failed.
// A failed upload never fails the run.
func (s *Service) export(ctx context.Context, runID string, data []byte, logger zerolog.Logger) string {
	key := fmt.Sprintf("runs/%s/%s", runID, render.FileName)
	if err := s.store.Put(ctx, key, data, render.ContentType); err != nil {
		telemetry.ExportsTotal.WithLabelValues(s.store.Backend(), "error").Inc()
		logger.Warn().Err(err).Str("key", key).Msg("export workbook")
		return ""
	}
	telemetry.ExportsTotal.WithLabelValues(s.store.Backend(), "success").Inc()
	return key
}

// Workbook fetches the exported workbook of a past run.
func (s *Service) Workbook(ctx context.Context, userID, runID string) ([]byte, error) {
	var run models.ScheduleRun
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", runID, userID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule run: %w", err)
	}
	if data, ok := s.cache.GetWorkbook(ctx, run.Digest); ok {
		return data, nil
	}
	if s.store == nil || run.ObjectKey == "" {
		return nil, storage.ErrNotFound
	}
	return s.store.Get(ctx, run.ObjectKey)
}

// History lists the user's most recent runs, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]models.ScheduleRun, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var runs []models.ScheduleRun
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list schedule runs: %w", err)
	}
	return runs, nil
}

func (s *Service) publish(eventType events.EventType, payload events.Payload) {
	if s.bus != nil {
		s.bus.Publish(eventType, payload)
	}
}
