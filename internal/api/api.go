/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/guardrota/internal/auth"
	"github.com/friendsincode/guardrota/internal/models"
	"github.com/friendsincode/guardrota/internal/profile"
	"github.com/friendsincode/guardrota/internal/schedule"
	"github.com/friendsincode/guardrota/internal/storage"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// API exposes HTTP handlers.
type API struct {
	db        *gorm.DB
	jwtSecret []byte
	jwtTTL    time.Duration
	profiles  *profile.Service
	schedules *schedule.Service
	logger    zerolog.Logger
}

// New creates the API router wrapper.
func New(db *gorm.DB, jwtSecret []byte, jwtTTL time.Duration, profiles *profile.Service, schedules *schedule.Service, logger zerolog.Logger) *API {
	return &API{
		db:        db,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		profiles:  profiles,
		schedules: schedules,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers all API routes.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(pr chi.Router) {
			pr.Use(auth.Middleware(a.jwtSecret))

			pr.Route("/profile", func(r chi.Router) {
				r.Get("/", a.handleProfileGet)
				r.Get("/export", a.handleProfileExport)
				r.Group(func(er chi.Router) {
					er.Use(a.requireRoles(models.RoleAdmin, models.RoleManager))
					er.Put("/windows", a.handleProfileWindows)
					er.Put("/rotation", a.handleProfileRotation)
					er.Put("/importance", a.handleProfileImportance)
					er.Put("/shifts", a.handleProfileShifts)
					er.Put("/coverage", a.handleProfileCoverage)
				})
			})

			pr.Route("/schedules", func(r chi.Router) {
				r.Get("/", a.handleSchedulesList)
				r.Post("/", a.handleScheduleGenerate)
				r.Post("/xlsx", a.handleScheduleWorkbook)
				r.Get("/{runID}/xlsx", a.handleScheduleRunWorkbook)
			})
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) requireRoles(allowed ...models.RoleName) func(http.Handler) http.Handler {
	roles := make([]string, len(allowed))
	for i, role := range allowed {
		roles[i] = string(role)
	}
	return auth.RequireRoles(roles...)
}

// userID returns the authenticated account. Routes behind auth.Middleware always have
// claims.
func userID(r *http.Request) string {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		return ""
	}
	return claims.UserID
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

// writeServiceError maps service errors onto status codes.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrValidation):
		writeErrorDetail(w, http.StatusBadRequest, "invalid_profile", err.Error())
	case errors.Is(err, profile.ErrNotFound):
		writeError(w, http.StatusNotFound, "profile_not_found")
	case errors.Is(err, schedule.ErrRunNotFound):
		writeError(w, http.StatusNotFound, "run_not_found")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "workbook_unavailable")
	case schedule.IsInputError(err):
		writeErrorDetail(w, http.StatusUnprocessableEntity, "schedule_failed", err.Error())
	default:
		a.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeErrorDetail(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{"error": code, "detail": detail})
}
