/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"

	"github.com/friendsincode/guardrota/internal/models"
	"github.com/friendsincode/guardrota/internal/profile"
	"github.com/friendsincode/guardrota/internal/rosterfile"
)

// profileResponse adds the most-important-first ranking shown to users.
type profileResponse struct {
	Profile *models.Profile `json:"profile"`
	Ranking []string        `json:"ranking"`
}

func (a *API) writeProfile(w http.ResponseWriter, p *models.Profile) {
	writeJSON(w, http.StatusOK, profileResponse{
		Profile: p,
		Ranking: profile.RankingFromImportance(p.Importance),
	})
}

func (a *API) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	p, err := a.profiles.GetOrCreate(r.Context(), userID(r))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeProfile(w, p)
}

func (a *API) handleProfileExport(w http.ResponseWriter, r *http.Request) {
	p, err := a.profiles.GetOrCreate(r.Context(), userID(r))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="roster.yaml"`)
	w.WriteHeader(http.StatusOK)
	if err := rosterfile.Encode(w, rosterfile.FromProfile(p)); err != nil {
		a.logger.Warn().Err(err).Msg("write roster export")
	}
}

func (a *API) handleProfileWindows(w http.ResponseWriter, r *http.Request) {
	var req profile.Windows
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := a.profiles.UpdateWindows(r.Context(), userID(r), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeProfile(w, p)
}

func (a *API) handleProfileRotation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stations []profile.StationEdit `json:"stations"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := a.profiles.UpdateRotation(r.Context(), userID(r), req.Stations)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeProfile(w, p)
}

func (a *API) handleProfileImportance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ranking []string `json:"ranking"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := a.profiles.UpdateImportance(r.Context(), userID(r), req.Ranking)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeProfile(w, p)
}

func (a *API) handleProfileShifts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Shifts []models.ShiftEntry `json:"shifts"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := a.profiles.UpdateShifts(r.Context(), userID(r), req.Shifts)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeProfile(w, p)
}

func (a *API) handleProfileCoverage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Coverage map[string][]models.CoverageWindow `json:"coverage"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := a.profiles.UpdateCoverage(r.Context(), userID(r), req.Coverage)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeProfile(w, p)
}
