/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/guardrota/internal/models"
	"github.com/friendsincode/guardrota/internal/render"
)

type scheduleResponse struct {
	Run      *models.ScheduleRun `json:"run"`
	Schedule *render.View        `json:"schedule"`
	Cached   bool                `json:"cached"`
}

func (a *API) handleScheduleGenerate(w http.ResponseWriter, r *http.Request) {
	out, err := a.schedules.Generate(r.Context(), userID(r), false)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, scheduleResponse{
		Run:      out.Run,
		Schedule: out.View,
		Cached:   out.Cached,
	})
}

func (a *API) handleScheduleWorkbook(w http.ResponseWriter, r *http.Request) {
	out, err := a.schedules.Generate(r.Context(), userID(r), true)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.Header().Set("X-Schedule-Run", out.Run.ID)
	writeWorkbook(w, out.Workbook)
}

func (a *API) handleScheduleRunWorkbook(w http.ResponseWriter, r *http.Request) {
	data, err := a.schedules.Workbook(r.Context(), userID(r), chi.URLParam(r, "runID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeWorkbook(w, data)
}

func (a *API) handleSchedulesList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = n
	}
	runs, err := a.schedules.History(r.Context(), userID(r), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func writeWorkbook(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", render.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
