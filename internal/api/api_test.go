/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/guardrota/internal/auth"
	"github.com/friendsincode/guardrota/internal/db"
	"github.com/friendsincode/guardrota/internal/models"
	"github.com/friendsincode/guardrota/internal/profile"
	"github.com/friendsincode/guardrota/internal/render"
	"github.com/friendsincode/guardrota/internal/schedule"
)

const (
	adminEmail  = "chief@pool.example"
	viewerEmail = "watch@pool.example"
	password    = "correct-horse"
)

var testSecret = []byte("test-secret")

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithCeiling(t, 0)
}

func newTestRouterWithCeiling(t *testing.T, maxLunchDrop int) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, _, err := db.Seed(context.Background(), database, db.SeedUser{Email: adminEmail, PasswordHash: hash}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := database.Create(&models.User{
		ID:       uuid.NewString(),
		Email:    viewerEmail,
		Password: hash,
		Role:     models.RoleViewer,
	}).Error; err != nil {
		t.Fatalf("create viewer: %v", err)
	}

	profiles := profile.NewService(database, nil, zerolog.Nop())
	schedules := schedule.NewService(database, profiles, maxLunchDrop, zerolog.Nop())
	a := New(database, testSecret, time.Hour, profiles, schedules, zerolog.Nop())

	r := chi.NewRouter()
	a.Routes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rr := doRequest(t, h, http.MethodPost, "/api/v1/auth/login", "", loginRequest{Email: email, Password: password})
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body=%s", email, rr.Code, rr.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.ExpiresIn != 3600 {
		t.Fatalf("unexpected login response: %+v", resp)
	}
	return resp.AccessToken
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	return body["error"]
}

func TestLogin(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{name: "wrong password", body: loginRequest{Email: adminEmail, Password: "nope-nope"}, wantCode: http.StatusUnauthorized, wantErr: "invalid_credentials"},
		{name: "unknown email", body: loginRequest{Email: "who@pool.example", Password: password}, wantCode: http.StatusUnauthorized, wantErr: "invalid_credentials"},
		{name: "missing fields", body: loginRequest{Email: adminEmail}, wantCode: http.StatusBadRequest, wantErr: "credentials_required"},
		{name: "malformed", body: "{", wantCode: http.StatusBadRequest, wantErr: "invalid_json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, h, http.MethodPost, "/api/v1/auth/login", "", tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("status %d, want %d body=%s", rr.Code, tt.wantCode, rr.Body.String())
			}
			if got := errorCode(t, rr); got != tt.wantErr {
				t.Fatalf("error %q, want %q", got, tt.wantErr)
			}
		})
	}

	token := login(t, h, "  CHIEF@pool.example ")
	claims, err := auth.Parse(testSecret, token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if !claims.HasRole(string(models.RoleAdmin)) {
		t.Fatalf("expected admin role, got %v", claims.Roles)
	}
}

func TestProfileRequiresToken(t *testing.T) {
	h := newTestRouter(t)
	rr := doRequest(t, h, http.MethodGet, "/api/v1/profile", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestProfileGetShowsRanking(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h, adminEmail)

	rr := doRequest(t, h, http.MethodGet, "/api/v1/profile", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rr.Code, rr.Body.String())
	}
	var resp profileResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	last := db.DefaultImportance[len(db.DefaultImportance)-1]
	if resp.Ranking[0] != last {
		t.Fatalf("ranking should start with %q, got %v", last, resp.Ranking)
	}
	if len(resp.Profile.Shifts) != len(db.DefaultShifts) {
		t.Fatalf("expected default roster, got %d shifts", len(resp.Profile.Shifts))
	}
}

func TestViewerCannotEdit(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h, viewerEmail)

	if rr := doRequest(t, h, http.MethodGet, "/api/v1/profile", token, nil); rr.Code != http.StatusOK {
		t.Fatalf("viewer read: status %d", rr.Code)
	}
	rr := doRequest(t, h, http.MethodPut, "/api/v1/profile/importance", token, map[string]any{"ranking": []string{"Main"}})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestProfileEdits(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h, adminEmail)

	rr := doRequest(t, h, http.MethodPut, "/api/v1/profile/rotation", token, map[string]any{
		"stations": []profile.StationEdit{{Name: "Gate"}, {Name: "Gate"}},
	})
	if rr.Code != http.StatusBadRequest || errorCode(t, rr) != "invalid_profile" {
		t.Fatalf("duplicate stations: status %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodPut, "/api/v1/profile/rotation", token, map[string]any{
		"stations": []profile.StationEdit{{Name: "Gate"}, {Name: "Pool"}},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("rotation: status %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodPut, "/api/v1/profile/importance", token, map[string]any{"ranking": []string{"Gate", "Pool"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("importance: status %d body=%s", rr.Code, rr.Body.String())
	}
	var resp profileResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(resp.Profile.Importance, ",") != "Pool,Gate" {
		t.Fatalf("importance stored as %v", resp.Profile.Importance)
	}

	rr = doRequest(t, h, http.MethodPut, "/api/v1/profile/shifts", token, `{"shifts":[{"guard":"Ana","start":"09:00","end":"17:00","shoe_size":9}]}`)
	if rr.Code != http.StatusBadRequest || errorCode(t, rr) != "invalid_json" {
		t.Fatalf("unknown field: status %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodPut, "/api/v1/profile/coverage", token, map[string]any{
		"coverage": map[string][]models.CoverageWindow{"Lobby": {{Start: "09:00", End: "10:00"}}},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown coverage station: status %d", rr.Code)
	}

	rr = doRequest(t, h, http.MethodPut, "/api/v1/profile/windows", token, profile.Windows{
		ScheduleStart: "10:00", ScheduleEnd: "18:00", LunchStart: "12:00", LunchEnd: "15:00",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("windows: status %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestProfileExportIsYAML(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h, adminEmail)

	rr := doRequest(t, h, http.MethodGet, "/api/v1/profile/export", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "rotation:") || !strings.Contains(rr.Body.String(), "Guard A") {
		t.Fatalf("unexpected export:\n%s", rr.Body.String())
	}
}

func TestScheduleEndpoints(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h, adminEmail)

	rr := doRequest(t, h, http.MethodPost, "/api/v1/schedules", token, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("generate: status %d body=%s", rr.Code, rr.Body.String())
	}
	var resp scheduleResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Schedule.Stations) != len(db.DefaultRotation) || resp.Run.ID == "" {
		t.Fatalf("unexpected schedule response: run=%+v stations=%d", resp.Run, len(resp.Schedule.Stations))
	}

	rr = doRequest(t, h, http.MethodPost, "/api/v1/schedules/xlsx", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("xlsx: status %d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != render.ContentType || rr.Header().Get("X-Schedule-Run") == "" {
		t.Fatalf("unexpected headers: %v", rr.Header())
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Fatal("body is not an xlsx archive")
	}

	rr = doRequest(t, h, http.MethodGet, "/api/v1/schedules?limit=10", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: status %d", rr.Code)
	}
	var list struct {
		Runs []models.ScheduleRun `json:"runs"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(list.Runs))
	}

	if rr := doRequest(t, h, http.MethodGet, "/api/v1/schedules?limit=zero", token, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: status %d", rr.Code)
	}

	rr = doRequest(t, h, http.MethodGet, "/api/v1/schedules/"+resp.Run.ID+"/xlsx", token, nil)
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "workbook_unavailable" {
		t.Fatalf("stored workbook without store: status %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doRequest(t, h, http.MethodGet, "/api/v1/schedules/"+uuid.NewString()+"/xlsx", token, nil)
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "run_not_found" {
		t.Fatalf("unknown run: status %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestScheduleInputErrorIs422(t *testing.T) {
	h := newTestRouterWithCeiling(t, 1)
	token := login(t, h, adminEmail)

	rr := doRequest(t, h, http.MethodPut, "/api/v1/profile/shifts", token, map[string]any{
		"shifts": []models.ShiftEntry{
			{Guard: "Ana", Start: "11:00", End: "20:00"},
			{Guard: "Ben", Start: "11:00", End: "20:00"},
			{Guard: "Cy", Start: "11:00", End: "20:00"},
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("shifts: status %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doRequest(t, h, http.MethodPost, "/api/v1/schedules", token, nil)
	if rr.Code != http.StatusUnprocessableEntity || errorCode(t, rr) != "schedule_failed" {
		t.Fatalf("expected 422 schedule_failed, got %d body=%s", rr.Code, rr.Body.String())
	}
}
