/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/guardrota/internal/db"
	"github.com/friendsincode/guardrota/internal/events"
	"github.com/friendsincode/guardrota/internal/models"
	"github.com/friendsincode/guardrota/internal/profile"
	"github.com/friendsincode/guardrota/internal/roster"
	"github.com/friendsincode/guardrota/internal/storage"
)

type fixture struct {
	svc      *Service
	profiles *profile.Service
	bus      *events.Bus
	store    *storage.FilesystemStore
	userID   string
}

func newFixture(t *testing.T, maxLunchDrop int) fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	user, _, err := db.Seed(context.Background(), database, db.SeedUser{Email: "chief@pool.example", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	store, err := storage.NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	bus := events.NewBus()
	profiles := profile.NewService(database, bus, zerolog.Nop())
	svc := NewService(database, profiles, maxLunchDrop, zerolog.Nop())
	svc.SetStore(store)
	svc.SetBus(bus)
	return fixture{svc: svc, profiles: profiles, bus: bus, store: store, userID: user.ID}
}

func TestGenerateRecordsRunAndExports(t *testing.T) {
	fx := newFixture(t, 0)
	ctx := context.Background()
	sub := fx.bus.Subscribe(events.EventScheduleGenerated)

	out, err := fx.svc.Generate(ctx, fx.userID, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Workbook != nil {
		t.Fatal("workbook should not be returned unless requested")
	}
	if out.Run.Stations != len(db.DefaultRotation) || out.Run.Guards != len(db.DefaultShifts) {
		t.Fatalf("unexpected run summary: %+v", out.Run)
	}
	if out.Run.Slots != 34 {
		t.Fatalf("11:00-19:30 should have 34 slots, got %d", out.Run.Slots)
	}
	if out.Run.ObjectKey == "" {
		t.Fatal("expected workbook export")
	}
	exported, err := fx.store.Get(ctx, out.Run.ObjectKey)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(exported, []byte("PK")) {
		t.Fatal("export is not an xlsx archive")
	}

	select {
	case payload := <-sub:
		if payload["run_id"] != out.Run.ID {
			t.Fatalf("unexpected event payload: %v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("expected schedule.generated event")
	}

	fetched, err := fx.svc.Workbook(ctx, fx.userID, out.Run.ID)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	if !bytes.Equal(fetched, exported) {
		t.Fatal("fetched workbook differs from export")
	}
}

func TestGenerateReturnsWorkbookOnRequest(t *testing.T) {
	fx := newFixture(t, 0)
	out, err := fx.svc.Generate(context.Background(), fx.userID, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(out.Workbook, []byte("PK")) {
		t.Fatal("expected xlsx bytes")
	}
	if out.Cached {
		t.Fatal("first run cannot be cached without redis")
	}
}

func TestHistoryAndOwnership(t *testing.T) {
	fx := newFixture(t, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := fx.svc.Generate(ctx, fx.userID, false); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	runs, err := fx.svc.History(ctx, fx.userID, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Digest != runs[1].Digest {
		t.Fatal("unchanged profile should produce the same digest")
	}

	if _, err := fx.svc.Workbook(ctx, uuid.NewString(), runs[0].ID); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound for another user, got %v", err)
	}
	if _, err := fx.svc.Workbook(ctx, fx.userID, uuid.NewString()); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestGenerateFailurePublishesEvent(t *testing.T) {
	fx := newFixture(t, 1)
	ctx := context.Background()

	if _, err := fx.profiles.UpdateWindows(ctx, fx.userID, profile.Windows{
		ScheduleStart: "09:00", ScheduleEnd: "18:00", LunchStart: "12:00", LunchEnd: "13:00",
	}); err != nil {
		t.Fatalf("UpdateWindows: %v", err)
	}
	if _, err := fx.profiles.UpdateShifts(ctx, fx.userID, []models.ShiftEntry{
		{Guard: "A", Start: "09:00", End: "18:00"},
		{Guard: "B", Start: "09:00", End: "18:00"},
		{Guard: "C", Start: "09:00", End: "18:00"},
	}); err != nil {
		t.Fatalf("UpdateShifts: %v", err)
	}
	sub := fx.bus.Subscribe(events.EventScheduleFailed)

	_, err := fx.svc.Generate(ctx, fx.userID, false)
	if !errors.Is(err, roster.ErrLunchNotConverged) {
		t.Fatalf("expected ErrLunchNotConverged, got %v", err)
	}
	if !IsInputError(err) {
		t.Fatal("lunch convergence failures are input errors")
	}
	select {
	case payload := <-sub:
		if payload["user_id"] != fx.userID {
			t.Fatalf("unexpected payload: %v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("expected schedule.failed event")
	}

	runs, err := fx.svc.History(ctx, fx.userID, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("failed runs must not be recorded, got %d", len(runs))
	}
}

func TestDigest(t *testing.T) {
	cfg := profile.RosterConfig(db.DefaultProfile(""), 0)
	a, err := Digest(cfg)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	b, err := Digest(profile.RosterConfig(db.DefaultProfile(""), 0))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if a != b || len(a) != 64 {
		t.Fatalf("digest not stable: %s %s", a, b)
	}

	cfg.Shifts[0].End = "16:00"
	c, err := Digest(cfg)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if c == a {
		t.Fatal("changed roster must change the digest")
	}
}

func TestIsInputError(t *testing.T) {
	if IsInputError(errors.New("disk on fire")) {
		t.Fatal("arbitrary errors are not input errors")
	}
	if !IsInputError(fmt.Errorf("wrap: %w", roster.ErrEmptyRotation)) {
		t.Fatal("wrapped configuration errors are input errors")
	}
	if outcomeFor(roster.ErrLunchNotConverged) != "lunch_not_converged" {
		t.Fatal("unexpected outcome label")
	}
}
