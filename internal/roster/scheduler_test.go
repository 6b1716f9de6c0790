/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package roster

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/friendsincode/guardrota/internal/clock"
)

func baseConfig(rotation, importance []string, shifts ...Shift) Config {
	return Config{
		ScheduleStart: "09:00",
		ScheduleEnd:   "13:00",
		LunchStart:    "12:00",
		LunchEnd:      "13:00",
		Rotation:      rotation,
		Importance:    importance,
		Shifts:        shifts,
	}
}

func runConfig(t *testing.T, cfg Config) *Result {
	t.Helper()
	s, err := New(cfg, WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := s.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestRunAlternatesTwoGuards(t *testing.T) {
	res := runConfig(t, baseConfig(
		[]string{"A", "B"},
		[]string{"B", "A"},
		Shift{Guard: "G1", Start: "09:00", End: "13:00"},
		Shift{Guard: "G2", Start: "09:00", End: "13:00"},
	))

	if len(res.Grid) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(res.Grid))
	}
	if diff := cmp.Diff([]string{"A", "B"}, res.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	for i, row := range res.Grid {
		want := []int{2, 1}
		if i%2 == 1 {
			want = []int{1, 2}
		}
		if diff := cmp.Diff(want, row); diff != "" {
			t.Fatalf("row %d mismatch (-want +got):\n%s", i, diff)
		}
	}
	if len(res.Anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %v", res.Anomalies)
	}
	if res.GuardName(2) != "G2" || res.GuardName(0) != "" || res.GuardName(3) != "" {
		t.Fatal("GuardName resolved the wrong guard")
	}
}

func TestRunSacrificesLeastImportantStation(t *testing.T) {
	cfg := baseConfig(
		[]string{"X", "Y", "Z"},
		[]string{"X", "Y", "Z"},
		Shift{Guard: "G1", Start: "09:00", End: "12:00"},
		Shift{Guard: "G2", Start: "09:00", End: "10:00"},
	)
	cfg.ScheduleEnd = "11:00"
	res := runConfig(t, cfg)

	if diff := cmp.Diff([]string{"Z", "Y", "X"}, res.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	want := map[int][]int{
		0: {2, 1, Unattended},
		1: {1, 2, Unattended},
		3: {1, 2, Unattended},
		4: {1, Unattended, Unattended},
		7: {1, Unattended, Unattended},
	}
	for i, row := range want {
		if diff := cmp.Diff(row, res.Grid[i]); diff != "" {
			t.Fatalf("row %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestRunStepsOverClosedStations(t *testing.T) {
	res := runConfig(t, baseConfig(
		[]string{"A", "B", "C", "D"},
		[]string{"D", "B", "C", "A"},
		Shift{Guard: "G1", Start: "09:00", End: "13:00"},
		Shift{Guard: "G2", Start: "09:00", End: "13:00"},
	))

	if diff := cmp.Diff([]int{2, 1, Unattended, Unattended}, res.Grid[0]); diff != "" {
		t.Fatalf("row 0 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, Unattended, Unattended}, res.Grid[1]); diff != "" {
		t.Fatalf("row 1 mismatch (-want +got):\n%s", diff)
	}
	if len(res.Anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %v", res.Anomalies)
	}
}

func TestRunSynthesizesStandbyAtStart(t *testing.T) {
	res := runConfig(t, baseConfig(
		[]string{"A"},
		[]string{"A"},
		Shift{Guard: "G1", Start: "09:00", End: "13:00"},
		Shift{Guard: "G2", Start: "09:00", End: "13:00"},
		Shift{Guard: "G3", Start: "09:00", End: "13:00"},
	))

	if diff := cmp.Diff([]string{"A", "Standby1", "Standby2"}, res.Rotation); diff != "" {
		t.Fatalf("rotation mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Standby2", "Standby1", "A"}, res.Importance); diff != "" {
		t.Fatalf("importance mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "Standby1", "Standby2"}, res.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Standby1", "Standby2"}, res.Standby); diff != "" {
		t.Fatalf("standby mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 1, 2}, res.Grid[0]); diff != "" {
		t.Fatalf("row 0 mismatch (-want +got):\n%s", diff)
	}
}

func TestRunSynthesizesStandbyMidRun(t *testing.T) {
	cfg := baseConfig(
		[]string{"A", "B"},
		[]string{"A", "B"},
		Shift{Guard: "G1", Start: "09:00", End: "10:00"},
		Shift{Guard: "G2", Start: "09:00", End: "10:00"},
		Shift{Guard: "G3", Start: "09:30", End: "10:00"},
	)
	cfg.ScheduleEnd = "10:00"
	res := runConfig(t, cfg)

	if diff := cmp.Diff([]string{"Standby1"}, res.Standby); diff != "" {
		t.Fatalf("standby mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i < 2; i++ {
		if len(res.Grid[i]) != 3 || res.Grid[i][2] != Unattended {
			t.Fatalf("row %d should be padded with an unattended standby column: %v", i, res.Grid[i])
		}
	}
	for i := 2; i < 4; i++ {
		if slices.Contains(res.Grid[i], Unattended) {
			t.Fatalf("row %d should be fully staffed: %v", i, res.Grid[i])
		}
	}
}

func TestRunEmptySlotWritesUnattendedRow(t *testing.T) {
	cfg := baseConfig(
		[]string{"A", "B"},
		[]string{"A", "B"},
		Shift{Guard: "G1", Start: "10:00", End: "13:00"},
	)
	res := runConfig(t, cfg)

	if diff := cmp.Diff([]int{Unattended, Unattended}, res.Grid[0]); diff != "" {
		t.Fatalf("row 0 mismatch (-want +got):\n%s", diff)
	}
	if got := res.Grid[4]; !slices.Contains(got, 1) {
		t.Fatalf("G1 should be placed on arrival: %v", got)
	}
}

// The default roster of the seeded profile.
func defaultRoster() Config {
	shift := func(name, start, end string) Shift {
		return Shift{Guard: name, Start: start, End: end}
	}
	return Config{
		ScheduleStart: "11:00",
		ScheduleEnd:   "19:30",
		LunchStart:    "13:00",
		LunchEnd:      "16:00",
		Rotation: []string{
			"Kiddie", "Dive", "Main", "Break", "First Aid", "Slide",
			"Main2", "Rover", "Lap", "See Manager", "Bathroom Break",
		},
		Importance: []string{
			"Bathroom Break", "Rover", "Main2", "See Manager", "Slide",
			"Kiddie", "First Aid", "Dive", "Lap", "Main", "Break",
		},
		Shifts: []Shift{
			shift("Guard A", "09:45", "15:30"),
			shift("Guard B", "09:45", "15:30"),
			shift("Guard C", "10:30", "16:00"),
			shift("Guard D", "10:30", "16:00"),
			shift("Guard E", "11:00", "20:00"),
			shift("Guard F", "11:00", "20:00"),
			shift("Guard G", "11:00", "20:00"),
			shift("Guard H", "11:00", "20:00"),
			shift("Guard I", "13:00", "19:00"),
			shift("Guard J", "14:00", "20:00"),
			shift("Guard K", "14:00", "20:00"),
			shift("Guard L", "14:00", "20:00"),
			shift("Guard M", "15:30", "20:00"),
		},
	}
}

func TestRunDefaultRosterInvariants(t *testing.T) {
	res := runConfig(t, defaultRoster())

	if res.LunchDrop != 1 {
		t.Fatalf("expected lunch drop 1, got %d", res.LunchDrop)
	}
	breaks := map[string]string{}
	for _, g := range res.Guards {
		if g.HasLunch() {
			breaks[g.Name] = clock.Format(g.LunchStart)
		}
	}
	wantBreaks := map[string]string{
		"Guard E": "14:00",
		"Guard F": "14:00",
		"Guard G": "15:00",
		"Guard H": "15:00",
	}
	if diff := cmp.Diff(wantBreaks, breaks); diff != "" {
		t.Fatalf("breaks mismatch (-want +got):\n%s", diff)
	}

	if len(res.Grid) != len(res.Slots) {
		t.Fatalf("grid has %d rows for %d slots", len(res.Grid), len(res.Slots))
	}
	for i, row := range res.Grid {
		at := res.Slots[i]
		if len(row) != len(res.Columns) {
			t.Fatalf("row %d has %d cells for %d columns", i, len(row), len(res.Columns))
		}

		placed := map[int]bool{}
		for _, cell := range row {
			if cell == Unattended {
				continue
			}
			if placed[cell] {
				t.Fatalf("guard %d placed twice at %s", cell, clock.Format(at))
			}
			placed[cell] = true
		}
		for n, g := range res.Guards {
			if g.AvailableAt(at) != placed[n+1] {
				t.Fatalf("%s availability %v but placed %v at %s", g.Name, g.AvailableAt(at), placed[n+1], clock.Format(at))
			}
		}
	}

	rotation := slices.Sorted(slices.Values(res.Rotation))
	importance := slices.Sorted(slices.Values(res.Importance))
	if diff := cmp.Diff(rotation, importance); diff != "" {
		t.Fatalf("rotation and importance diverged (-rotation +importance):\n%s", diff)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	first := runConfig(t, defaultRoster())
	second := runConfig(t, defaultRoster())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("runs differ (-first +second):\n%s", diff)
	}
}

func TestGuardsReturnsCopies(t *testing.T) {
	cfg := baseConfig([]string{"A", "B"}, []string{"B", "A"},
		Shift{Guard: "G1", Start: "09:00", End: "13:00"},
		Shift{Guard: "G2", Start: "09:00", End: "13:00"},
	)
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	guards := s.Guards()
	guards[0].Start = clock.MustParse("12:00")
	guards[0].NeedsLunch = true

	res, err := s.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Guards[0].Start; got != clock.MustParse("09:00") {
		t.Fatalf("caller edit leaked into the run: start = %d", got)
	}
	if res.Guards[0].NeedsLunch {
		t.Fatalf("caller edit leaked into the run: NeedsLunch set")
	}
}

func TestSchedulerRunsOnce(t *testing.T) {
	s, err := New(defaultRoster())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Run(); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := s.Run(); !errors.Is(err, ErrSchedulerUsed) {
		t.Fatalf("expected ErrSchedulerUsed, got %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"schedule inverted", func(c *Config) { c.ScheduleEnd = "10:00"; c.ScheduleStart = "11:00" }, ErrInvalidScheduleWindow},
		{"lunch empty", func(c *Config) { c.LunchEnd = c.LunchStart }, ErrInvalidLunchWindow},
		{"bad time", func(c *Config) { c.ScheduleStart = "25:00" }, clock.ErrInvalidTime},
		{"empty rotation", func(c *Config) { c.Rotation, c.Importance = nil, nil }, ErrEmptyRotation},
		{"importance mismatch", func(c *Config) { c.Importance = c.Importance[1:] }, ErrImportanceMismatch},
		{"unknown coverage", func(c *Config) {
			c.Coverage = map[string][]Interval{"Pool": {{Start: "11:00", End: "12:00"}}}
		}, ErrUnknownStation},
		{"bad coverage", func(c *Config) {
			c.Coverage = map[string][]Interval{"Main": {{Start: "12:00", End: "12:00"}}}
		}, ErrInvalidCoverage},
		{"bad shift", func(c *Config) {
			c.Shifts = append(c.Shifts, Shift{Guard: "Guard Z", Start: "18:00", End: "12:00"})
		}, ErrInvalidShift},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultRoster()
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunLunchNotConverged(t *testing.T) {
	cfg := baseConfig(
		[]string{"A", "B"},
		[]string{"A", "B"},
		Shift{Guard: "G1", Start: "08:00", End: "18:00"},
	)
	cfg.MaxLunchDrop = 1
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Run(); !errors.Is(err, ErrLunchNotConverged) {
		t.Fatalf("expected ErrLunchNotConverged, got %v", err)
	}
}
