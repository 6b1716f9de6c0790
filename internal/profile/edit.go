/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package profile

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/friendsincode/guardrota/internal/clock"
	"github.com/friendsincode/guardrota/internal/models"
)

// DefaultStationName replaces blank names in rotation edits.
const DefaultStationName = "New Station"

// ErrValidation wraps every rejected edit.
var ErrValidation = errors.New("invalid profile edit")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Windows is the schedule and lunch window pair.
type Windows struct {
	ScheduleStart string `json:"schedule_start"`
	ScheduleEnd   string `json:"schedule_end"`
	LunchStart    string `json:"lunch_start"`
	LunchEnd      string `json:"lunch_end"`
}

// NormalizeWindows parses both windows and returns them zero padded.
func NormalizeWindows(w Windows) (Windows, error) {
	start, end, err := parseRange("schedule", w.ScheduleStart, w.ScheduleEnd)
	if err != nil {
		return Windows{}, err
	}
	if start >= end {
		return Windows{}, invalid("schedule start must be before schedule end")
	}
	lunchStart, lunchEnd, err := parseRange("lunch", w.LunchStart, w.LunchEnd)
	if err != nil {
		return Windows{}, err
	}
	if lunchStart >= lunchEnd {
		return Windows{}, invalid("lunch start must be before lunch end")
	}
	return Windows{
		ScheduleStart: clock.Format(start),
		ScheduleEnd:   clock.Format(end),
		LunchStart:    clock.Format(lunchStart),
		LunchEnd:      clock.Format(lunchEnd),
	}, nil
}

func parseRange(what, start, end string) (int, int, error) {
	s, err := clock.Parse(start)
	if err != nil {
		return 0, 0, invalid("%s start: %v", what, err)
	}
	e, err := clock.Parse(end)
	if err != nil {
		return 0, 0, invalid("%s end: %v", what, err)
	}
	return s, e, nil
}

// StationEdit is one row of a rotation edit. Previous names the station being edited
// and is empty for a station added by this edit.
type StationEdit struct {
	Previous string `json:"previous,omitempty"`
	Name     string `json:"name"`
}

// Layout is the station part of a profile.
type Layout struct {
	Rotation   []string
	Importance []string
	Coverage   map[string][]models.CoverageWindow
}

// ApplyRotationEdits replaces the rotation with the edited rows. Renamed stations keep
// their importance rank and coverage. New stations go to the head of the importance
// list, so they are the first to go unattended. Stations left out are dropped.
func ApplyRotationEdits(current Layout, edits []StationEdit) (Layout, error) {
	if len(edits) == 0 {
		return Layout{}, invalid("rotation cycle is empty")
	}

	names := make([]string, len(edits))
	seenName := make(map[string]bool, len(edits))
	seenPrev := make(map[string]bool, len(edits))
	renamed := make(map[string]string, len(edits))
	var added []string

	for i, edit := range edits {
		name := strings.TrimSpace(edit.Name)
		if name == "" {
			name = DefaultStationName
		}
		if seenName[name] {
			return Layout{}, invalid("duplicate station %q", name)
		}
		seenName[name] = true
		names[i] = name

		prev := strings.TrimSpace(edit.Previous)
		if prev == "" {
			added = append(added, name)
			continue
		}
		if !slices.Contains(current.Rotation, prev) {
			return Layout{}, invalid("unknown station %q", prev)
		}
		if seenPrev[prev] {
			return Layout{}, invalid("station %q edited twice", prev)
		}
		seenPrev[prev] = true
		renamed[prev] = name
	}

	importance := make([]string, 0, len(names))
	for i := len(added) - 1; i >= 0; i-- {
		importance = append(importance, added[i])
	}
	for _, station := range current.Importance {
		if name, ok := renamed[station]; ok {
			importance = append(importance, name)
		}
	}

	coverage := make(map[string][]models.CoverageWindow)
	for prev, name := range renamed {
		if windows, ok := current.Coverage[prev]; ok && len(windows) > 0 {
			coverage[name] = slices.Clone(windows)
		}
	}

	return Layout{Rotation: names, Importance: importance, Coverage: coverage}, nil
}

// RankingFromImportance returns the importance list most important first, the order
// shown to users.
func RankingFromImportance(importance []string) []string {
	out := slices.Clone(importance)
	slices.Reverse(out)
	return out
}

// ImportanceFromRanking validates a most-important-first ranking against the rotation
// and returns it in stored orientation.
func ImportanceFromRanking(ranking, rotation []string) ([]string, error) {
	if len(ranking) != len(rotation) {
		return nil, invalid("importance must list all %d stations, got %d", len(rotation), len(ranking))
	}
	out := make([]string, len(ranking))
	seen := make(map[string]bool, len(ranking))
	for i, raw := range ranking {
		name := strings.TrimSpace(raw)
		if !slices.Contains(rotation, name) {
			return nil, invalid("unknown station %q", name)
		}
		if seen[name] {
			return nil, invalid("duplicate station %q", name)
		}
		seen[name] = true
		out[len(ranking)-1-i] = name
	}
	return out, nil
}

// NormalizeShifts trims names, zero pads times and rejects entries with start after
// end. Absent entries are kept so the roster can be edited back later.
func NormalizeShifts(entries []models.ShiftEntry) ([]models.ShiftEntry, error) {
	out := make([]models.ShiftEntry, 0, len(entries))
	for i, entry := range entries {
		name := strings.TrimSpace(entry.Guard)
		if name == "" {
			return nil, invalid("shift %d: guard name required", i+1)
		}
		start, end, err := parseRange(fmt.Sprintf("shift %d", i+1), entry.Start, entry.End)
		if err != nil {
			return nil, err
		}
		if start > end {
			return nil, invalid("shift %d (%s): start %s is after end %s", i+1, name, entry.Start, entry.End)
		}
		entry.Guard = name
		entry.Start = clock.Format(start)
		entry.End = clock.Format(end)
		out = append(out, entry)
	}
	return out, nil
}

// NormalizeCoverage checks every station exists and every window is non-empty.
func NormalizeCoverage(rotation []string, coverage map[string][]models.CoverageWindow) (map[string][]models.CoverageWindow, error) {
	out := make(map[string][]models.CoverageWindow, len(coverage))
	for station, windows := range coverage {
		if !slices.Contains(rotation, station) {
			return nil, invalid("unknown station %q", station)
		}
		if len(windows) == 0 {
			continue
		}
		normalized := make([]models.CoverageWindow, len(windows))
		for i, w := range windows {
			start, end, err := parseRange(fmt.Sprintf("coverage %s", station), w.Start, w.End)
			if err != nil {
				return nil, err
			}
			if start >= end {
				return nil, invalid("coverage %s: window %s-%s is empty", station, w.Start, w.End)
			}
			normalized[i] = models.CoverageWindow{Start: clock.Format(start), End: clock.Format(end)}
		}
		out[station] = normalized
	}
	return out, nil
}
