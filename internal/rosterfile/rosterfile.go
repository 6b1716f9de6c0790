/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package rosterfile reads and writes YAML roster files for offline runs.
package rosterfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/guardrota/internal/db"
	"github.com/friendsincode/guardrota/internal/models"
	"github.com/friendsincode/guardrota/internal/profile"
	"github.com/friendsincode/guardrota/internal/roster"
)

// Window is a wall-clock range.
type Window struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// File is the on-disk roster layout. Ranking lists stations most important first and
// defaults to the rotation order.
type File struct {
	Schedule     Window                             `yaml:"schedule"`
	Lunch        Window                             `yaml:"lunch"`
	Rotation     []string                           `yaml:"rotation"`
	Ranking      []string                           `yaml:"ranking,omitempty"`
	Coverage     map[string][]models.CoverageWindow `yaml:"coverage,omitempty"`
	Shifts       []models.ShiftEntry                `yaml:"shifts"`
	MaxLunchDrop int                                `yaml:"max_lunch_drop,omitempty"`
}

// Load reads a roster file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a roster file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse roster file: empty document")
		}
		return nil, fmt.Errorf("parse roster file: %w", err)
	}
	if f.MaxLunchDrop < 0 {
		return nil, fmt.Errorf("parse roster file: max_lunch_drop must not be negative")
	}
	return &f, nil
}

// Encode writes f as YAML.
func Encode(w io.Writer, f *File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode roster file: %w", err)
	}
	return enc.Close()
}

// Default returns the stock roster used to seed new profiles.
func Default() *File {
	return FromProfile(db.DefaultProfile(""))
}

// FromProfile exports a stored profile.
func FromProfile(p *models.Profile) *File {
	return &File{
		Schedule: Window{Start: p.ScheduleStart, End: p.ScheduleEnd},
		Lunch:    Window{Start: p.LunchStart, End: p.LunchEnd},
		Rotation: slices.Clone(p.Rotation),
		Ranking:  profile.RankingFromImportance(p.Importance),
		Coverage: p.Coverage,
		Shifts:   slices.Clone(p.Shifts),
	}
}

// Profile validates the file the same way profile edits are validated.
func (f *File) Profile() (*models.Profile, error) {
	windows, err := profile.NormalizeWindows(profile.Windows{
		ScheduleStart: f.Schedule.Start,
		ScheduleEnd:   f.Schedule.End,
		LunchStart:    f.Lunch.Start,
		LunchEnd:      f.Lunch.End,
	})
	if err != nil {
		return nil, err
	}

	edits := make([]profile.StationEdit, len(f.Rotation))
	for i, name := range f.Rotation {
		edits[i] = profile.StationEdit{Name: name}
	}
	layout, err := profile.ApplyRotationEdits(profile.Layout{}, edits)
	if err != nil {
		return nil, err
	}

	ranking := f.Ranking
	if len(ranking) == 0 {
		ranking = layout.Rotation
	}
	importance, err := profile.ImportanceFromRanking(ranking, layout.Rotation)
	if err != nil {
		return nil, err
	}
	coverage, err := profile.NormalizeCoverage(layout.Rotation, f.Coverage)
	if err != nil {
		return nil, err
	}
	shifts, err := profile.NormalizeShifts(f.Shifts)
	if err != nil {
		return nil, err
	}

	return &models.Profile{
		ScheduleStart: windows.ScheduleStart,
		ScheduleEnd:   windows.ScheduleEnd,
		LunchStart:    windows.LunchStart,
		LunchEnd:      windows.LunchEnd,
		Rotation:      layout.Rotation,
		Importance:    importance,
		Coverage:      coverage,
		Shifts:        shifts,
	}, nil
}

// RosterConfig validates the file and converts it to engine input. maxLunchDrop is
// used when the file does not set its own ceiling.
func (f *File) RosterConfig(maxLunchDrop int) (roster.Config, error) {
	p, err := f.Profile()
	if err != nil {
		return roster.Config{}, err
	}
	if f.MaxLunchDrop > 0 {
		maxLunchDrop = f.MaxLunchDrop
	}
	return profile.RosterConfig(p, maxLunchDrop), nil
}
