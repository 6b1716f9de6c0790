/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package profile

import (
	"slices"

	"github.com/friendsincode/guardrota/internal/models"
	"github.com/friendsincode/guardrota/internal/roster"
)

// RosterConfig converts a stored profile into engine input.
func RosterConfig(p *models.Profile, maxLunchDrop int) roster.Config {
	cfg := roster.Config{
		ScheduleStart: p.ScheduleStart,
		ScheduleEnd:   p.ScheduleEnd,
		LunchStart:    p.LunchStart,
		LunchEnd:      p.LunchEnd,
		Rotation:      slices.Clone(p.Rotation),
		Importance:    slices.Clone(p.Importance),
		MaxLunchDrop:  maxLunchDrop,
	}
	if len(p.Coverage) > 0 {
		cfg.Coverage = make(map[string][]roster.Interval, len(p.Coverage))
		for station, windows := range p.Coverage {
			intervals := make([]roster.Interval, len(windows))
			for i, w := range windows {
				intervals[i] = roster.Interval{Start: w.Start, End: w.End}
			}
			cfg.Coverage[station] = intervals
		}
	}
	cfg.Shifts = make([]roster.Shift, len(p.Shifts))
	for i, entry := range p.Shifts {
		cfg.Shifts[i] = roster.Shift{
			Guard:  entry.Guard,
			Start:  entry.Start,
			End:    entry.End,
			Absent: entry.Absent,
			Lunch:  entry.Lunch,
		}
	}
	return cfg
}
