/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package roster

import (
	"fmt"
	"strings"

	"github.com/friendsincode/guardrota/internal/clock"
)

const (
	// LunchThresholdMinutes is the shift length a guard must exceed to need a break.
	LunchThresholdMinutes = 8 * 60
	// LunchMinutes is the length of every lunch break.
	LunchMinutes = 60
)

// Shift is one raw roster entry. The same guard may appear in several entries.
type Shift struct {
	Guard string
	Start string
	End   string
	// Absent marks a guard who is not coming in at all.
	Absent bool
	// Lunch overrides the derived break requirement when set.
	Lunch *bool
}

// Guard is one person on the roster with a shift window and an optional break.
type Guard struct {
	Name       string
	Start      int
	End        int
	NeedsLunch bool
	LunchStart int
	LunchEnd   int
}

func newGuard(name string, start, end int) *Guard {
	g := &Guard{Name: name, Start: start, End: end}
	g.refreshLunchNeed()
	return g
}

func (g *Guard) refreshLunchNeed() {
	g.NeedsLunch = g.End-g.Start > LunchThresholdMinutes
}

// Absent reports whether the guard has a zero-length window and can never be available.
func (g *Guard) Absent() bool {
	return g.Start == g.End
}

// OnShift reports whether t falls inside the shift window, ignoring any break.
func (g *Guard) OnShift(t int) bool {
	return g.Start <= t && t < g.End
}

// OnLunch reports whether t falls inside the assigned break.
func (g *Guard) OnLunch(t int) bool {
	return g.LunchStart <= t && t < g.LunchEnd
}

// AvailableAt reports whether the guard can staff a station at minute t.
func (g *Guard) AvailableAt(t int) bool {
	return g.OnShift(t) && !g.OnLunch(t)
}

// HasLunch reports whether a break has been assigned.
func (g *Guard) HasLunch() bool {
	return g.LunchEnd > g.LunchStart
}

func (g *Guard) assignLunch(start int) {
	g.LunchStart = start
	g.LunchEnd = start + LunchMinutes
}

// coalesceShifts builds one guard per distinct name, in first-seen order. Entries for
// the same name merge to the earliest start and latest end. Absent entries only count
// when a guard has no present entry, in which case the guard gets a zero-length window.
func coalesceShifts(shifts []Shift) ([]*Guard, error) {
	guards := make([]*Guard, 0, len(shifts))
	byName := make(map[string]*Guard, len(shifts))
	present := make(map[string]bool, len(shifts))
	overrides := make(map[string]*bool, len(shifts))

	for i, shift := range shifts {
		name := strings.TrimSpace(shift.Guard)
		if name == "" {
			return nil, fmt.Errorf("%w: entry %d has no guard name", ErrInvalidShift, i)
		}
		start, err := clock.Parse(shift.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: %s start: %w", ErrInvalidShift, name, err)
		}
		end, err := clock.Parse(shift.End)
		if err != nil {
			return nil, fmt.Errorf("%w: %s end: %w", ErrInvalidShift, name, err)
		}
		if start > end {
			return nil, fmt.Errorf("%w: %s starts after it ends", ErrInvalidShift, name)
		}
		if shift.Lunch != nil {
			overrides[name] = shift.Lunch
		}

		existing, seen := byName[name]
		if !seen {
			g := newGuard(name, 0, 0)
			if !shift.Absent {
				g.Start, g.End = start, end
				g.refreshLunchNeed()
				present[name] = true
			}
			byName[name] = g
			guards = append(guards, g)
			continue
		}
		if shift.Absent {
			continue
		}
		if !present[name] {
			existing.Start, existing.End = start, end
			present[name] = true
		} else {
			existing.Start = min(existing.Start, start)
			existing.End = max(existing.End, end)
		}
		existing.refreshLunchNeed()
	}

	for _, g := range guards {
		if g.Absent() {
			g.NeedsLunch = false
			continue
		}
		if override, ok := overrides[g.Name]; ok {
			g.NeedsLunch = *override
		}
	}
	return guards, nil
}
