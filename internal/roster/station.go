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

// StandbyPrefix names stations synthesized when guards outnumber stations.
const StandbyPrefix = "Standby"

// Interval is a wall-clock coverage window, start inclusive and end exclusive.
type Interval struct {
	Start string
	End   string
}

// Window is a coverage window in minutes since midnight.
type Window struct {
	Start int
	End   int
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t int) bool {
	return w.Start <= t && t < w.End
}

// Station is one duty position.
type Station struct {
	Name    string
	Windows []Window
	Standby bool
}

// OpenAt reports whether the station must be staffed at minute t.
func (s *Station) OpenAt(t int) bool {
	for _, w := range s.Windows {
		if w.Contains(t) {
			return true
		}
	}
	return false
}

// buildStations parses coverage for every station in the rotation. Stations without
// configured coverage are open for the whole schedule window.
func buildStations(rotation []string, coverage map[string][]Interval, schedule Window) (map[string]*Station, error) {
	stations := make(map[string]*Station, len(rotation))
	for _, name := range rotation {
		stations[name] = &Station{Name: name}
	}

	for name, intervals := range coverage {
		station, ok := stations[name]
		if !ok {
			return nil, fmt.Errorf("%w: coverage for %q", ErrUnknownStation, name)
		}
		for _, iv := range intervals {
			start, err := clock.Parse(iv.Start)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCoverage, name, err)
			}
			end, err := clock.Parse(iv.End)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCoverage, name, err)
			}
			if start >= end {
				return nil, fmt.Errorf("%w: %s %s-%s", ErrInvalidCoverage, name, iv.Start, iv.End)
			}
			station.Windows = append(station.Windows, Window{Start: start, End: end})
		}
	}

	for _, station := range stations {
		if len(station.Windows) == 0 {
			station.Windows = []Window{schedule}
		}
	}
	return stations, nil
}

func isStandbyName(name string) bool {
	return strings.HasPrefix(name, StandbyPrefix)
}
