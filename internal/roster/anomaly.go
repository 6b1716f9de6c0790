/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package roster

import (
	"fmt"
	"slices"
)

// Cell addresses one assignment in station-major form: Station is the index in the
// rotation cycle and Slot the time-slot index.
type Cell struct {
	Station int `json:"station"`
	Slot    int `json:"slot"`
}

// StationView transposes a column-ordered grid into rows per station in rotation
// order, one value per slot.
func StationView(grid [][]int, columns, rotation []string) [][]int {
	colOf := make(map[string]int, len(columns))
	for j, name := range columns {
		colOf[name] = j
	}

	view := make([][]int, len(rotation))
	for s, name := range rotation {
		j, ok := colOf[name]
		if !ok {
			panic(fmt.Sprintf("roster: station %q has no grid column", name))
		}
		view[s] = make([]int, len(grid))
		for slot, row := range grid {
			view[s][slot] = cellAt(row, j)
		}
	}
	return view
}

// DetectAnomalies flags guard moves between adjacent slots that do not land on the
// next staffed station along the rotation cycle. Both the departure and arrival
// cells are flagged. Passing over closed stations is not an anomaly.
func DetectAnomalies(grid [][]int, columns, rotation []string) []Cell {
	return detectAnomalies(StationView(grid, columns, rotation))
}

func detectAnomalies(view [][]int) []Cell {
	n := len(view)
	if n == 0 {
		return nil
	}
	slots := len(view[0])

	flagged := make(map[Cell]struct{})
	for slot := 0; slot+1 < slots; slot++ {
		current := staffedAt(view, slot)
		next := staffedAt(view, slot+1)

		for guard, from := range current {
			to, ok := next[guard]
			if !ok {
				continue
			}
			expected := -1
			for offset := 1; offset < n; offset++ {
				candidate := (from + offset) % n
				if view[candidate][slot+1] != Unattended {
					expected = candidate
					break
				}
			}
			if expected >= 0 && to != expected {
				flagged[Cell{Station: from, Slot: slot}] = struct{}{}
				flagged[Cell{Station: to, Slot: slot + 1}] = struct{}{}
			}
		}
	}

	cells := make([]Cell, 0, len(flagged))
	for c := range flagged {
		cells = append(cells, c)
	}
	slices.SortFunc(cells, func(a, b Cell) int {
		if a.Slot != b.Slot {
			return a.Slot - b.Slot
		}
		return a.Station - b.Station
	})
	return cells
}

func staffedAt(view [][]int, slot int) map[int]int {
	out := make(map[int]int, len(view))
	for s := range view {
		if g := view[s][slot]; g != Unattended {
			out[g] = s
		}
	}
	return out
}
