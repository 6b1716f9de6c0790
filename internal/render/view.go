/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package render turns a roster result into the station-by-time tables people read:
// an XLSX workbook and a JSON view.
package render

import (
	"slices"

	"github.com/friendsincode/guardrota/internal/clock"
	"github.com/friendsincode/guardrota/internal/roster"
)

// View is the JSON form of a schedule. Stations are listed in rotation order and each
// cell holds a 1-based guard number, 0 when unattended.
type View struct {
	Start     string        `json:"start"`
	End       string        `json:"end"`
	Times     []string      `json:"times"`
	Stations  []StationRow  `json:"stations"`
	Guards    []GuardRow    `json:"guards"`
	Lunches   []LunchRow    `json:"lunches"`
	Anomalies []roster.Cell `json:"anomalies"`
	LunchDrop int           `json:"lunch_drop"`
}

// StationRow is one station across the day.
type StationRow struct {
	Name    string `json:"name"`
	Standby bool   `json:"standby,omitempty"`
	Cells   []int  `json:"cells"`
}

// GuardRow describes a guard number.
type GuardRow struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Absent bool   `json:"absent,omitempty"`
}

// LunchRow is one assigned break.
type LunchRow struct {
	Guard string `json:"guard"`
	Start string `json:"start"`
	Label string `json:"label"`
}

// NewView builds the JSON view of res.
func NewView(res *roster.Result) *View {
	v := &View{
		Start:     clock.Format(res.Start),
		End:       clock.Format(res.End),
		Times:     timeLabels(res.Slots),
		Anomalies: slices.Clone(res.Anomalies),
		LunchDrop: res.LunchDrop,
	}
	if v.Anomalies == nil {
		v.Anomalies = []roster.Cell{}
	}

	stationRows := res.StationView()
	v.Stations = make([]StationRow, len(res.Rotation))
	for i, name := range res.Rotation {
		cells := make([]int, len(res.Slots))
		for slot := range cells {
			if g := stationRows[i][slot]; g != roster.Unattended {
				cells[slot] = g
			}
		}
		v.Stations[i] = StationRow{
			Name:    name,
			Standby: slices.Contains(res.Standby, name),
			Cells:   cells,
		}
	}

	v.Guards = make([]GuardRow, len(res.Guards))
	for i, g := range res.Guards {
		v.Guards[i] = GuardRow{
			Number: i + 1,
			Name:   g.Name,
			Start:  clock.Format(g.Start),
			End:    clock.Format(g.End),
			Absent: g.Absent(),
		}
	}
	v.Lunches = lunchRows(res.Guards)
	return v
}

func timeLabels(slots []int) []string {
	out := make([]string, len(slots))
	for i, t := range slots {
		out[i] = clock.Label(t)
	}
	return out
}

func lunchRows(guards []roster.Guard) []LunchRow {
	out := []LunchRow{}
	for _, g := range guards {
		if !g.HasLunch() {
			continue
		}
		out = append(out, LunchRow{
			Guard: g.Name,
			Start: clock.Format(g.LunchStart),
			Label: clock.Label(g.LunchStart),
		})
	}
	return out
}
