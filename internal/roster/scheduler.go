/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package roster assigns guards to duty stations over fixed 15-minute slots. Lunch
// breaks are placed first, then a per-slot rotation fills the grid, and finally the
// grid is checked for moves that break the rotation order.
package roster

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/friendsincode/guardrota/internal/clock"
)

// Config is the full input of one roster run.
type Config struct {
	ScheduleStart string
	ScheduleEnd   string
	LunchStart    string
	LunchEnd      string

	// Rotation is the physical order guards walk through the stations.
	Rotation []string
	// Importance ranks the same stations. The head of the list is the first to go
	// unattended when guards run short and the tail is the last.
	Importance []string
	// Coverage lists when each station must be staffed. Stations missing here are
	// open for the whole schedule.
	Coverage map[string][]Interval
	Shifts   []Shift

	// MaxLunchDrop caps lunch relaxation. Zero selects guards+stations+1, which is
	// always enough to place every break in a non-empty lunch window.
	MaxLunchDrop int
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for planning diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger.With().Str("component", "roster").Logger()
	}
}

// Scheduler runs one configuration exactly once. Build a new one per run.
type Scheduler struct {
	guards   []*Guard
	stations map[string]*Station
	order    *stationOrder
	schedule Window
	lunch    Window
	maxDrop  int
	logger   zerolog.Logger
	ran      bool
}

// New validates cfg and prepares guards and stations.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	start, err := clock.Parse(cfg.ScheduleStart)
	if err != nil {
		return nil, fmt.Errorf("schedule start: %w", err)
	}
	end, err := clock.Parse(cfg.ScheduleEnd)
	if err != nil {
		return nil, fmt.Errorf("schedule end: %w", err)
	}
	if start >= end {
		return nil, fmt.Errorf("%w: %s-%s", ErrInvalidScheduleWindow, cfg.ScheduleStart, cfg.ScheduleEnd)
	}
	lunchStart, err := clock.Parse(cfg.LunchStart)
	if err != nil {
		return nil, fmt.Errorf("lunch start: %w", err)
	}
	lunchEnd, err := clock.Parse(cfg.LunchEnd)
	if err != nil {
		return nil, fmt.Errorf("lunch end: %w", err)
	}
	if lunchStart >= lunchEnd {
		return nil, fmt.Errorf("%w: %s-%s", ErrInvalidLunchWindow, cfg.LunchStart, cfg.LunchEnd)
	}

	order, err := newStationOrder(cfg.Rotation, cfg.Importance)
	if err != nil {
		return nil, err
	}
	schedule := Window{Start: start, End: end}
	stations, err := buildStations(cfg.Rotation, cfg.Coverage, schedule)
	if err != nil {
		return nil, err
	}
	guards, err := coalesceShifts(cfg.Shifts)
	if err != nil {
		return nil, err
	}

	maxDrop := cfg.MaxLunchDrop
	if maxDrop <= 0 {
		maxDrop = len(guards) + len(stations) + 1
	}

	s := &Scheduler{
		guards:   guards,
		stations: stations,
		order:    order,
		schedule: schedule,
		lunch:    Window{Start: lunchStart, End: lunchEnd},
		maxDrop:  maxDrop,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Guards returns copies of the coalesced guards in roster order.
func (s *Scheduler) Guards() []Guard {
	out := make([]Guard, len(s.guards))
	for i, g := range s.guards {
		out[i] = *g
	}
	return out
}

// Run places lunch breaks, builds the grid and detects anomalies.
func (s *Scheduler) Run() (*Result, error) {
	if s.ran {
		return nil, ErrSchedulerUsed
	}
	s.ran = true

	planner := &lunchPlanner{
		guards:   s.guards,
		stations: s.importanceStations(),
		window:   s.lunch,
		maxDrop:  s.maxDrop,
		logger:   s.logger,
	}
	drop, err := planner.plan()
	if err != nil {
		return nil, err
	}

	engine := &rotationEngine{
		guards:   s.guards,
		order:    s.order,
		stations: s.stations,
		window:   s.schedule,
		logger:   s.logger,
	}
	grid := engine.build()
	for _, row := range grid {
		if len(row) != s.order.size() {
			panic(fmt.Sprintf("roster: grid row has %d cells, want %d", len(row), s.order.size()))
		}
		for j, cell := range row {
			if cell != Unattended {
				row[j] = cell + 1
			}
		}
	}

	res := &Result{
		Start:      s.schedule.Start,
		End:        s.schedule.End,
		Slots:      clock.Slots(s.schedule.Start, s.schedule.End),
		Rotation:   slices.Clone(s.order.rotation),
		Importance: slices.Clone(s.order.importance),
		Columns:    s.order.columns(),
		Standby:    slices.Clone(s.order.standby),
		Grid:       grid,
		Guards:     make([]Guard, len(s.guards)),
		LunchDrop:  drop,
	}
	for i, g := range s.guards {
		res.Guards[i] = *g
	}
	res.Anomalies = DetectAnomalies(res.Grid, res.Columns, res.Rotation)

	s.logger.Debug().
		Int("slots", len(res.Slots)).
		Int("stations", len(res.Rotation)).
		Int("anomalies", len(res.Anomalies)).
		Int("lunch_drop", drop).
		Msg("roster built")
	return res, nil
}

func (s *Scheduler) importanceStations() []*Station {
	out := make([]*Station, 0, len(s.order.importance))
	for _, name := range s.order.importance {
		out = append(out, s.stations[name])
	}
	return out
}

// Result is the output handed to renderers.
type Result struct {
	Start int
	End   int
	Slots []int

	// Rotation and Importance include any synthesized standby stations.
	Rotation   []string
	Importance []string
	// Columns names the station of each grid column: Importance reversed.
	Columns []string
	// Standby lists synthesized stations in creation order.
	Standby []string

	// Grid has one row per slot. Cells hold 1-based guard numbers indexing Guards,
	// or Unattended.
	Grid   [][]int
	Guards []Guard

	Anomalies []Cell
	LunchDrop int
}

// StationView returns rows per station in rotation order, one cell per slot.
func (r *Result) StationView() [][]int {
	return StationView(r.Grid, r.Columns, r.Rotation)
}

// GuardName resolves a 1-based guard number from the grid.
func (r *Result) GuardName(number int) string {
	if number < 1 || number > len(r.Guards) {
		return ""
	}
	return r.Guards[number-1].Name
}
