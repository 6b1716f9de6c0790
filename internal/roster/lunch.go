/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package roster

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/friendsincode/guardrota/internal/clock"
)

const lunchTicks = LunchMinutes / clock.SlotMinutes

// lunchPlanner places breaks by greedy capacity relaxation. Each pass sweeps the lunch
// window and hands out breaks wherever the on-shift surplus over needed stations,
// less the tolerated understaffing drop, is positive. A pass that leaves anyone
// without a break is discarded and retried with a larger drop.
type lunchPlanner struct {
	guards   []*Guard
	stations []*Station
	window   Window
	maxDrop  int
	logger   zerolog.Logger
}

// plan assigns breaks in place and returns the drop that finally succeeded.
func (p *lunchPlanner) plan() (int, error) {
	if p.window.Start >= p.window.End {
		return 0, ErrInvalidLunchWindow
	}

	eligible := make([]int, 0, len(p.guards))
	for i, g := range p.guards {
		if g.NeedsLunch && !g.Absent() {
			eligible = append(eligible, i)
		}
	}

	needed := make(map[int]int)
	for _, t := range clock.Slots(p.window.Start, p.window.End) {
		needed[t] = p.neededAt(t)
	}

	for drop := 0; drop <= p.maxDrop; drop++ {
		starts, ok := p.sweep(eligible, needed, drop)
		if !ok {
			p.logger.Debug().Int("drop", drop).Int("eligible", len(eligible)).Int("placed", len(starts)).Msg("lunch pass incomplete, relaxing")
			continue
		}
		for _, i := range eligible {
			p.guards[i].assignLunch(starts[i])
		}
		p.logger.Debug().Int("drop", drop).Int("breaks", len(eligible)).Msg("lunch breaks placed")
		return drop, nil
	}
	return 0, fmt.Errorf("%w: %d guards still need a break at drop %d", ErrLunchNotConverged, len(eligible), p.maxDrop)
}

// sweep runs one pass at a fixed drop. The returned map holds tentative break starts
// keyed by guard index; ok is true only when every eligible guard got one.
func (p *lunchPlanner) sweep(eligible []int, needed map[int]int, drop int) (map[int]int, bool) {
	pending := eligible
	starts := make(map[int]int, len(eligible))
	var onBreak []int

	for _, t := range clock.Slots(p.window.Start, p.window.End) {
		surplus := needed[t] - p.onShiftAt(t) - drop + len(onBreak)
		for surplus < 0 && len(pending) > 0 {
			starts[pending[0]] = t
			pending = pending[1:]
			onBreak = append(onBreak, lunchTicks)
			surplus++
		}

		remaining := onBreak[:0]
		for _, ticks := range onBreak {
			if ticks-1 > 0 {
				remaining = append(remaining, ticks-1)
			}
		}
		onBreak = remaining
	}
	return starts, len(pending) == 0
}

// neededAt counts stations open at any slot of the hour starting at t.
func (p *lunchPlanner) neededAt(t int) int {
	count := 0
	for _, s := range p.stations {
		for offset := 0; offset < LunchMinutes; offset += clock.SlotMinutes {
			if s.OpenAt(t + offset) {
				count++
				break
			}
		}
	}
	return count
}

func (p *lunchPlanner) onShiftAt(t int) int {
	count := 0
	for _, g := range p.guards {
		if g.OnShift(t) {
			count++
		}
	}
	return count
}
