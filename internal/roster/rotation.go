/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package roster

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/friendsincode/guardrota/internal/clock"
)

// rotationEngine builds the assignment grid one slot at a time. Each row depends on
// the committed state of the row before it.
type rotationEngine struct {
	guards   []*Guard
	order    *stationOrder
	stations map[string]*Station
	window   Window
	logger   zerolog.Logger

	rows [][]int
}

// build returns the grid with 0-based guard indexes and Unattended cells.
func (e *rotationEngine) build() [][]int {
	slots := clock.Slots(e.window.Start, e.window.End)
	e.rows = make([][]int, 0, len(slots))

	prevAvail, prevNum := e.availability(e.window.Start)
	prevState := make([]int, 0, prevNum)
	for i, ok := range prevAvail {
		if ok {
			prevState = append(prevState, i)
		}
	}

	for _, t := range slots {
		avail, num := e.availability(t)
		for num > e.order.size() {
			e.addStandby(t)
		}

		state := slices.Clone(prevState)
		if !slices.Equal(avail, prevAvail) {
			for i := range avail {
				if prevAvail[i] && !avail[i] {
					idx := indexOf(state, i)
					if idx < 0 {
						panic(fmt.Sprintf("roster: guard %d left at %s but holds no station", i, clock.Format(t)))
					}
					state[idx] = Unattended
				}
			}
			for i := range avail {
				if avail[i] && !prevAvail[i] {
					if idx := indexOf(state, Unattended); idx >= 0 {
						state[idx] = i
					}
				}
			}
		}

		switch {
		case num > prevNum:
			for i, ok := range avail {
				if ok && indexOf(state, i) < 0 {
					state = append(state, i)
				}
			}
		case num < prevNum:
			for {
				idx := indexOf(state, Unattended)
				if idx < 0 {
					break
				}
				state[idx] = state[len(state)-1]
				state = state[:len(state)-1]
			}
		}

		state = e.rotate(state)
		e.rows = append(e.rows, e.padRow(state))

		prevAvail = avail
		prevNum = num
		prevState = state
	}

	return e.rows
}

// rotate moves every occupied station one step along the rotation cycle. The
// occupant of the last occupied station wraps to the first; closed stations inside
// the run are stepped over and a leading run of closed stations is left alone.
func (e *rotationEngine) rotate(state []int) []int {
	physical := trimTrailingUnattended(e.order.toPhysical(state))

	lead := 0
	for lead < len(physical) && physical[lead] == Unattended {
		lead++
	}
	body := physical[lead:]
	if len(body) == 0 {
		return nil
	}

	last := body[len(body)-1]
	gap := 1
	for p := len(body) - 1; p > 0; {
		if body[p-gap] == Unattended {
			gap++
			continue
		}
		body[p] = body[p-gap]
		p -= gap
		gap = 1
	}
	body[0] = last

	return trimTrailingUnattended(e.order.toColumns(physical))
}

func (e *rotationEngine) availability(t int) ([]bool, int) {
	avail := make([]bool, len(e.guards))
	num := 0
	for i, g := range e.guards {
		if g.AvailableAt(t) {
			avail[i] = true
			num++
		}
	}
	return avail, num
}

// addStandby grows the station set by one and widens every written row to match.
func (e *rotationEngine) addStandby(t int) {
	name := e.order.addStandby()
	e.stations[name] = &Station{Name: name, Windows: []Window{e.window}, Standby: true}
	for i := range e.rows {
		e.rows[i] = append(e.rows[i], Unattended)
	}
	e.logger.Debug().Str("station", name).Str("at", clock.Format(t)).Msg("synthesized standby station")
}

func (e *rotationEngine) padRow(state []int) []int {
	width := e.order.size()
	if len(state) > width {
		panic(fmt.Sprintf("roster: row holds %d guards but only %d stations exist", len(state), width))
	}
	row := make([]int, width)
	copy(row, state)
	for j := len(state); j < width; j++ {
		row[j] = Unattended
	}
	return row
}
