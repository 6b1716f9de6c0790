/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package roster

import (
	"fmt"
	"slices"
)

// Unattended marks a grid cell with nobody assigned.
const Unattended = -1

// stationOrder holds the two orderings of the same station set: the rotation cycle
// (physical visiting order) and the importance order. Grid columns run over the
// importance order reversed, so column 0 is the last element of the importance list
// and the head of the importance list is the first column to lose its guard.
type stationOrder struct {
	rotation   []string
	importance []string
	position   map[string]int
	rank       map[string]int
	standby    []string
}

func newStationOrder(rotation, importance []string) (*stationOrder, error) {
	if len(rotation) == 0 {
		return nil, ErrEmptyRotation
	}
	seen := make(map[string]struct{}, len(rotation))
	for _, name := range rotation {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStation, name)
		}
		seen[name] = struct{}{}
	}
	if len(importance) != len(rotation) {
		return nil, fmt.Errorf("%w: %d stations ranked, %d in rotation", ErrImportanceMismatch, len(importance), len(rotation))
	}
	ranked := make(map[string]struct{}, len(importance))
	for _, name := range importance {
		if _, ok := seen[name]; !ok {
			return nil, fmt.Errorf("%w: %q is not in the rotation", ErrImportanceMismatch, name)
		}
		if _, dup := ranked[name]; dup {
			return nil, fmt.Errorf("%w: %q ranked twice", ErrImportanceMismatch, name)
		}
		ranked[name] = struct{}{}
	}

	o := &stationOrder{
		rotation:   slices.Clone(rotation),
		importance: slices.Clone(importance),
	}
	o.rebuild()
	return o, nil
}

// rebuild refreshes both index maps. The station sets must match after every mutation.
func (o *stationOrder) rebuild() {
	if len(o.rotation) != len(o.importance) {
		panic(fmt.Sprintf("roster: rotation has %d stations, importance has %d", len(o.rotation), len(o.importance)))
	}
	o.position = make(map[string]int, len(o.rotation))
	for i, name := range o.rotation {
		o.position[name] = i
	}
	o.rank = make(map[string]int, len(o.importance))
	for i, name := range o.importance {
		if _, ok := o.position[name]; !ok {
			panic(fmt.Sprintf("roster: station %q ranked but not in rotation", name))
		}
		o.rank[name] = i
	}
}

func (o *stationOrder) size() int {
	return len(o.rotation)
}

func (o *stationOrder) column(name string) int {
	rank, ok := o.rank[name]
	if !ok {
		panic(fmt.Sprintf("roster: station %q has no importance rank", name))
	}
	return len(o.importance) - 1 - rank
}

// columns returns the station name of every grid column.
func (o *stationOrder) columns() []string {
	out := slices.Clone(o.importance)
	slices.Reverse(out)
	return out
}

// addStandby synthesizes a standby station at the head of the importance order and
// the tail of the rotation, returning its name.
func (o *stationOrder) addStandby() string {
	k := 1
	for _, name := range o.rotation {
		if isStandbyName(name) {
			k++
		}
	}
	name := fmt.Sprintf("%s%d", StandbyPrefix, k)
	for {
		if _, taken := o.position[name]; !taken {
			break
		}
		k++
		name = fmt.Sprintf("%s%d", StandbyPrefix, k)
	}

	o.importance = slices.Insert(o.importance, 0, name)
	o.rotation = append(o.rotation, name)
	o.standby = append(o.standby, name)
	o.rebuild()
	return name
}

// toPhysical reinterprets a column-indexed vector in rotation order. Missing columns
// read as Unattended.
func (o *stationOrder) toPhysical(cols []int) []int {
	physical := make([]int, len(o.rotation))
	for p, name := range o.rotation {
		physical[p] = cellAt(cols, o.column(name))
	}
	return physical
}

// toColumns maps a rotation-ordered vector back into column order.
func (o *stationOrder) toColumns(physical []int) []int {
	cols := make([]int, len(o.importance))
	for j, name := range o.columns() {
		cols[j] = cellAt(physical, o.position[name])
	}
	return cols
}

func cellAt(v []int, i int) int {
	if i < len(v) {
		return v[i]
	}
	return Unattended
}

func trimTrailingUnattended(v []int) []int {
	for len(v) > 0 && v[len(v)-1] == Unattended {
		v = v[:len(v)-1]
	}
	return v
}

// indexOf is a linear scan; callers decide what a miss means.
func indexOf(v []int, target int) int {
	for i, x := range v {
		if x == target {
			return i
		}
	}
	return -1
}
