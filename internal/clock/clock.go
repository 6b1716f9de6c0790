/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package clock converts between wall-clock strings and minute offsets.
package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SlotMinutes is the width of one roster slot.
const SlotMinutes = 15

// MinutesPerDay bounds every offset handled by the roster.
const MinutesPerDay = 24 * 60

// ErrInvalidTime is returned for strings that are not HH:MM wall-clock times.
var ErrInvalidTime = errors.New("invalid wall-clock time")

// Parse converts "HH:MM" into minutes since midnight. "24:00" is accepted as the
// end of the day.
func Parse(value string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	if hours < 0 || hours > 24 || minutes < 0 || minutes > 59 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return hours*60 + minutes, nil
}

// digits reports whether s is all ASCII digits. Atoi alone would accept a sign.
func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(value string) int {
	minutes, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return minutes
}

// Format renders a minute offset as zero-padded 24-hour "HH:MM".
func Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Label renders a minute offset on a 12-hour clock without a leading zero
// ("13:15" becomes "1:15").
func Label(minutes int) string {
	hours := (minutes / 60) % 12
	if hours == 0 {
		hours = 12
	}
	return fmt.Sprintf("%d:%02d", hours, minutes%60)
}

// Slots returns the start of every slot in [start, end).
func Slots(start, end int) []int {
	if end <= start {
		return nil
	}
	out := make([]int, 0, (end-start+SlotMinutes-1)/SlotMinutes)
	for t := start; t < end; t += SlotMinutes {
		out = append(out, t)
	}
	return out
}
