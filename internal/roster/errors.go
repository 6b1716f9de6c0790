/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package roster

import "errors"

// Configuration errors. New returns these (wrapped) before any state is built.
var (
	ErrEmptyRotation         = errors.New("rotation cycle is empty")
	ErrDuplicateStation      = errors.New("duplicate station name")
	ErrImportanceMismatch    = errors.New("importance order is not a permutation of the rotation cycle")
	ErrUnknownStation        = errors.New("unknown station")
	ErrInvalidScheduleWindow = errors.New("schedule start must be before schedule end")
	ErrInvalidLunchWindow    = errors.New("lunch window start must be before lunch window end")
	ErrInvalidCoverage       = errors.New("invalid coverage window")
	ErrInvalidShift          = errors.New("invalid shift")
)

// ErrLunchNotConverged is returned when lunch planning exceeds its relaxation ceiling.
var ErrLunchNotConverged = errors.New("lunch planning did not converge")

// ErrSchedulerUsed is returned when Run is called a second time on the same Scheduler.
var ErrSchedulerUsed = errors.New("scheduler already ran")
