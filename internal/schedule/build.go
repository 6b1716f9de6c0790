/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/friendsincode/guardrota/internal/clock"
	"github.com/friendsincode/guardrota/internal/roster"
	"github.com/friendsincode/guardrota/internal/telemetry"
)

// Build runs the roster engine once under a span and records build metrics.
func Build(ctx context.Context, cfg roster.Config, logger zerolog.Logger) (res *roster.Result, err error) {
	_, span := telemetry.StartSpan(ctx, "roster.build",
		attribute.Int("roster.stations", len(cfg.Rotation)),
		attribute.Int("roster.shifts", len(cfg.Shifts)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	started := time.Now()
	sched, err := roster.New(cfg, roster.WithLogger(logger))
	if err != nil {
		telemetry.SchedulesGeneratedTotal.WithLabelValues(outcomeFor(err)).Inc()
		return nil, err
	}
	res, err = sched.Run()
	telemetry.ScheduleBuildDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		telemetry.SchedulesGeneratedTotal.WithLabelValues(outcomeFor(err)).Inc()
		return nil, err
	}

	telemetry.SchedulesGeneratedTotal.WithLabelValues("success").Inc()
	telemetry.ScheduleAnomalies.Observe(float64(len(res.Anomalies)))
	telemetry.ScheduleLunchDrop.Observe(float64(res.LunchDrop))
	telemetry.StandbyStationsTotal.Add(float64(len(res.Standby)))

	span.SetAttributes(
		attribute.Int("roster.slots", len(res.Slots)),
		attribute.Int("roster.anomalies", len(res.Anomalies)),
		attribute.Int("roster.lunch_drop", res.LunchDrop),
	)
	return res, nil
}

// IsInputError reports whether err comes from a bad configuration rather than a fault.
func IsInputError(err error) bool {
	for _, target := range []error{
		roster.ErrEmptyRotation,
		roster.ErrDuplicateStation,
		roster.ErrImportanceMismatch,
		roster.ErrUnknownStation,
		roster.ErrInvalidScheduleWindow,
		roster.ErrInvalidLunchWindow,
		roster.ErrInvalidCoverage,
		roster.ErrInvalidShift,
		roster.ErrLunchNotConverged,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return errors.Is(err, clock.ErrInvalidTime)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, roster.ErrLunchNotConverged):
		return "lunch_not_converged"
	case IsInputError(err):
		return "invalid"
	default:
		return "error"
	}
}

// Digest hashes the canonical JSON form of cfg. Map keys are sorted by encoding/json,
// so equal configurations always hash the same.
func Digest(cfg roster.Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
