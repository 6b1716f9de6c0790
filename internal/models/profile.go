/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// CoverageWindow is one wall-clock interval a station must be staffed.
type CoverageWindow struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// ShiftEntry is one stored roster line.
type ShiftEntry struct {
	Guard  string `json:"guard" yaml:"guard"`
	Start  string `json:"start" yaml:"start"`
	End    string `json:"end" yaml:"end"`
	Absent bool   `json:"absent,omitempty" yaml:"absent,omitempty"`
	// Lunch overrides the derived break requirement when set.
	Lunch *bool `json:"lunch,omitempty" yaml:"lunch,omitempty"`
}

// Profile stores one account's planning settings. Importance is kept in engine
// orientation: the head of the list is the first station to go unattended.
type Profile struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	ScheduleStart string `gorm:"type:varchar(5)" json:"schedule_start"`
	ScheduleEnd   string `gorm:"type:varchar(5)" json:"schedule_end"`
	LunchStart    string `gorm:"type:varchar(5)" json:"lunch_start"`
	LunchEnd      string `gorm:"type:varchar(5)" json:"lunch_end"`

	Rotation   []string                    `gorm:"type:text;serializer:json" json:"rotation"`
	Importance []string                    `gorm:"type:text;serializer:json" json:"importance"`
	Coverage   map[string][]CoverageWindow `gorm:"type:text;serializer:json" json:"coverage,omitempty"`
	Shifts     []ShiftEntry                `gorm:"type:text;serializer:json" json:"shifts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduleRun records one generated schedule.
type ScheduleRun struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID string `gorm:"type:uuid;index;not null" json:"profile_id"`
	UserID    string `gorm:"type:uuid;index" json:"user_id"`
	// Digest is the SHA-256 of the canonical input and keys the workbook cache.
	Digest     string    `gorm:"type:varchar(64);index" json:"digest"`
	Slots      int       `json:"slots"`
	Stations   int       `json:"stations"`
	Guards     int       `json:"guards"`
	Anomalies  int       `json:"anomalies"`
	LunchDrop  int       `json:"lunch_drop"`
	ObjectKey  string    `json:"object_key,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
