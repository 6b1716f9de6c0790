/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version reports the build version.
package version

import "fmt"

// Version is the current version of guardrota.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/guardrota/internal/version.Version=X.Y.Z
var Version = "0.4.0"

// Commit is the short git revision, also set via ldflags.
var Commit = ""

// String formats the version for the CLI and the health endpoint.
func String() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
