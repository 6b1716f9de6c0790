/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/guardrota/internal/logging"
	"github.com/friendsincode/guardrota/internal/render"
	"github.com/friendsincode/guardrota/internal/roster"
	"github.com/friendsincode/guardrota/internal/rosterfile"
	"github.com/friendsincode/guardrota/internal/schedule"
)

var (
	generateRoster       string
	generateOut          string
	generateJSON         bool
	generateMaxLunchDrop int
	generateVerbose      bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build a schedule from a roster file",
	Long: `Build a schedule offline from a YAML roster file.

No database or server is needed. The workbook is written to --out; with
--json the schedule view is printed to stdout instead.

Examples:
  # Write schedule.xlsx from roster.yaml
  guardrota generate --roster roster.yaml

  # Print the schedule as JSON
  guardrota generate --roster roster.yaml --json

  # Cap how far lunch coverage may drop below the station count
  guardrota generate --roster roster.yaml --max-lunch-drop 2
`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateRoster, "roster", "r", "roster.yaml", "Roster file to read")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", render.FileName, "Workbook path to write")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Print the schedule as JSON instead of writing a workbook")
	generateCmd.Flags().IntVar(&generateMaxLunchDrop, "max-lunch-drop", 0, "Lunch coverage drop ceiling (0 = automatic)")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Log scheduler decisions")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	env := "production"
	if generateVerbose {
		env = "development"
	}
	log := logging.SetupWithWriter(env, os.Stderr)

	if generateMaxLunchDrop < 0 {
		return fmt.Errorf("--max-lunch-drop must not be negative")
	}

	f, err := rosterfile.Load(generateRoster)
	if err != nil {
		return err
	}

	if generateJSON {
		return writeScheduleJSON(cmd.Context(), f, generateMaxLunchDrop, cmd.OutOrStdout(), log)
	}

	data, err := buildWorkbook(cmd.Context(), f, generateMaxLunchDrop, log)
	if err != nil {
		return err
	}
	if err := os.WriteFile(generateOut, data, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	log.Info().Str("path", generateOut).Msg("workbook written")
	return nil
}

func buildResult(ctx context.Context, f *rosterfile.File, maxLunchDrop int, log zerolog.Logger) (*roster.Result, error) {
	rcfg, err := f.RosterConfig(maxLunchDrop)
	if err != nil {
		return nil, fmt.Errorf("invalid roster: %w", err)
	}
	res, err := schedule.Build(ctx, rcfg, log)
	if err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}
	if len(res.Anomalies) > 0 {
		log.Warn().Int("count", len(res.Anomalies)).Msg("schedule has rotation anomalies")
	}
	return res, nil
}

func buildWorkbook(ctx context.Context, f *rosterfile.File, maxLunchDrop int, log zerolog.Logger) ([]byte, error) {
	res, err := buildResult(ctx, f, maxLunchDrop, log)
	if err != nil {
		return nil, err
	}
	return render.Workbook(res)
}

func writeScheduleJSON(ctx context.Context, f *rosterfile.File, maxLunchDrop int, w io.Writer, log zerolog.Logger) error {
	res, err := buildResult(ctx, f, maxLunchDrop, log)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(render.NewView(res))
}
