/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/friendsincode/guardrota/internal/rosterfile"
)

var rosterInitForce bool

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Work with YAML roster files",
}

var rosterInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the stock roster to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRosterInit,
}

var rosterCheckCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Validate a roster file without building a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRosterCheck,
}

func init() {
	rosterInitCmd.Flags().BoolVarP(&rosterInitForce, "force", "f", false, "Overwrite an existing file")
	rosterCmd.AddCommand(rosterInitCmd, rosterCheckCmd)
	rootCmd.AddCommand(rosterCmd)
}

func runRosterInit(cmd *cobra.Command, args []string) error {
	path := "roster.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if rosterInitForce {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		return err
	}
	if err := rosterfile.Encode(out, rosterfile.Default()); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func runRosterCheck(cmd *cobra.Command, args []string) error {
	f, err := rosterfile.Load(args[0])
	if err != nil {
		return err
	}
	p, err := f.Profile()
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d stations, %d shift entries)\n", args[0], len(p.Rotation), len(p.Shifts))
	return nil
}
