/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/friendsincode/guardrota/internal/auth"
	"github.com/friendsincode/guardrota/internal/db"
	"github.com/friendsincode/guardrota/internal/models"
)

var (
	userEmail    string
	userPassword string
	userRole     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account with the stock profile",
	Long: `Create an account and seed it with the stock station layout and sample roster.

The password may also be supplied through GUARDROTA_USER_PASSWORD so it does
not end up in shell history.

Examples:
  guardrota user add --email admin@example.com --password s3cret --role admin
  GUARDROTA_USER_PASSWORD=s3cret guardrota user add --email viewer@example.com --role viewer
`,
	RunE: runUserAdd,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the first admin account with the stock profile",
	Long: `Bootstrap a fresh database with an admin account.

Equivalent to "user add --role admin".

Examples:
  guardrota seed --email admin@example.com --password s3cret
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userRole = string(models.RoleAdmin)
		return runUserAdd(cmd, args)
	},
}

func init() {
	seedCmd.Flags().StringVar(&userEmail, "email", "", "Admin email (required)")
	seedCmd.Flags().StringVar(&userPassword, "password", "", "Admin password")
	_ = seedCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(seedCmd)

	userAddCmd.Flags().StringVar(&userEmail, "email", "", "Account email (required)")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "Account password")
	userAddCmd.Flags().StringVar(&userRole, "role", string(models.RoleAdmin), "Role: admin, manager or viewer")
	_ = userAddCmd.MarkFlagRequired("email")
	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	password := userPassword
	if password == "" {
		password = os.Getenv("GUARDROTA_USER_PASSWORD")
	}
	if password == "" {
		return fmt.Errorf("a password is required (--password or GUARDROTA_USER_PASSWORD)")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	user, profile, err := db.Seed(cmd.Context(), database, db.SeedUser{
		Email:        userEmail,
		PasswordHash: hash,
		Role:         models.NormalizeRole(userRole),
	})
	if errors.Is(err, db.ErrUserExists) {
		return fmt.Errorf("%s is already registered", userEmail)
	}
	if err != nil {
		return err
	}

	logger.Info().
		Str("user_id", user.ID).
		Str("profile_id", profile.ID).
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("account created")
	return nil
}
