package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	_ "github.com/mokkiwahti/mokkiwahti-core/migrations"
)

func newMigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or roll back schema migrations on the configured SQLite database.

Examples:
  mokkiwahti migrate up
  mokkiwahti migrate down
  mokkiwahti migrate status`,
	}
	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  runMigrateUp,
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE:  runMigrateDown,
		},
		&cobra.Command{
			Use:   "status",
			Short: "List applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE:  runMigrateStatus,
		},
	)
	return migrate
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.Migrate(cmd.Context())
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(applied) == 0 {
		fmt.Fprintln(out, color.New(color.Faint).Sprint("database is up to date"))
		return nil
	}
	for _, v := range applied {
		fmt.Fprintf(out, "%s %s\n", color.GreenString("applied"), v)
	}
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reverted, err := db.MigrateDown(cmd.Context())
	if err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}

	out := cmd.OutOrStdout()
	if reverted == "" {
		fmt.Fprintln(out, color.New(color.Faint).Sprint("no migrations applied"))
		return nil
	}
	fmt.Fprintf(out, "%s %s\n", color.YellowString("reverted"), reverted)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, pending, err := db.MigrationStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, a := range applied {
		fmt.Fprintf(out, "%s %s %s\n", color.GreenString("applied"), a.Version,
			color.New(color.Faint).Sprint(a.AppliedAt.Format("2006-01-02 15:04")))
	}
	for _, m := range pending {
		fmt.Fprintf(out, "%s %s_%s\n", color.YellowString("pending"), m.Version, m.Name)
	}
	return nil
}
