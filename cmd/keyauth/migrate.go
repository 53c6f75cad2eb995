package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-keyauth/pkg/migrate"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
	Long: `Manage the PostgreSQL schema.

The connection is built from the IDM_PG_* environment variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'migrate' requires a subcommand (up, down, status, force)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := migrateUp(cfg.Database.ToDatabaseURL()); err != nil {
			fmt.Println("Migration failed:", err)
			os.Exit(1)
		}
		fmt.Println("Migrations applied")
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback database migrations",
	Long: `Rollback database migrations.

This command rolls back the specified number of migrations (default: 1).

Example:
  keyauth migrate down      # Rollback 1 migration
  keyauth migrate down 3    # Rollback 3 migrations`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				fmt.Fprintf(os.Stderr, "invalid step count %q\n", args[0])
				os.Exit(1)
			}
			steps = n
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := withMigrator(cfg.Database.ToDatabaseURL(), func(m *migrate.Migrator) error {
			return m.Down(steps)
		}); err != nil {
			fmt.Println("Rollback failed:", err)
			os.Exit(1)
		}
		fmt.Printf("Rolled back %d migration(s)\n", steps)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current migration version",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := withMigrator(cfg.Database.ToDatabaseURL(), func(m *migrate.Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Printf("Version: %d\nDirty: %t\n", version, dirty)
			return nil
		}); err != nil {
			fmt.Println("Failed to get status:", err)
			os.Exit(1)
		}
	},
}

var migrateForceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the migration version without running migrations",
	Long: `Set the migration version without running migrations.

Use this to clear the dirty flag after repairing a failed migration by hand.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid version %q\n", args[0])
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := withMigrator(cfg.Database.ToDatabaseURL(), func(m *migrate.Migrator) error {
			return m.Force(version)
		}); err != nil {
			fmt.Println("Force failed:", err)
			os.Exit(1)
		}
		fmt.Printf("Forced version %d\n", version)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateForceCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func migrateUp(databaseURL string) error {
	return withMigrator(databaseURL, func(m *migrate.Migrator) error {
		return m.Up()
	})
}

func withMigrator(databaseURL string, fn func(*migrate.Migrator) error) (err error) {
	m, err := migrate.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(m)
}
