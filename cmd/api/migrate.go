package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/topeberti/Polilingo/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Управление миграциями схемы",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Применить все новые миграции",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return database.MigrateDB(a.db, a.cfg.Database.MigrationsPath, a.log)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Откатить последние миграции (по умолчанию одну)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("steps must be a positive integer, got %q", args[0])
			}
			steps = n
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return database.RollbackDB(a.db, a.cfg.Database.MigrationsPath, steps, a.log)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Показать текущую версию схемы",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		version, dirty, err := database.MigrationVersion(a.db, a.cfg.Database.MigrationsPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %t\n", version, dirty)
		return nil
	},
}

var migrateForceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Принудительно установить версию схемы (снимает dirty после сбоя)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("version must be an integer, got %q", args[0])
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return database.ForceMigrationVersion(a.db, a.cfg.Database.MigrationsPath, version, a.log)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd, migrateForceCmd)
}
