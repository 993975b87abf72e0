package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Strob0t/ContentForge/internal/adapter/postgres"
	"github.com/Strob0t/ContentForge/internal/config"
)

// runMigrate dispatches migrate subcommands (up, down, version).
func runMigrate(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printMigrateHelp()
		return nil
	}

	fs := flag.NewFlagSet("migrate "+args[0], flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back (down only)")
	configPath := fs.String("config", config.DefaultConfigFile, "path to YAML config file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()

	switch args[0] {
	case "up":
		return postgres.RunMigrations(ctx, cfg.Postgres.DSN)
	case "down":
		if *steps < 1 {
			return fmt.Errorf("--steps must be >= 1")
		}
		return postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, *steps)
	case "version":
		v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	default:
		printMigrateHelp()
		return fmt.Errorf("unknown migrate command: %s", args[0])
	}
}

func printMigrateHelp() {
	fmt.Fprintf(os.Stderr, `Usage: contentforge migrate <command> [options]

Commands:
  up        Apply all pending migrations
  down      Roll back migrations (--steps N, default 1)
  version   Print the current schema version
  help      Show this help message
`)
}
