package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/nerrad567/meterlink/internal/infrastructure/config"
	"github.com/nerrad567/meterlink/internal/infrastructure/database"
)

const migrateUsage = "usage: meterlink migrate up|status|down"

// migrate runs one schema command against the configured database:
// "up" applies pending migrations, "status" lists them, "down" reverts the
// latest one.
func migrate(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New(migrateUsage)
	}
	cmd := args[0]
	if cmd != "up" && cmd != "status" && cmd != "down" {
		return fmt.Errorf("unknown migrate command %q; %s", cmd, migrateUsage)
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-mostly command

	switch cmd {
	case "up":
		applied, err := db.Migrate(ctx)
		for _, m := range applied {
			fmt.Fprintf(out, "applied %s %s\n", m.Version, m.Name)
		}
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(out, "schema is up to date")
		}
		return nil

	case "down":
		m, err := db.Rollback(ctx)
		if errors.Is(err, database.ErrNothingToRollback) {
			fmt.Fprintln(out, "nothing to roll back")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "rolled back %s %s\n", m.Version, m.Name)
		return nil

	default:
		states, err := db.MigrationStatus(ctx)
		if err != nil {
			return err
		}
		return printMigrationStatus(out, states)
	}
}

func printMigrationStatus(out io.Writer, states []database.MigrationState) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
	for _, s := range states {
		applied := "pending"
		if s.Applied() {
			applied = s.AppliedAt.Format(time.RFC3339)
		}
		name := s.Name
		if name == "" {
			name = "(missing)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Version, name, applied)
	}
	return tw.Flush()
}
