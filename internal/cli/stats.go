package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/cypher/internal/backup"
	"github.com/mrlokans/cypher/internal/config"
	"github.com/mrlokans/cypher/internal/database/goals"
	"github.com/mrlokans/cypher/internal/preferences"
)

// StatsCommand prints row counts, goal progress and the timer preference.
type StatsCommand struct {
	DatabasePath    string
	PreferencesPath string
}

func NewStatsCommand() *StatsCommand {
	return &StatsCommand{}
}

func (cmd *StatsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database")
	fs.StringVar(&cmd.PreferencesPath, "prefs", config.DefaultPreferencesPath, "Path to the preferences file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s stats [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show catalog size, goal progress and the timer preference.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *StatsCommand) Run() error {
	return cmd.run(context.Background())
}

func (cmd *StatsCommand) run(ctx context.Context) error {
	db, err := openDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := db.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}

	fmt.Println("=== Catalog ===")
	printCounts(backup.Counts(counts).ByName())

	active, err := goals.NewRepository(db.DB, db.Changes).ListGoals(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to list goals: %w", err)
	}
	if len(active) > 0 {
		fmt.Println("\n=== Active goals ===")
		for _, g := range active {
			fmt.Printf("  %-28s %3.0f%%\n", g.Title, g.Progress()*100)
		}
	}

	prefs, err := preferences.Open(cmd.PreferencesPath)
	if err != nil {
		return fmt.Errorf("failed to read preferences: %w", err)
	}
	info := prefs.TimerInfo()
	fmt.Printf("\nTimer: %ds (%s)\n", info.Seconds, info.Source)
	return nil
}
