package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mrlokans/cypher/internal/backup"
	"github.com/mrlokans/cypher/internal/config"
	"github.com/mrlokans/cypher/internal/database"
)

// ExportCommand writes the whole catalog to a snapshot file.
type ExportCommand struct {
	DatabasePath string
	OutputPath   string
	Format       string
	Passphrase   string
	Verbose      bool
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	fs.StringVar(&cmd.OutputPath, "o", "", "Path of the snapshot file to write (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database")
	fs.StringVar(&cmd.Format, "format", "json", "Snapshot format: json or yaml")
	fs.StringVar(&cmd.Passphrase, "passphrase", os.Getenv("BACKUP_PASSPHRASE"), "Seal the snapshot with this passphrase")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print row counts per table")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export -o <file> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export every move, combo, battle combo and goal to a snapshot file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s export -o catalog.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s export -o catalog.yaml -format yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s export -o catalog.json.sealed -passphrase secret\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.OutputPath == "" {
		return fmt.Errorf("required flag -o not provided")
	}
	if _, err := backup.ParseFormat(cmd.Format); err != nil {
		return err
	}

	return nil
}

func (cmd *ExportCommand) Run() error {
	return cmd.run(context.Background())
}

func (cmd *ExportCommand) run(ctx context.Context) error {
	format, err := backup.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := backup.NewExporter(db.DB).Export(ctx)
	if err != nil {
		return fmt.Errorf("failed to export catalog: %w", err)
	}

	data, err := backup.EncodeSealed(snap, format, cmd.Passphrase)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if dir := filepath.Dir(cmd.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(cmd.OutputPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	counts := snap.Counts()
	fmt.Printf("Exported %d rows to %s\n", counts.Total(), cmd.OutputPath)
	if cmd.Passphrase != "" {
		fmt.Println("Snapshot is sealed")
	}
	if cmd.Verbose {
		printCounts(counts.ByName())
	}
	return nil
}

// openDatabase resolves path and opens the catalog.
func openDatabase(path string) (*database.Database, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	db, err := database.NewDatabase(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func printCounts(counts map[string]int64) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-28s %d\n", name, counts[name])
	}
}
