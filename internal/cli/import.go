package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/cypher/internal/audit"
	"github.com/mrlokans/cypher/internal/backup"
	"github.com/mrlokans/cypher/internal/config"
	auditrepo "github.com/mrlokans/cypher/internal/database/audit"
)

// ImportCommand replaces the catalog with the contents of a snapshot file.
type ImportCommand struct {
	FilePath     string
	DatabasePath string
	Passphrase   string
	DryRun       bool
	Verbose      bool
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the snapshot file (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database")
	fs.StringVar(&cmd.Passphrase, "passphrase", os.Getenv("BACKUP_PASSPHRASE"), "Passphrase for sealed snapshots")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Check the snapshot without changing the catalog")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print row counts per table")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Replace the whole catalog with a snapshot. Either every row is imported or\n")
		fmt.Fprintf(os.Stderr, "nothing changes.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file catalog.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file catalog.json -dry-run -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	return cmd.run(context.Background())
}

func (cmd *ImportCommand) run(ctx context.Context) error {
	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
	}

	if _, err := os.Stat(cmd.FilePath); os.IsNotExist(err) {
		return fmt.Errorf("snapshot file not found: %s", cmd.FilePath)
	}

	snap, err := backup.ReadFile(cmd.FilePath, cmd.Passphrase)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	db, err := openDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	importer := backup.NewImporter(db.DB, db.Changes)

	if cmd.DryRun {
		counts, err := importer.DryRun(ctx, snap)
		if err != nil {
			return fmt.Errorf("snapshot would be rejected: %w", err)
		}
		fmt.Printf("Snapshot is valid: %d rows would be imported\n", counts.Total())
		if cmd.Verbose {
			printCounts(counts.ByName())
		}
		return nil
	}

	activity := audit.NewService(auditrepo.NewRepository(db.DB))
	defer activity.Wait()

	counts, err := importer.Import(ctx, snap)
	activity.LogImport("file", "Imported "+cmd.FilePath, counts.ByName(), err)
	if err != nil {
		return fmt.Errorf("failed to import snapshot: %w", err)
	}

	fmt.Printf("Imported %d rows from %s\n", counts.Total(), cmd.FilePath)
	if cmd.Verbose {
		printCounts(counts.ByName())
	}
	return nil
}
