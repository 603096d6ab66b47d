package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/cypher/internal/cli"
	"github.com/mrlokans/cypher/internal/config"
	"github.com/mrlokans/cypher/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is implemented by every subcommand in internal/cli.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "export":
		cmd = cli.NewExportCommand()
	case "import":
		cmd = cli.NewImportCommand()
	case "stats":
		cmd = cli.NewStatsCommand()
	case "version":
		fmt.Printf("cypher %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve    Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  export   Write the whole catalog to a snapshot file\n")
	fmt.Fprintf(os.Stderr, "  import   Replace the catalog with a snapshot file\n")
	fmt.Fprintf(os.Stderr, "  stats    Show catalog size, goal progress and the timer preference\n")
	fmt.Fprintf(os.Stderr, "  version  Print the version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
