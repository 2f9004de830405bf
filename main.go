package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"notefiler/internal/cli"
	"notefiler/internal/config"
	"notefiler/internal/logs"
	"notefiler/internal/scans"
	"notefiler/internal/session"
	"notefiler/internal/tui"
)

func main() {
	// Parse CLI flags
	configFlag := flag.String("config", "", "Settings file (default ~/.config/notefiler/settings.yaml)")
	scansFlag := flag.String("scans", "", "Scan inbox directory")
	notesFlag := flag.String("notes", "", "Notes archive directory")
	transferFlag := flag.String("transfer", "", "Payload transfer: copy or rename")
	flag.Parse()

	cliFlags := config.CLIFlags{
		ConfigFile: *configFlag,
		ScansPath:  *scansFlag,
		NotesPath:  *notesFlag,
		Transfer:   *transferFlag,
	}

	// Load configuration
	cfg, err := config.Load(cliFlags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ensure config file exists
	if err := config.EnsureConfigFile(); err != nil {
		log.Printf("Warning: could not create config file: %v", err)
	}

	if err := logs.Initialize(cfg.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize logger: %v\n", err)
	}
	defer logs.Close()

	// Check for CLI subcommands
	args := flag.Args()
	if len(args) > 0 {
		if cli.NeedsPaths(args[0]) {
			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				os.Exit(1)
			}
		}
		exitCode := cli.Run(args, cfg)
		logs.Close()
		os.Exit(exitCode)
	}

	if err := cfg.Validate(); err != nil {
		logs.Logger.Printf("invalid settings: %v", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	sess, err := session.New(cfg)
	if err != nil {
		if errors.Is(err, scans.ErrInboxMissing) {
			fmt.Fprintf(os.Stderr, "No scan inbox at %s\n", cfg.ScansPath)
		} else {
			fmt.Fprintln(os.Stderr, "Error loading scans:", err)
		}
		os.Exit(1)
	}

	// TUI mode
	logs.Logger.Printf("Starting TUI: %d scan(s) in %s", sess.Len(), cfg.ScansPath)
	p := tea.NewProgram(tui.NewAppModel(sess), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Println("Error running program:", err)
		os.Exit(1)
	}
}
