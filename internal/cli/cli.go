package cli

import (
	"fmt"
	"io"
	"os"

	"notefiler/internal/config"
)

// Replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the CLI with the given arguments and returns the exit code.
func Run(args []string, cfg *config.Config) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "list", "ls", "l":
		return runList(cmdArgs, cfg)
	case "parse", "p":
		return runParse(cmdArgs)
	case "post", "file":
		return runPost(cmdArgs, cfg)
	case "delete", "rm", "del":
		return runDelete(cmdArgs, cfg)
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage()
		return 1
	}
}

// NeedsPaths reports whether command touches the scan or notes roots.
func NeedsPaths(command string) bool {
	switch command {
	case "parse", "p", "help", "-h", "--help":
		return false
	}
	return true
}

func printUsage() {
	fmt.Fprintln(stdout, `notefiler - file scanned notes into a dated archive

Usage: notefiler [flags] [command] [arguments]

Commands:
  list, ls          List pending scans
  parse <date>      Show how a date would be filed
                    notefiler parse 2021.03.04
  post <scan> <date> [--dry-run]
                    File a scan under a date
                    notefiler post scan-0001 2021.03
  delete <scan>     Delete a pending scan
  help              Show this help message

Dates are YYYY, YYYY.MM or YYYY.MM.DD; any single non-digit may separate
the parts. A scan may be named by its full ID or by a fuzzy fragment that
matches exactly one scan.

Flags:
  -config <file>    Settings file (default ~/.config/notefiler/settings.yaml)
  -scans <dir>      Scan inbox directory
  -notes <dir>      Notes archive directory
  -transfer <mode>  copy (default) or rename

Running notefiler without a command launches the interactive TUI.`)
}
