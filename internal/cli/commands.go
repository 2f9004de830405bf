package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"notefiler/internal/config"
	"notefiler/internal/filing"
	"notefiler/internal/notedate"
	"notefiler/internal/scans"
)

func runList(args []string, cfg *config.Config) int {
	list, err := scans.Populate(cfg.Paths)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading scans: %v\n", err)
		return 1
	}

	if len(list) == 0 {
		fmt.Fprintln(stdout, "No scans found.")
		return 0
	}

	for i, s := range list {
		marker := " "
		if _, err := s.Payload(cfg.Paths, cfg.PayloadName); err != nil {
			marker = "!"
		}
		fmt.Fprintf(stdout, "%3d %s %s\n", i+1, marker, s.ID)
	}

	fmt.Fprintf(stdout, "\n%d scan(s)\n", len(list))
	return 0
}

func runParse(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Error: date required")
		fmt.Fprintln(stderr, "Usage: notefiler parse <date>")
		return 1
	}

	d, err := notedate.Parse(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	printDate(d)
	return 0
}

func runPost(args []string, cfg *config.Config) int {
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dryRun := fs.Bool("dry-run", false, "Show where the scan would go without moving it")

	if err := fs.Parse(reorderFlags(args)); err != nil {
		return 1
	}

	rest := fs.Args()
	if len(rest) < 2 {
		fmt.Fprintln(stderr, "Error: scan and date required")
		fmt.Fprintln(stderr, "Usage: notefiler post <scan> <date> [--dry-run]")
		return 1
	}

	d, err := notedate.Parse(strings.Join(rest[1:], " "))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	scan, err := findScan(cfg, rest[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *dryRun {
		p, err := filing.Preview(d, cfg)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Would file %s as %s\n", scan.ID, p)
		return 0
	}

	note, err := filing.Post(scan, d, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v: %s\n", err, describe(err))
		return 1
	}

	fmt.Fprintf(stdout, "Filed %s as %s\n", scan.ID, note.Dir)
	return 0
}

func runDelete(args []string, cfg *config.Config) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Error: scan required")
		fmt.Fprintln(stderr, "Usage: notefiler delete <scan>")
		return 1
	}

	scan, err := findScan(cfg, args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := scans.Delete(scan, cfg.Paths); err != nil {
		fmt.Fprintf(stderr, "%v: %s\n", err, describe(err))
		return 1
	}

	fmt.Fprintf(stdout, "Deleted: %s\n", scan.ID)
	return 0
}

func printDate(d notedate.NoteDate) {
	fmt.Fprintf(stdout, "Date:  %s (%s)\n", d, d.Granularity)
	fmt.Fprintf(stdout, "Year:  %d\n", d.Year)
	if d.HasMonth() {
		fmt.Fprintf(stdout, "Month: %d\n", d.Month)
	}
	if d.HasDay() {
		fmt.Fprintf(stdout, "Day:   %d\n", d.Day)
	}
	fmt.Fprintf(stdout, "Path:  %s\n", d.Path())
}

// describe expands the coarse public errors with their step and cause.
func describe(err error) string {
	var pe *filing.PostError
	if errors.As(err, &pe) {
		return fmt.Sprintf("%s: %v", pe.Step, pe.Err)
	}
	var de *scans.DeleteError
	if errors.As(err, &de) {
		return de.Err.Error()
	}
	return err.Error()
}

// findScan resolves an exact scan ID, falling back to a fuzzy match that
// must be unambiguous.
func findScan(cfg *config.Config, query string) (scans.Scan, error) {
	list, err := scans.Populate(cfg.Paths)
	if err != nil {
		return scans.Scan{}, err
	}

	if i, ok := scans.Find(list, query); ok {
		return list[i], nil
	}

	matches := scans.FuzzyFind(list, query)
	if len(matches) == 0 {
		return scans.Scan{}, fmt.Errorf("no scan found matching: %s", query)
	}
	if len(matches) > 1 {
		return scans.Scan{}, fmt.Errorf("multiple scans match '%s', please be more specific", query)
	}
	return list[matches[0]], nil
}

// reorderFlags moves flags ahead of positional arguments so that
// "post scan 2021 --dry-run" parses like "post --dry-run scan 2021".
func reorderFlags(args []string) []string {
	var flags, positional []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") && len(a) > 1 {
			flags = append(flags, a)
		} else {
			positional = append(positional, a)
		}
	}
	return append(flags, positional...)
}
