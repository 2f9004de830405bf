// Package filing moves a scan into the dated notes archive.
//
// A scan is filed under notes_path/<date segments>/<NNN>/<payload>, where NNN
// is the next free sequence number in the date folder. The archive layout is
// the only state; nothing else records which numbers are taken.
package filing

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"notefiler/internal/config"
	"notefiler/internal/fsx"
	"notefiler/internal/logs"
	"notefiler/internal/notedate"
	"notefiler/internal/scans"
)

// Replaceable in tests to force a failure in a single step.
var (
	readDir    = os.ReadDir
	mkdir      = os.Mkdir
	removeScan = scans.Delete
)

// Step names one stage of Post, for logging and error inspection.
type Step string

const (
	StepPrepare  Step = "create date folder"
	StepAllocate Step = "allocate note number"
	StepCreate   Step = "create note folder"
	StepTransfer Step = "transfer payload"
	StepCleanup  Step = "remove scan"
)

// PostError is returned when any step of Post fails. The message is
// intentionally coarse; Step and the wrapped cause carry the detail.
type PostError struct {
	ScanID string
	Step   Step
	Err    error
}

func (e *PostError) Error() string {
	return "Error posting scan"
}

func (e *PostError) Unwrap() error { return e.Err }

// Note is a filed scan
type Note struct {
	Date        notedate.NoteDate
	Number      string
	Dir         string
	PayloadPath string
}

// DateDir returns the archive folder for date.
func DateDir(notesPath string, date notedate.NoteDate) string {
	return filepath.Join(append([]string{notesPath}, date.Segments()...)...)
}

// NextNoteNumber returns the three-digit number the next note in dateDir
// gets. Only entries whose names are all digits count; the result is one more
// than the largest of them, or "000" if there are none. A missing dateDir is
// treated as empty. Names too large for an int are ignored.
func NextNoteNumber(dateDir string) (string, error) {
	entries, err := readDir(dateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return formatNumber(0), nil
		}
		return "", err
	}

	next := 0
	for _, entry := range entries {
		n, ok := parseNumber(entry.Name())
		if !ok {
			continue
		}
		if n == math.MaxInt {
			return "", fmt.Errorf("no note number after %q in %s", entry.Name(), dateDir)
		}
		if n >= next {
			next = n + 1
		}
	}
	return formatNumber(next), nil
}

func formatNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}

func parseNumber(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Preview returns the note folder a Post with date would create right now,
// without touching the filesystem.
func Preview(date notedate.NoteDate, cfg *config.Config) (string, error) {
	dateDir := DateDir(cfg.NotesPath, date)
	number, err := NextNoteNumber(dateDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dateDir, number), nil
}

// Post files scan under date. Steps run in order and the first failure stops
// the rest; nothing done by earlier steps is undone.
func Post(scan scans.Scan, date notedate.NoteDate, cfg *config.Config) (Note, error) {
	fail := func(step Step, err error) (Note, error) {
		logs.Logger.Printf("post %s (%s): %s failed: %v", scan.ID, date, step, err)
		return Note{}, &PostError{ScanID: scan.ID, Step: step, Err: err}
	}

	dateDir := DateDir(cfg.NotesPath, date)
	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return fail(StepPrepare, err)
	}

	number, err := NextNoteNumber(dateDir)
	if err != nil {
		return fail(StepAllocate, err)
	}

	noteDir := filepath.Join(dateDir, number)
	if err := mkdir(noteDir, 0755); err != nil {
		return fail(StepCreate, err)
	}
	logs.Logger.Printf("post %s: allocated %s", scan.ID, noteDir)

	src := scan.PayloadPath(cfg.Paths, cfg.PayloadName)
	dst := filepath.Join(noteDir, cfg.PayloadName)
	if err := transfer(src, dst, cfg.Transfer); err != nil {
		return fail(StepTransfer, err)
	}
	logs.Logger.Printf("post %s: moved %s -> %s (%s)", scan.ID, src, dst, cfg.Transfer)

	if err := removeScan(scan, cfg.Paths); err != nil {
		var de *scans.DeleteError
		if errors.As(err, &de) {
			err = de.Err
		}
		return fail(StepCleanup, err)
	}

	return Note{
		Date:        date,
		Number:      number,
		Dir:         noteDir,
		PayloadPath: dst,
	}, nil
}

func transfer(src, dst string, mode config.TransferMode) error {
	switch mode {
	case config.TransferRename:
		return fsx.Rename(src, dst)
	case config.TransferCopy, "":
		return fsx.MoveByCopy(src, dst)
	default:
		return fmt.Errorf("unknown transfer mode %q", mode)
	}
}
