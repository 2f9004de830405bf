package session

import (
	"errors"
	"fmt"

	"notefiler/internal/config"
	"notefiler/internal/filing"
	"notefiler/internal/logs"
	"notefiler/internal/notedate"
	"notefiler/internal/scans"
)

var (
	// ErrNoDate is returned by PostCurrent when the input does not parse.
	ErrNoDate = errors.New("no valid date entered")
	// ErrNoScan is returned when the inbox is empty.
	ErrNoScan = errors.New("no scan selected")
)

// Replaced in tests.
var populate = scans.Populate

// ReloadError is returned by DeleteCurrent and PostCurrent when the inbox
// change itself succeeded but re-reading the inbox failed. The scan list is
// then stale until the next successful Reload.
type ReloadError struct {
	Err error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("reload scans: %v", e.Err)
}

func (e *ReloadError) Unwrap() error { return e.Err }

// Session is the state behind the interactive views: the scan list, the
// cursor into it, and the date being typed. Every mutation of the inbox is
// followed by a full reload from disk.
type Session struct {
	cfg   *config.Config
	scans []scans.Scan
	index int
	input string
	date  *notedate.NoteDate
}

// New creates a session and loads the scan list
func New(cfg *config.Config) (*Session, error) {
	s := &Session{cfg: cfg}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the configuration the session was created with
func (s *Session) Config() *config.Config {
	return s.cfg
}

// Reload re-reads the inbox and keeps the cursor within bounds.
func (s *Session) Reload() error {
	list, err := populate(s.cfg.Paths)
	if err != nil {
		return err
	}
	s.scans = list
	s.clamp()
	return nil
}

func (s *Session) clamp() {
	if s.index >= len(s.scans) {
		s.index = len(s.scans) - 1
	}
	if s.index < 0 {
		s.index = 0
	}
}

// Scans returns the current scan list
func (s *Session) Scans() []scans.Scan {
	return s.scans
}

// Len returns the number of scans
func (s *Session) Len() int {
	return len(s.scans)
}

// Index returns the cursor position
func (s *Session) Index() int {
	return s.index
}

// Current returns the scan under the cursor
func (s *Session) Current() (scans.Scan, bool) {
	if len(s.scans) == 0 {
		return scans.Scan{}, false
	}
	return s.scans[s.index], true
}

// Previous moves the cursor back one scan. No-op at the start.
func (s *Session) Previous() {
	if s.index > 0 {
		s.index--
	}
}

// Next moves the cursor forward one scan. No-op at the end.
func (s *Session) Next() {
	if s.index < len(s.scans)-1 {
		s.index++
	}
}

// Select moves the cursor to i if it is in range.
func (s *Session) Select(i int) {
	if i >= 0 && i < len(s.scans) {
		s.index = i
	}
}

// SetInput stores the typed date text and re-parses it.
func (s *Session) SetInput(text string) {
	s.input = text
	d, err := notedate.Parse(text)
	if err != nil {
		s.date = nil
		return
	}
	s.date = &d
}

// Input returns the raw date text
func (s *Session) Input() string {
	return s.input
}

// Date returns the parsed date, or nil if the input is not a valid date.
func (s *Session) Date() *notedate.NoteDate {
	return s.date
}

// Preview returns the note folder the current date would be filed into.
func (s *Session) Preview() (string, error) {
	if s.date == nil {
		return "", ErrNoDate
	}
	return filing.Preview(*s.date, s.cfg)
}

// DeleteCurrent removes the current scan and reloads. On failure the list is
// left as it was.
func (s *Session) DeleteCurrent() error {
	scan, ok := s.Current()
	if !ok {
		return ErrNoScan
	}
	if err := scans.Delete(scan, s.cfg.Paths); err != nil {
		return err
	}
	if err := s.Reload(); err != nil {
		logs.Logger.Printf("deleted %s, reload failed: %v", scan.ID, err)
		return &ReloadError{Err: err}
	}
	return nil
}

// PostCurrent files the current scan under the parsed date and reloads.
// Without a valid date nothing happens and ErrNoDate is returned. If the
// scan was filed but the reload fails, the Note is still returned together
// with a *ReloadError.
func (s *Session) PostCurrent() (filing.Note, error) {
	if s.date == nil {
		return filing.Note{}, ErrNoDate
	}
	scan, ok := s.Current()
	if !ok {
		return filing.Note{}, ErrNoScan
	}

	note, err := filing.Post(scan, *s.date, s.cfg)
	if err != nil {
		return filing.Note{}, err
	}
	logs.Logger.Printf("filed %s as %s", scan.ID, note.Dir)

	if err := s.Reload(); err != nil {
		logs.Logger.Printf("filed %s, reload failed: %v", scan.ID, err)
		return note, &ReloadError{Err: err}
	}
	return note, nil
}
