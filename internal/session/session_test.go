package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"notefiler/internal/config"
	"notefiler/internal/filing"
	"notefiler/internal/scans"
)

func newSession(t *testing.T, ids ...string) *Session {
	t.Helper()
	cfg := &config.Config{
		Paths: config.Paths{
			ScansPath: t.TempDir(),
			NotesPath: t.TempDir(),
		},
		PayloadName: config.DefaultPayloadName,
		Transfer:    config.TransferCopy,
	}
	for _, id := range ids {
		dir := filepath.Join(cfg.ScansPath, id)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, cfg.PayloadName), []byte(id), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func currentID(t *testing.T, s *Session) string {
	t.Helper()
	scan, ok := s.Current()
	if !ok {
		t.Fatal("expected a current scan")
	}
	return scan.ID
}

func TestNew_MissingInbox(t *testing.T) {
	cfg := &config.Config{Paths: config.Paths{ScansPath: filepath.Join(t.TempDir(), "gone")}}
	if _, err := New(cfg); !errors.Is(err, scans.ErrInboxMissing) {
		t.Fatalf("expected ErrInboxMissing, got %v", err)
	}
}

func TestNavigation_Clamped(t *testing.T) {
	s := newSession(t, "a", "b", "c")

	s.Previous()
	if s.Index() != 0 {
		t.Errorf("Previous at start: expected 0, got %d", s.Index())
	}

	s.Next()
	s.Next()
	s.Next()
	if s.Index() != 2 {
		t.Errorf("Next past end: expected 2, got %d", s.Index())
	}
	if currentID(t, s) != "c" {
		t.Errorf("expected c, got %q", currentID(t, s))
	}

	s.Previous()
	if currentID(t, s) != "b" {
		t.Errorf("expected b, got %q", currentID(t, s))
	}
}

func TestNavigation_EmptyInbox(t *testing.T) {
	s := newSession(t)

	s.Next()
	s.Previous()
	if s.Index() != 0 {
		t.Errorf("expected index 0, got %d", s.Index())
	}
	if _, ok := s.Current(); ok {
		t.Error("expected no current scan")
	}
	if err := s.DeleteCurrent(); !errors.Is(err, ErrNoScan) {
		t.Errorf("DeleteCurrent: expected ErrNoScan, got %v", err)
	}
}

func TestSetInput_Reparses(t *testing.T) {
	s := newSession(t, "a")

	s.SetInput("2021")
	if s.Date() == nil || s.Date().Year != 2021 {
		t.Fatalf("expected year 2021, got %+v", s.Date())
	}

	s.SetInput("2021.0")
	if s.Date() != nil {
		t.Errorf("expected nil date for partial input, got %+v", s.Date())
	}

	s.SetInput("2021.02.03")
	if s.Date() == nil || s.Date().Day != 3 {
		t.Fatalf("expected full date, got %+v", s.Date())
	}
	if s.Input() != "2021.02.03" {
		t.Errorf("unexpected input %q", s.Input())
	}

	s.SetInput("")
	if s.Date() != nil {
		t.Error("expected nil date after clearing input")
	}
}

func TestPostCurrent_WithoutDateIsNoop(t *testing.T) {
	s := newSession(t, "a")
	s.SetInput("not a date")

	if _, err := s.PostCurrent(); !errors.Is(err, ErrNoDate) {
		t.Fatalf("expected ErrNoDate, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected scan untouched, have %d scans", s.Len())
	}
}

func TestPostCurrent_FilesAndReloads(t *testing.T) {
	s := newSession(t, "a", "b", "c")
	s.Next()
	s.Next()
	s.SetInput("2021.03.04")

	note, err := s.PostCurrent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join(s.Config().NotesPath, "2021", "03", "04", "000")
	if note.Dir != want {
		t.Errorf("expected %q, got %q", want, note.Dir)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 scans after post, got %d", s.Len())
	}
	// cursor clamps to the new last scan
	if currentID(t, s) != "b" {
		t.Errorf("expected cursor on b, got %q", currentID(t, s))
	}
	// date input survives a post
	if s.Date() == nil {
		t.Error("expected parsed date to be kept")
	}

	note, err = s.PostCurrent()
	if err != nil {
		t.Fatalf("second post: %v", err)
	}
	if note.Number != "001" {
		t.Errorf("expected 001, got %q", note.Number)
	}
}

func TestPostCurrent_FailureKeepsList(t *testing.T) {
	s := newSession(t, "a")
	scan, _ := s.Current()
	os.Remove(scan.PayloadPath(s.Config().Paths, s.Config().PayloadName))
	s.SetInput("2021")

	_, err := s.PostCurrent()
	var pe *filing.PostError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PostError, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected list unchanged, have %d", s.Len())
	}
}

func failReload(t *testing.T) {
	t.Helper()
	old := populate
	populate = func(config.Paths) ([]scans.Scan, error) {
		return nil, os.ErrPermission
	}
	t.Cleanup(func() { populate = old })
}

func TestPostCurrent_ReloadFailureStillReturnsNote(t *testing.T) {
	s := newSession(t, "a", "b")
	s.SetInput("2021.03.04")
	failReload(t)

	note, err := s.PostCurrent()
	var re *ReloadError
	if !errors.As(err, &re) {
		t.Fatalf("expected ReloadError, got %v", err)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Errorf("expected cause to be kept, got %v", err)
	}

	want := filepath.Join(s.Config().NotesPath, "2021", "03", "04", "000")
	if note.Dir != want {
		t.Errorf("expected note %q, got %q", want, note.Dir)
	}
	if _, err := os.Stat(note.PayloadPath); err != nil {
		t.Errorf("payload should be filed: %v", err)
	}
	// list is stale until the next good reload
	if s.Len() != 2 {
		t.Errorf("expected stale list of 2, have %d", s.Len())
	}
}

func TestDeleteCurrent_ReloadFailure(t *testing.T) {
	s := newSession(t, "a")
	failReload(t)

	err := s.DeleteCurrent()
	var re *ReloadError
	if !errors.As(err, &re) {
		t.Fatalf("expected ReloadError, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(s.Config().ScansPath, "a")); !os.IsNotExist(statErr) {
		t.Errorf("scan dir should be gone, stat err=%v", statErr)
	}
}

func TestDeleteCurrent(t *testing.T) {
	s := newSession(t, "a", "b")
	s.Next()

	if err := s.DeleteCurrent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 1 || currentID(t, s) != "a" {
		t.Errorf("expected only a left, got %v", s.Scans())
	}
}

func TestDeleteCurrent_VanishedDirKeepsList(t *testing.T) {
	s := newSession(t, "a", "b")
	os.RemoveAll(filepath.Join(s.Config().ScansPath, "a"))

	err := s.DeleteCurrent()
	var de *scans.DeleteError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeleteError, got %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("expected stale list left unchanged, have %d", s.Len())
	}
}

func TestPreview(t *testing.T) {
	s := newSession(t, "a")

	if _, err := s.Preview(); !errors.Is(err, ErrNoDate) {
		t.Errorf("expected ErrNoDate, got %v", err)
	}

	s.SetInput("2021.03")
	p, err := s.Preview()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(s.Config().NotesPath, "2021", "03", "unclassified", "000")
	if p != want {
		t.Errorf("expected %q, got %q", want, p)
	}
}

func TestSelect(t *testing.T) {
	s := newSession(t, "a", "b", "c")

	s.Select(2)
	if s.Index() != 2 {
		t.Errorf("expected 2, got %d", s.Index())
	}
	s.Select(9)
	s.Select(-1)
	if s.Index() != 2 {
		t.Errorf("out-of-range select should be ignored, got %d", s.Index())
	}
}
