package scans

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"notefiler/internal/config"
	"notefiler/internal/logs"
)

// ErrInboxMissing is returned by Populate when the scans root does not exist.
var ErrInboxMissing = errors.New("scans path does not exist")

// Scan is one pending scan: a directory directly under the scans root.
type Scan struct {
	ID string
}

// DeleteError is returned when a scan directory could not be removed.
// Its message is deliberately generic; the cause is available via Unwrap.
type DeleteError struct {
	ID  string
	Err error
}

func (e *DeleteError) Error() string {
	return "Error deleting scan"
}

func (e *DeleteError) Unwrap() error { return e.Err }

// PayloadInfo describes the image file inside a scan directory
type PayloadInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	Width   int // 0 when the image header could not be decoded
	Height  int
	Format  string
}

// Dir returns the scan's directory under the scans root
func (s Scan) Dir(paths config.Paths) string {
	return filepath.Join(paths.ScansPath, s.ID)
}

// PayloadPath returns the path of the named payload file inside the scan
func (s Scan) PayloadPath(paths config.Paths, payloadName string) string {
	return filepath.Join(s.Dir(paths), payloadName)
}

// Payload stats the payload file and reads its image dimensions if it can.
func (s Scan) Payload(paths config.Paths, payloadName string) (PayloadInfo, error) {
	p := s.PayloadPath(paths, payloadName)
	fi, err := os.Stat(p)
	if err != nil {
		return PayloadInfo{}, err
	}

	info := PayloadInfo{
		Path:    p,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}

	f, err := os.Open(p)
	if err != nil {
		return info, nil
	}
	defer f.Close()

	if cfg, format, err := image.DecodeConfig(f); err == nil {
		info.Width = cfg.Width
		info.Height = cfg.Height
		info.Format = format
	}
	return info, nil
}

// Populate lists the scans under paths.ScansPath, sorted by path.
// Files and hidden directories are ignored.
func Populate(paths config.Paths) ([]Scan, error) {
	root := paths.ScansPath
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInboxMissing, root)
		}
		return nil, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		absPath := filepath.Join(root, entry.Name())
		if !isDir(entry, absPath) {
			continue
		}
		dirs = append(dirs, absPath)
	}
	sort.Strings(dirs)

	scans := make([]Scan, 0, len(dirs))
	for _, d := range dirs {
		scans = append(scans, Scan{ID: filepath.Base(d)})
	}
	return scans, nil
}

// isDir follows symlinks so a linked scan directory still counts.
func isDir(entry os.DirEntry, absPath string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(absPath)
	return err == nil && fi.IsDir()
}

// Delete removes the scan's directory tree. Deleting a scan whose directory
// is already gone is an error.
func Delete(scan Scan, paths config.Paths) error {
	dir := scan.Dir(paths)

	if scan.ID == "" || strings.ContainsAny(scan.ID, `/\`) || scan.ID == "." || scan.ID == ".." {
		return &DeleteError{ID: scan.ID, Err: fmt.Errorf("invalid scan id %q", scan.ID)}
	}

	if _, err := os.Lstat(dir); err != nil {
		logs.Logger.Printf("delete scan %s: %v", scan.ID, err)
		return &DeleteError{ID: scan.ID, Err: err}
	}

	if err := os.RemoveAll(dir); err != nil {
		logs.Logger.Printf("delete scan %s: %v", scan.ID, err)
		return &DeleteError{ID: scan.ID, Err: err}
	}

	logs.Logger.Printf("deleted scan %s", scan.ID)
	return nil
}

// Find returns the index of the scan with the given ID
func Find(scans []Scan, id string) (int, bool) {
	for i, s := range scans {
		if s.ID == id {
			return i, true
		}
	}
	return -1, false
}

// FuzzyFind returns indices into scans ranked by how well their IDs match
// query. An empty query matches everything in order.
func FuzzyFind(scans []Scan, query string) []int {
	if query == "" {
		idx := make([]int, len(scans))
		for i := range scans {
			idx[i] = i
		}
		return idx
	}

	ids := make([]string, len(scans))
	for i, s := range scans {
		ids[i] = s.ID
	}
	matches := fuzzy.Find(query, ids)
	idx := make([]int, len(matches))
	for i, match := range matches {
		idx[i] = match.Index
	}
	return idx
}
