package filing

import (
	"os"

	"notefiler/internal/config"
	"notefiler/internal/scans"
)

// Hooks for the external test package. Each setter returns a restore func.

func SetReadDir(f func(string) ([]os.DirEntry, error)) func() {
	old := readDir
	readDir = f
	return func() { readDir = old }
}

func SetMkdir(f func(string, os.FileMode) error) func() {
	old := mkdir
	mkdir = f
	return func() { mkdir = old }
}

func SetRemoveScan(f func(scans.Scan, config.Paths) error) func() {
	old := removeScan
	removeScan = f
	return func() { removeScan = old }
}
