//go:build !unix

package fsx

// Cross-device renames are not detected on this platform; the raw error is
// returned instead.
func isEXDEV(err error) bool {
	return false
}
