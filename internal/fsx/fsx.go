// Package fsx holds the file transfer primitives used when filing a scan.
//
// Two strategies are offered. MoveByCopy copies the file next to its
// destination, fsyncs it, checks the copy against the source, and only then
// removes the source, so it works across volumes. Rename is a single
// os.Rename and fails with a CrossDeviceError when source and destination
// live on different filesystems.
//
// Neither is transactional: if the process dies after a copy and before the
// source is removed, the payload exists in both places.
package fsx

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// Replaceable in tests to simulate EXDEV, rename and verification failures.
var (
	renameFunc = os.Rename
	verifyFunc = VerifyCopy
)

// CrossDeviceError reports a rename that failed because src and dst are on
// different filesystems.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cannot rename %q to %q across filesystems: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError.
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// VerifyError reports a copy whose contents differ from the source.
type VerifyError struct {
	Src    string
	Dst    string
	Reason string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("copy of %q at %q does not match: %s", e.Src, e.Dst, e.Reason)
}

// Rename wraps os.Rename and marks EXDEV failures as CrossDeviceError.
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// CopyFile copies src to dst. dst must not exist. The data is written to a
// hidden temp file in dst's directory and renamed into place, so a reader
// never sees a partial dst.
func CopyFile(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("copy %q: %w", dst, os.ErrExist)
	} else if !os.IsNotExist(err) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("copy %q: not a regular file", src)
	}

	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return err
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// tmp and dst share a directory, so this never crosses devices.
	if err := Rename(tmpName, dst); err != nil {
		return err
	}

	_ = syncDirBestEffort(dir)
	return nil
}

// VerifyCopy checks that dst has the same size and SHA-256 digest as src.
func VerifyCopy(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return err
	}
	if srcInfo.Size() != dstInfo.Size() {
		return &VerifyError{
			Src:    src,
			Dst:    dst,
			Reason: fmt.Sprintf("size %d != %d", srcInfo.Size(), dstInfo.Size()),
		}
	}

	srcSum, err := fileDigest(src)
	if err != nil {
		return err
	}
	dstSum, err := fileDigest(dst)
	if err != nil {
		return err
	}
	if !bytes.Equal(srcSum, dstSum) {
		return &VerifyError{Src: src, Dst: dst, Reason: "sha256 mismatch"}
	}
	return nil
}

// MoveByCopy copies src to dst, verifies the copy, then removes src.
// On a failed verification the copy is removed and src is left alone.
func MoveByCopy(src, dst string) error {
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	if err := verifyFunc(src, dst); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

func fileDigest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

func syncDirBestEffort(dir string) error {
	// Directory fsync is not supported on Windows.
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
