// Package fileutil holds small filesystem helpers shared by the converter.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Exists reports whether path exists. Errors other than "not exist" are
// returned so callers do not mistake an unreadable path for a missing one.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// PartialPath returns the hidden sibling that an output is written to before
// it is renamed into place. The extension is kept so ffmpeg can infer the
// container: /out/a/clip.mp4 -> /out/a/.clip.part.mp4
func PartialPath(dest string) string {
	dir, base := filepath.Split(dest)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+base[:len(base)-len(ext)]+".part"+ext)
}

// CopyPreserve copies src to dst byte for byte, preserving the permission
// bits and the access and modification times. The data is written to a
// partial sibling first and renamed, so dst either does not exist or is
// complete.
func CopyPreserve(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	tmp := PartialPath(dst)
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}

	if err := os.Chmod(tmp, info.Mode().Perm()); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	atime := accessTime(info)
	if err := os.Chtimes(tmp, atime, info.ModTime()); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	return n, nil
}

// Size returns the size of path, or 0 if it cannot be stat'd.
func Size(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
