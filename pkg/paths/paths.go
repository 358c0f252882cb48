// Package paths has the small path and file probes the launcher decides on:
// literal basename/dirname splitting, canonicalisation, inode identity,
// permission bits and ELF header inspection.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrNotFound is returned by Canonicalize when a path component is missing.
var ErrNotFound = fmt.Errorf("path not found: %w", fs.ErrNotExist)

// Canonicalize resolves symlinks and relative segments of path into an
// absolute path.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return "", err
	}
	return resolved, nil
}

// Basename returns the text after the last '/'.
func Basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Dirname drops the last '/'-separated segment of path without touching the
// filesystem. Paths that do not start with '/', '.' or '~' are taken as
// relative to the current directory and gain a "./" prefix.
func Dirname(path string) string {
	pieces := strings.Split(path, "/")
	switch {
	case len(pieces) == 1:
		return "."
	case !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, ".") && !strings.HasPrefix(path, "~"):
		pieces = append([]string{"."}, pieces...)
	case len(pieces) == 2 && strings.HasPrefix(path, "/"):
		return "/"
	}
	return strings.Join(pieces[:len(pieces)-1], "/")
}

// IsHardlink reports whether both paths resolve to the same inode.
func IsHardlink(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}

// IsExecutable reports whether path is a regular file with any execute bit.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0111 != 0
}

func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// IsWritable asks the kernel whether the calling user may write to path.
func IsWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
