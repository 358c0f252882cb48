// Package interp locates the bundled dynamic loader inside a library root.
package interp

import (
	"errors"
	"path/filepath"

	"github.com/xplshn/sharun/pkg/msg"
	"github.com/xplshn/sharun/pkg/paths"
)

var ErrInterpreterNotFound = errors.New("interpreter not found")

// Candidates returns the loader file names tried in order. A non-empty
// override is the only candidate.
func Candidates(override string) []string {
	if override != "" {
		return []string{override}
	}
	return append([]string(nil), archLoaders...)
}

// Find returns the absolute path of the first candidate present directly in
// libRoot.
func Find(libRoot, override string) (string, error) {
	for _, name := range Candidates(override) {
		p := filepath.Join(libRoot, name)
		if paths.IsFile(p) {
			return p, nil
		}
	}
	return "", &msg.ResolutionError{Op: "find interpreter", Path: libRoot, Err: ErrInterpreterNotFound}
}
