// Package launch works out where the bundle is and what the caller asked
// for: which program, in which mode, with which arguments.
package launch

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/xplshn/sharun/pkg/environ"
	"github.com/xplshn/sharun/pkg/paths"
)

// SelfName is the launcher's own name. Invoked under it, the first argument
// is a command or the program to run.
const SelfName = "sharun"

// Context is the bundle layout seen from the running launcher.
type Context struct {
	// Self is the canonical path of the launcher executable.
	Self string
	Root string

	BinDir      string
	SharedBin   string
	SharedLib   string
	SharedLib32 string
	ShareDir    string
	EtcDir      string
}

// NewContext lays the bundle out around the launcher at self. A launcher
// kept in a bin/ directory whose parent also holds a sharun file belongs to
// that parent.
func NewContext(self string) (*Context, error) {
	self, err := paths.Canonicalize(self)
	if err != nil {
		return nil, err
	}

	root := filepath.Dir(self)
	if filepath.Base(root) == "bin" && paths.IsFile(filepath.Join(root, "..", SelfName)) {
		if root, err = paths.Canonicalize(filepath.Dir(root)); err != nil {
			return nil, err
		}
	}

	return &Context{
		Self:        self,
		Root:        root,
		BinDir:      filepath.Join(root, "bin"),
		SharedBin:   filepath.Join(root, "shared", "bin"),
		SharedLib:   filepath.Join(root, "shared", "lib"),
		SharedLib32: filepath.Join(root, "shared", "lib32"),
		ShareDir:    filepath.Join(root, "share"),
		EtcDir:      filepath.Join(root, "etc"),
	}, nil
}

// LibRoot picks the library root matching a target's ELF class.
func (c *Context) LibRoot(class paths.Class) string {
	if class == paths.Class32 {
		return c.SharedLib32
	}
	return c.SharedLib
}

// LibRoots returns the library roots present in the bundle.
func (c *Context) LibRoots() []string {
	var roots []string
	for _, r := range []string{c.SharedLib, c.SharedLib32} {
		if paths.IsDir(r) {
			roots = append(roots, r)
		}
	}
	return roots
}

// Environ is the view of the bundle the environment rules work on.
func (c *Context) Environ(libRoot string) environ.Context {
	return environ.Context{
		BundleRoot: c.Root,
		BinDir:     c.BinDir,
		LibRoot:    libRoot,
		ShareDir:   c.ShareDir,
		EtcDir:     c.EtcDir,
	}
}

// ListTargets returns the names of the executables in bin/, sorted.
func ListTargets(c *Context) []string {
	entries, err := os.ReadDir(c.BinDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if paths.IsExecutable(filepath.Join(c.BinDir, e.Name())) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
