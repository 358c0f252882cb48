// Package libpath discovers the directories of a library root that hold
// shared objects and keeps them in a relocatable lib.path cache.
//
// The cache stores one directory per line. The library root's absolute
// prefix is written as the Marker so that the file stays valid when the
// bundle is copied or mounted elsewhere; the first line is the Marker alone
// and stands for the root itself.
//
// Writes go through a temporary file and a rename, so a reader never sees a
// partial file. Two launchers generating the same missing cache at once may
// both write it; the last rename wins and both contents are identical.
package libpath

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
	"pgregory.net/rand"

	"github.com/xplshn/sharun/pkg/msg"
	"github.com/xplshn/sharun/pkg/paths"
)

const (
	FileName = "lib.path"
	Marker   = "+"
)

// Cache is the parsed content of a lib.path file.
type Cache struct {
	Root string
	// Dirs are absolute, deduplicated, in order of first discovery and never
	// contain Root.
	Dirs []string
}

// File returns the cache file location for a library root.
func File(root string) string { return filepath.Join(root, FileName) }

// IsSharedObject reports whether a file name looks like a shared object.
func IsSharedObject(name string) bool {
	return strings.HasSuffix(name, ".so") || strings.Contains(name, ".so.")
}

// Discover walks root and returns every directory other than root that
// directly contains a shared object.
func Discover(root string) ([]string, error) {
	var dirs []string
	seen := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !IsSharedObject(d.Name()) {
			return nil
		}
		parent := filepath.Dir(path)
		if parent == root {
			return nil
		}
		if _, ok := seen[parent]; ok {
			return nil
		}
		seen[parent] = struct{}{}
		dirs = append(dirs, parent)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return dirs, nil
}

// Generate discovers the shared object directories of root and writes the
// cache file. An unchanged cache is left untouched.
func Generate(root string) (*Cache, error) {
	dirs, err := Discover(root)
	if err != nil {
		return nil, err
	}
	c := &Cache{Root: root, Dirs: dirs}
	data := c.Encode()

	file := File(root)
	if old, err := os.ReadFile(file); err == nil && blake3.Sum256(old) == blake3.Sum256(data) {
		msg.Info("lib.path is up to date: %s", file)
		return c, nil
	}

	tmp := fmt.Sprintf("%s.%016x", file, rand.Uint64())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write lib.path: %s: %w", file, err)
	}
	if err := os.Rename(tmp, file); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to write lib.path: %s: %w", file, err)
	}
	msg.Info("Write lib.path: %s", file)
	return c, nil
}

// Load reads the cache file of root.
func Load(root string) (*Cache, error) {
	data, err := os.ReadFile(File(root))
	if err != nil {
		return nil, err
	}
	return Parse(root, data), nil
}

// Resolve loads the cache of root, generating it first when it is missing
// and root is writable. Without a usable cache the result holds only root.
func Resolve(root string) (*Cache, error) {
	c, err := Load(root)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		msg.Warn("Failed to read lib.path: %v", err)
		return &Cache{Root: root}, nil
	}
	if !paths.IsWritable(root) {
		return &Cache{Root: root}, nil
	}
	c, err = Generate(root)
	if err != nil {
		msg.Warn("%v", err)
		return &Cache{Root: root}, nil
	}
	return c, nil
}

// Parse builds a Cache from lib.path content, substituting the Marker with
// root. Blank lines and the bare Marker line are skipped.
func Parse(root string, data []byte) *Cache {
	c := &Cache{Root: root}
	seen := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == Marker {
			continue
		}
		dir := line
		if strings.HasPrefix(line, Marker+"/") {
			dir = root + strings.TrimPrefix(line, Marker)
		}
		if dir == root {
			continue
		}
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		c.Dirs = append(c.Dirs, dir)
	}
	return c
}

// Encode renders the cache in its on-disk form.
func (c *Cache) Encode() []byte {
	var b bytes.Buffer
	b.WriteString(Marker)
	for _, dir := range c.Dirs {
		b.WriteByte('\n')
		if rel, ok := strings.CutPrefix(dir, c.Root); ok && strings.HasPrefix(rel, "/") {
			b.WriteString(Marker + rel)
		} else {
			b.WriteString(dir)
		}
	}
	return b.Bytes()
}

// SearchPath returns root followed by every cached directory, joined by ':'.
func (c *Cache) SearchPath() string {
	return strings.Join(append([]string{c.Root}, c.Dirs...), ":")
}

// ChildNames returns the distinct immediate children of root that the cached
// directories live under, in order of first appearance.
func (c *Cache) ChildNames() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, dir := range c.Dirs {
		rel, ok := strings.CutPrefix(dir, c.Root+"/")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(rel, "/")
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
