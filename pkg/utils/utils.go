package utils

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// FindFiles walks fsys from dir and returns the first file whose name
// matches one of globs. A walkDepth of 0 means no limit. An empty string is
// returned when nothing matches.
func FindFiles(fsys fs.FS, dir string, walkDepth uint, globs []string) (string, error) {
	var found string

	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if walkDepth != 0 && depth(dir, p) > int(walkDepth) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		for _, glob := range globs {
			if ok, _ := path.Match(glob, d.Name()); ok {
				found = p
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk directory %s: %w", dir, err)
	}
	return found, nil
}

// depth counts the segments of p below dir; dir itself is 0.
func depth(dir, p string) int {
	if p == dir {
		return 0
	}
	rel := p
	if dir != "." {
		rel = strings.TrimPrefix(p, dir+"/")
	}
	return strings.Count(rel, "/") + 1
}

// FirstLine returns the first line of data that is not blank once trimmed.
func FirstLine(data string) string {
	for _, line := range strings.Split(data, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Unquote strips every single and double quote from s.
func Unquote(s string) string {
	return strings.NewReplacer(`"`, "", "'", "").Replace(s)
}
