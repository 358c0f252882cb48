package utils

import (
	"bufio"
	"io"
	"os"
	"path"
	"strings"
)

// DesktopEntry is the main group of a freedesktop .desktop file.
const DesktopEntry = "Desktop Entry"

// DesktopFile represents a parsed .desktop file
type DesktopFile struct {
	Sections map[string]map[string]string
}

// ParseDesktopFile parses a .desktop file from the given path.
func ParseDesktopFile(filePath string) (*DesktopFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseDesktop(file)
}

// ParseDesktop reads key=value pairs grouped by [Section] headers. Lines
// outside a section or without '=' (template placeholders and the like) are
// skipped.
func ParseDesktop(r io.Reader) (*DesktopFile, error) {
	df := &DesktopFile{
		Sections: make(map[string]map[string]string),
	}

	scanner := bufio.NewScanner(r)
	current := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			current = line[1 : len(line)-1]
			if df.Sections[current] == nil {
				df.Sections[current] = make(map[string]string)
			}
			continue
		}

		if current == "" {
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			df.Sections[current][strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return df, nil
}

// GetValue returns the value for a given key in a section.
// Returns an empty string if the section or key does not exist.
func (df *DesktopFile) GetValue(section, key string) string {
	if s, ok := df.Sections[section]; ok {
		return s[key]
	}
	return ""
}

// ExecName is the program named by the Exec key of the main group: its
// first word, quotes removed, reduced to a base name. Field codes such as
// %U are dropped with the rest of the arguments.
func (df *DesktopFile) ExecName() string {
	fields := strings.Fields(Unquote(df.GetValue(DesktopEntry, "Exec")))
	if len(fields) == 0 {
		return ""
	}
	return path.Base(fields[0])
}
