package environ

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/xplshn/sharun/pkg/msg"
)

const DotenvFile = ".env"

// Dotenv is the content of a bundle's .env file: plain assignments plus the
// names listed on "unset NAME..." lines.
type Dotenv struct {
	Vars  map[string]string
	Unset []string
}

// LoadDotenv reads dir/.env. A missing file yields an empty Dotenv.
func LoadDotenv(dir string) (*Dotenv, error) {
	file := filepath.Join(dir, DotenvFile)
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Dotenv{Vars: map[string]string{}}, nil
		}
		return nil, &msg.ConfigError{File: file, Err: err}
	}
	d, err := ParseDotenv(string(data))
	if err != nil {
		return nil, &msg.ConfigError{File: file, Err: err}
	}
	return d, nil
}

// ParseDotenv splits off the unset directives, which godotenv does not
// understand, and parses the remaining lines.
func ParseDotenv(data string) (*Dotenv, error) {
	var rest strings.Builder
	d := &Dotenv{}
	for _, line := range strings.Split(data, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "unset ") {
			d.Unset = append(d.Unset, strings.Fields(trimmed)[1:]...)
			continue
		}
		rest.WriteString(line)
		rest.WriteByte('\n')
	}
	vars, err := godotenv.Unmarshal(rest.String())
	if err != nil {
		return nil, err
	}
	d.Vars = vars
	return d, nil
}

// ApplyTo sets every variable env does not already have. Existing values
// always win.
func (d *Dotenv) ApplyTo(env *Env) {
	keys := make([]string, 0, len(d.Vars))
	for k := range d.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := env.Lookup(k); !ok {
			env.Set(k, d.Vars[k])
		}
	}
}

// RemoveFrom drops the variables named on unset lines.
func (d *Dotenv) RemoveFrom(env *Env) {
	for _, k := range d.Unset {
		env.Unset(k)
	}
}
