// Package execute turns a resolved launch into the final argv and
// environment and replaces the current process with it.
package execute

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/xplshn/sharun/pkg/environ"
	"github.com/xplshn/sharun/pkg/interp"
	"github.com/xplshn/sharun/pkg/launch"
	"github.com/xplshn/sharun/pkg/libpath"
	"github.com/xplshn/sharun/pkg/msg"
	"github.com/xplshn/sharun/pkg/paths"
)

// FrozenSection marks executables carrying a frozen Python payload. Such
// programs locate their payload through argv0, so they get their own path
// there and a plain execve.
const FrozenSection = "pydata"

const preloadFile = ".preload"

// Input is everything Build needs from the caller.
type Input struct {
	Context *launch.Context
	Plan    *launch.Plan
	// Environ is the inherited environment, os.Environ form.
	Environ []string
}

// Plan is a fully resolved process replacement. It is built once and run
// once.
type Plan struct {
	Interpreter string
	LibraryPath string
	Argv0       string
	Target      string
	Args        []string
	Preload     []string
	Frozen      bool

	Argv    []string
	Env     []string
	Backend Backend
}

// Build resolves the interpreter, library path and environment for a
// NamedBinary launch. It changes the working directory when
// SHARUN_WORKING_DIR asks for it.
func Build(in Input) (*Plan, error) {
	c, lp := in.Context, in.Plan
	target := lp.TargetPath(c)

	class, err := paths.ElfClass(target)
	if err != nil {
		return nil, &msg.ResolutionError{Op: "check ELF class", Path: target, Err: err}
	}
	libRoot := c.LibRoot(class)

	env := environ.New(in.Environ)
	env.Set(launch.EnvDir, c.Root)

	dotenv, err := environ.LoadDotenv(c.Root)
	if err != nil {
		return nil, err
	}
	dotenv.ApplyTo(env)
	cfg := launch.LoadConfig(env)

	interpreter, err := interp.Find(libRoot, cfg.LdName)
	if err != nil {
		return nil, err
	}

	if cfg.WorkingDir != "" {
		if err := os.Chdir(cfg.WorkingDir); err != nil {
			return nil, &msg.ResolutionError{Op: "change working directory", Path: cfg.WorkingDir, Err: err}
		}
		env.Unset(launch.EnvWorkingDir)
	}

	cache, err := libpath.Resolve(libRoot)
	if err != nil {
		return nil, err
	}

	env.Prepend("PATH", c.BinDir)
	environ.Synthesize(c.Environ(libRoot), env, cache.ChildNames())
	dotenv.RemoveFrom(env)

	frozen := IsFrozen(target)

	preload, err := ReadPreload(c.Root)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Interpreter: interpreter,
		LibraryPath: cache.SearchPath(),
		Argv0:       lp.Argv0Path,
		Target:      target,
		Args:        lp.Args,
		Preload:     preload,
		Frozen:      frozen,
		Env:         env.Environ(),
		Backend:     MemfdBackend{},
	}
	if frozen {
		p.Argv0 = target
		p.Backend = SyscallBackend{}
	}
	p.Argv = p.argv()
	return p, nil
}

func (p *Plan) argv() []string {
	argv := []string{p.Interpreter, "--library-path", p.LibraryPath, "--argv0", p.Argv0}
	if len(p.Preload) > 0 {
		argv = append(argv, "--preload", strings.Join(p.Preload, " "))
	}
	argv = append(argv, p.Target)
	return append(argv, p.Args...)
}

// Run replaces the process. It only returns on failure.
func (p *Plan) Run() error {
	if err := p.Backend.Exec(p.Interpreter, p.Argv, p.Env); err != nil {
		return &msg.ExecError{Path: p.Interpreter, Err: err}
	}
	return nil
}

// Direct prepares the plain exec of a bin/ entry used by the Direct and
// AppRun modes. No interpreter is involved; the entry is started with bin/
// on PATH and, for AppRun, with ARGV0 and APPDIR set.
func Direct(c *launch.Context, lp *launch.Plan, inherited []string) *Plan {
	env := environ.New(inherited)
	env.Set(launch.EnvDir, c.Root)
	env.Prepend("PATH", c.BinDir)
	if lp.Mode == launch.AppRun {
		if launch.LoadConfig(env).Argv0 == "" {
			env.Set(launch.EnvArgv0, lp.Argv0)
		}
		env.Set(launch.EnvAppDir, c.Root)
	}

	bin := lp.BinPath(c)
	return &Plan{
		Interpreter: bin,
		Target:      bin,
		Args:        lp.Args,
		Argv:        append([]string{bin}, lp.Args...),
		Env:         env.Environ(),
		Backend:     SyscallBackend{},
	}
}

// IsFrozen reports whether target carries the FrozenSection. Unreadable
// section tables count as not frozen.
func IsFrozen(target string) bool {
	ok, err := paths.HasElfSection(target, FrozenSection)
	return err == nil && ok
}

// ReadPreload returns the trimmed, non-blank lines of the bundle's .preload
// file, or nil when there is none.
func ReadPreload(root string) ([]string, error) {
	file := filepath.Join(root, preloadFile)
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &msg.ConfigError{File: file, Err: err}
	}

	var libs []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			libs = append(libs, line)
		}
	}
	return libs, nil
}
