package launch

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/xplshn/sharun/pkg/msg"
	"github.com/xplshn/sharun/pkg/paths"
	"github.com/xplshn/sharun/pkg/utils"
)

// Mode says how the target is started.
type Mode int

const (
	// NamedBinary runs shared/bin/<name> through the bundled interpreter.
	NamedBinary Mode = iota
	// Direct execs bin/<name> as it is.
	Direct
	// AppRun execs the bin/ entry named by .app or a .desktop file.
	AppRun
)

func (m Mode) String() string {
	switch m {
	case Direct:
		return "direct"
	case AppRun:
		return "apprun"
	}
	return "named-binary"
}

// Command is what the launcher does when invoked under its own name.
type Command int

const (
	CmdRun Command = iota
	CmdVersion
	CmdHelp
	CmdGenLibPath
	CmdLib4bin
	CmdList
)

// AppRunName is the entry point name AppImage-style tooling expects.
const AppRunName = "AppRun"

const appFile = ".app"

var ErrNoAppName = errors.New("no application name")

// Plan is the outcome of mode resolution.
type Plan struct {
	Command Command
	Mode    Mode
	// Name is the target program, a bare file name.
	Name string
	Args []string
	// Argv0 is the caller's argv[0] as given; Argv0Path is where it
	// resolves to.
	Argv0     string
	Argv0Path string
}

// Resolve reads the caller's argv against the bundle layout.
func Resolve(c *Context, argv []string) (*Plan, error) {
	if len(argv) == 0 {
		argv = []string{c.Self}
	}
	p := &Plan{Argv0: argv[0], Args: argv[1:]}

	argv0Path, err := resolveArgv0(p.Argv0)
	if err != nil {
		return nil, err
	}
	p.Argv0Path = argv0Path

	switch name := dispatchName(c, p.Argv0, argv0Path); name {
	case SelfName:
		resolveSelf(c, p)
	case AppRunName:
		app, err := AppName(c.Root)
		if err != nil {
			return nil, err
		}
		p.Mode, p.Name = AppRun, app
	default:
		p.Name = name
	}
	return p, nil
}

// resolveArgv0 joins the canonical directory of argv0 with its base name.
// A bare name found nowhere relative to the current directory is looked up
// in PATH.
func resolveArgv0(argv0 string) (string, error) {
	name := paths.Basename(argv0)
	if dir, err := paths.Canonicalize(paths.Dirname(argv0)); err == nil {
		return filepath.Join(dir, name), nil
	}
	found, err := exec.LookPath(name)
	if err != nil {
		return "", &msg.ResolutionError{Op: "find argv0 dir", Path: argv0, Err: err}
	}
	return filepath.Join(filepath.Dir(found), name), nil
}

// dispatchName is the name the launcher acts under: the link name when the
// caller went through a symlink to the launcher, the launcher's own file
// name otherwise.
func dispatchName(c *Context, argv0, argv0Path string) string {
	if paths.IsSymlink(argv0Path) {
		if target, err := paths.Canonicalize(argv0Path); err == nil && target == c.Self {
			return paths.Basename(argv0)
		}
	}
	return filepath.Base(c.Self)
}

func resolveSelf(c *Context, p *Plan) {
	if len(p.Args) == 0 {
		p.Command = CmdList
		return
	}

	switch p.Args[0] {
	case "-v", "--version":
		p.Command = CmdVersion
	case "-h", "--help":
		p.Command = CmdHelp
	case "-g", "--gen-lib-path":
		p.Command = CmdGenLibPath
	case "l", "lib4bin":
		p.Command, p.Args = CmdLib4bin, p.Args[1:]
	default:
		p.Name, p.Args = p.Args[0], p.Args[1:]
		bin := filepath.Join(c.BinDir, p.Name)
		if paths.IsExecutable(bin) &&
			(paths.IsHardlink(c.Self, bin) || !paths.Exists(filepath.Join(c.SharedBin, p.Name))) {
			p.Mode = Direct
		}
	}
}

// AppName recovers the program an AppRun entry point starts. .app names it
// on its first non-blank line; without .app the Exec key of a .desktop file
// in the bundle root is used.
func AppName(root string) (string, error) {
	file := filepath.Join(root, appFile)

	var name string
	if !paths.Exists(file) {
		entries, _ := os.ReadDir(root)
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".desktop") {
				continue
			}
			desktop := filepath.Join(root, e.Name())
			df, err := utils.ParseDesktopFile(desktop)
			if err != nil {
				return "", &msg.ConfigError{File: desktop, Err: err}
			}
			if name = df.ExecName(); name != "" {
				break
			}
		}
	}

	if name == "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", &msg.ConfigError{File: file, Err: err}
		}
		name = utils.FirstLine(string(data))
	}

	name = utils.Unquote(paths.Basename(name))
	if name == "" {
		return "", &msg.ConfigError{File: file, Err: ErrNoAppName}
	}
	return name, nil
}

// BinPath is the bin/ entry the Direct and AppRun modes exec.
func (p *Plan) BinPath(c *Context) string { return filepath.Join(c.BinDir, p.Name) }

// TargetPath is the binary the NamedBinary mode hands to the interpreter.
func (p *Plan) TargetPath(c *Context) string { return filepath.Join(c.SharedBin, p.Name) }
