package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/xplshn/sharun/pkg/execute"
	"github.com/xplshn/sharun/pkg/launch"
	"github.com/xplshn/sharun/pkg/lib4bin"
	"github.com/xplshn/sharun/pkg/libpath"
	"github.com/xplshn/sharun/pkg/msg"
)

var version = "0.7.0"

const usage = `[ sharun ]: Run dynamically linked ELF binaries everywhere

[ Usage ]: sharun [OPTIONS] [EXEC ARGS]...
    Use lib4bin to create the 'bin' and 'shared' dirs

[ Arguments ]:
    [EXEC ARGS]...              Command line arguments for execution

[ Options ]:
     l,  lib4bin [ARGS]         Launch the built-in lib4bin
    -g,  --gen-lib-path         Generate a lib.path file
    -v,  --version              Print version
    -h,  --help                 Print help

[ Environments ]:
    SHARUN_WORKING_DIR=/path    Specifies the path to the working directory
    SHARUN_LDNAME=ld.so         Specifies the name of the interpreter
    SHARUN_DIR                  Sharun directory
`

func main() {
	app := &cli.Command{
		Name:            launch.SelfName,
		Usage:           "Run dynamically linked ELF binaries everywhere",
		SkipFlagParsing: true,
		HideHelp:        true,
		HideVersion:     true,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			self, err := os.Executable()
			if err != nil {
				return err
			}
			c, err := launch.NewContext(self)
			if err != nil {
				return err
			}
			return run(ctx, c, append([]string{os.Args[0]}, cmd.Args().Slice()...), os.Stdout)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		msg.Fatal(err)
	}
}

// run carries out argv for the bundle around c. Self commands write to
// stdout; the rest end in an exec.
func run(ctx context.Context, c *launch.Context, argv []string, stdout io.Writer) error {
	plan, err := launch.Resolve(c, argv)
	if err != nil {
		return err
	}

	switch plan.Command {
	case launch.CmdVersion:
		fmt.Fprintln(stdout, "v"+version)
		return nil
	case launch.CmdHelp:
		fmt.Fprint(stdout, usage)
		return nil
	case launch.CmdGenLibPath:
		for _, root := range c.LibRoots() {
			if _, err := libpath.Generate(root); err != nil {
				return err
			}
		}
		return nil
	case launch.CmdLib4bin:
		code, err := lib4bin.Passthrough(ctx, c.Self, c.BinDir, plan.Args, os.Environ())
		if err != nil {
			return err
		}
		if code != 0 {
			return cli.Exit("", code)
		}
		return nil
	case launch.CmdList:
		msg.Error("Specify the executable from: '%s'", c.BinDir)
		for _, name := range launch.ListTargets(c) {
			fmt.Fprintln(stdout, name)
		}
		return cli.Exit("", 1)
	}

	if plan.Mode != launch.NamedBinary {
		return execute.Direct(c, plan, os.Environ()).Run()
	}
	p, err := execute.Build(execute.Input{Context: c, Plan: plan, Environ: os.Environ()})
	if err != nil {
		return err
	}
	return p.Run()
}
