package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/xplshn/sharun/pkg/lib4bin"
	"github.com/xplshn/sharun/pkg/msg"
)

func main() {
	app := &cli.Command{
		Name:      "lib4bin",
		Usage:     "Pack ELF binaries and their libraries into a sharun bundle",
		ArgsUsage: "ELF...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dst-dir",
				Aliases: []string{"d"},
				Usage:   "Destination directory for libraries and binaries",
				Value:   "output",
				Sources: cli.EnvVars("DST_DIR"),
			},
			&cli.StringFlag{
				Name:    "sharun",
				Usage:   "Launcher to copy into the bundle (default: sharun from $PATH)",
				Sources: cli.EnvVars("SHARUN"),
			},
			&cli.BoolFlag{
				Name:    "strip",
				Aliases: []string{"s"},
				Usage:   "Strip debug symbols",
			},
			&cli.BoolFlag{
				Name:    "hard-links",
				Aliases: []string{"k"},
				Usage:   "Hardlink bin/ entries to sharun instead of symlinking",
			},
			&cli.StringFlag{
				Name:    "app-name",
				Aliases: []string{"n"},
				Usage:   "Write .app so that an AppRun link starts this binary",
			},
			&cli.BoolFlag{
				Name:  "with-desktop",
				Usage: "Copy the host's desktop entry for --app-name",
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"r"},
				Usage:   "Write a JSON report of the packed files ('-' for stdout)",
			},
			&cli.StringFlag{
				Name:    "archive",
				Aliases: []string{"a"},
				Usage:   "Pack the finished bundle into this .tar.zst file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() == 0 {
				return fmt.Errorf("specify the ELF binary executable")
			}
			p := lib4bin.New(lib4bin.Options{
				DstDir:      c.String("dst-dir"),
				Sharun:      c.String("sharun"),
				Strip:       c.Bool("strip"),
				HardLinks:   c.Bool("hard-links"),
				AppName:     c.String("app-name"),
				WithDesktop: c.Bool("with-desktop"),
				Report:      c.String("report"),
				Archive:     c.String("archive"),
			})
			_, err := p.Pack(ctx, c.Args().Slice())
			return err
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		msg.Fatal(err)
	}
}
