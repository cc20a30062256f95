// Command vela is the host-layer CLI demonstrating the engine package's
// embedding API: run a script file, run an inline snippet, or drop into
// an interactive REPL. Shaped after the teacher's cmd/hey binary (one
// urfave/cli/v3 Command with a handful of flags plus a fallback to
// reading stdin), but trimmed to this engine's surface.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wudi/vela/config"
	"github.com/wudi/vela/engine"
	"github.com/wudi/vela/parser"
	"github.com/wudi/vela/version"
)

func main() {
	app := &cli.Command{
		Name:    "vela",
		Usage:   "An embeddable ECMAScript core engine",
		Version: version.Version(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "eval",
				Aliases: []string{"e"},
				Usage:   "evaluate <code> instead of reading a file or stdin",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a RealmConfig YAML file",
			},
			&cli.BoolFlag{
				Name:    "repl",
				Aliases: []string{"i"},
				Usage:   "start an interactive REPL",
			},
		},
		Action: runAction,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		os.Exit(1)
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if cmd.Bool("repl") {
		return runRepl(cfg)
	}

	if code := cmd.String("eval"); code != "" {
		return runSource(cfg, []byte(code))
	}

	if args := cmd.Args().Slice(); len(args) > 0 {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return runSource(cfg, src)
	}

	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	return runSource(cfg, src)
}

func loadConfig(path string) (config.RealmConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runSource(cfg config.RealmConfig, src []byte) error {
	c := engine.New(cfg, engine.ParserFunc(parser.Parse))
	engine.Bootstrap(c, os.Stdout)

	_, err := c.Execute(src)
	if err != nil {
		return fmt.Errorf("%s", c.FormatError(err))
	}
	return nil
}
