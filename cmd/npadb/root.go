package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/natashamoorfield/npm-npadb-admin/internal/config"
	"github.com/natashamoorfield/npm-npadb-admin/internal/lgro"
	"github.com/natashamoorfield/npm-npadb-admin/internal/logging"
)

// app carries what every subcommand shares. Tests replace open and
// newDumper to run commands without a database or pg_dump.
type app struct {
	verbose int
	quiet   bool

	getenv func(string) string
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	logger *slog.Logger

	open      func(ctx context.Context) (*session, error)
	newDumper func(ctx context.Context) (dumper, error)
}

func newApp() *app {
	a := &app{
		getenv: os.Getenv,
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	a.open = a.openSession
	a.newDumper = a.buildDumper
	return a
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "npadb",
		Short:         "Gazetteer database administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	cmd.PersistentFlags().CountVarP(&a.verbose, "verbose", "v", "more output; repeat for debug logging")
	cmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "only report problems")
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	cmd.AddCommand(newLGROCmd(a))
	cmd.AddCommand(newDumpCmd(a))
	cmd.AddCommand(newGSSCmd(a))
	cmd.AddCommand(newTablesCmd(a))
	cmd.AddCommand(newServeCmd(a))
	return cmd
}

// setup loads configuration and installs the logger.
func (a *app) setup() error {
	cfg, err := config.LoadFrom(a.getenv)
	if err != nil {
		return withCode(exitFatal, err)
	}
	a.cfg = cfg
	a.logger = logging.Setup(logging.Level(cfg.Logging.Level, a.verbose, a.quiet), cfg.Logging.Format, a.errOut)
	a.logger.Debug("configuration loaded", "config", cfg.String())
	return nil
}

func Execute() {
	os.Exit(run(newApp(), os.Args[1:]))
}

func run(a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	code := exitCode(err)
	if code == 1 {
		// cobra's own argument and command errors
		code = exitUsage
	}
	fmt.Fprintln(a.errOut, "Error:", err)
	if msg := lgro.MapError(err); msg.Code != "ERR000" && code == exitFatal {
		fmt.Fprintln(a.errOut, lgro.FormatUserError(err))
	}
	return code
}
