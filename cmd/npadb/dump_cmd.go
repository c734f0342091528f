package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/natashamoorfield/npm-npadb-admin/internal/report"
)

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Write a timestamped, gzipped dump of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			console := report.NewConsole(a.out, a.quiet)
			return withCode(exitFatal, a.dump(cmd.Context(), console))
		},
	}
}

func (a *app) dump(ctx context.Context, console *report.Console) error {
	d, err := a.newDumper(ctx)
	if err != nil {
		return err
	}
	res, err := d.Dump(ctx)
	if err != nil {
		return err
	}

	console.Notice("Backup %s written to %s (%d bytes)", res.ID, res.Path, res.Bytes)
	if res.ObjectKey != "" {
		console.Notice("Uploaded to %s", res.ObjectKey)
	}
	return nil
}
