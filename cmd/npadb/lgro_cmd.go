package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/natashamoorfield/npm-npadb-admin/internal/lgro"
	"github.com/natashamoorfield/npm-npadb-admin/internal/logging"
	"github.com/natashamoorfield/npm-npadb-admin/internal/report"
)

type lgroOptions struct {
	year   int
	dryRun bool
	backup bool
	yes    bool
}

func newLGROCmd(a *app) *cobra.Command {
	var opts lgroOptions

	cmd := &cobra.Command{
		Use:   "lgro <year>",
		Short: "Apply the local government reorganization for a year",
		Long: `Create the new districts listed in updates/lgro-<year>.json (or .yaml)
and abolish the districts they replace, moving their towns and gazetteer
entries across. Reorganizations take effect on 1 April of the year.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil || year <= 0 {
				return withCode(exitUsage, fmt.Errorf("invalid year %q", args[0]))
			}
			opts.year = year
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLGRO(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "d", false, "show what would change without writing")
	cmd.Flags().BoolVarP(&opts.backup, "backup", "b", false, "dump the database before committing")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "commit without asking")
	return cmd
}

// choose decides between committing, backing up first, dry-running and
// aborting. Flags answer for the operator; otherwise they are asked.
func (a *app) choose(opts lgroOptions) (report.Choice, error) {
	switch {
	case opts.dryRun:
		return report.ChoiceDryRun, nil
	case opts.backup:
		return report.ChoiceBackup, nil
	case opts.yes || a.quiet:
		return report.ChoiceProceed, nil
	}
	return report.Confirm(a.in, a.out)
}

func (a *app) runLGRO(ctx context.Context, opts lgroOptions) error {
	ctx, runID := logging.WithRunID(ctx)
	logger := logging.WithFields(ctx, "year", opts.year)
	console := report.NewConsole(a.out, a.quiet)

	event, err := lgro.LoadEvent(a.cfg.Data.Root, opts.year)
	if err != nil {
		return withCode(exitFatal, err)
	}

	sess, err := a.open(ctx)
	if err != nil {
		return withCode(exitFatal, err)
	}
	defer sess.Close()

	metrics := lgro.NewMetrics()
	o := lgro.New(sess.Store, event,
		lgro.WithReporter(report.Multi{console, report.NewLog(logger)}),
		lgro.WithLogger(logger),
		lgro.WithMetrics(metrics),
	)

	// Resolve before asking so the operator sees what will be skipped.
	console.Header("Local Government Reorganization %d", opts.year)
	o.Resolve(ctx)
	if n := lgro.Summarize(event, true).Failures(); n > 0 {
		console.Notice("%d entities did not resolve and will be skipped.", n)
	}

	choice, err := a.choose(opts)
	if err != nil {
		return withCode(exitFatal, err)
	}
	if choice == report.ChoiceAbort {
		console.Success("LGReorg safely aborted.")
		return nil
	}
	logger.Info("reorganization starting", "mode", choice.String(), "counties", len(event.Counties))

	if choice == report.ChoiceBackup {
		if err := a.dump(ctx, console); err != nil {
			return withCode(exitFatal, fmt.Errorf("backup before reorganization: %w", err))
		}
	}

	var summary lgro.Summary
	if choice == report.ChoiceDryRun {
		summary = o.DryRun(ctx)
		if err := console.WritePlanTree(event); err != nil {
			return withCode(exitFatal, err)
		}
	} else {
		summary = o.Commit(ctx)
	}

	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		logger.Warn("metrics not written", "error", err)
	}
	if err := console.Summary(summary); err != nil {
		return withCode(exitFatal, err)
	}
	logger.Info("reorganization finished",
		"mode", summary.Mode(),
		"created", len(summary.Created),
		"abolished", len(summary.Abolished),
		"failures", summary.Failures(),
	)

	if n := summary.Failures(); n > 0 {
		return withCode(exitFailures, fmt.Errorf("run %s: %d entities skipped or failed", runID, n))
	}
	return nil
}
