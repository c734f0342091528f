package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/natashamoorfield/npm-npadb-admin/internal/gss"
	"github.com/natashamoorfield/npm-npadb-admin/internal/logging"
)

func newGSSCmd(a *app) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "district-gss",
		Short: "Import GSS admin-area codes for districts",
		Long: `Read district_name<TAB>gss_code rows and store each code against the one
matching district that does not already carry a different code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if source == "" {
				source = gss.DefaultSource(a.cfg.Data.Root)
			}
			return a.runGSS(cmd.Context(), source)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "tab-separated input (default <data root>/updates/gss_admin_areas.csv)")
	return cmd
}

func (a *app) runGSS(ctx context.Context, source string) error {
	f, err := os.Open(source)
	if err != nil {
		return withCode(exitFatal, fmt.Errorf("open gss source: %w", err))
	}
	defer f.Close()

	sess, err := a.open(ctx)
	if err != nil {
		return withCode(exitFatal, err)
	}
	defer sess.Close()

	ctx, _ = logging.WithRunID(ctx)
	logger := logging.WithFields(ctx, "source", source)

	im := &gss.Importer{Store: sess.Store, Logger: logger}
	res, err := im.Import(ctx, f)
	if werr := gss.WriteReport(a.out, res); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		return withCode(exitFatal, err)
	}

	logger.Info("gss import finished", "processed", res.Processed, "updated", res.Updated, "errors", res.Errors)
	if res.Errors > 0 {
		return withCode(exitFailures, fmt.Errorf("%d gss rows not applied", res.Errors))
	}
	return nil
}
