package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List gazetteer tables with their row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTables(cmd.Context())
		},
	}
}

func (a *app) runTables(ctx context.Context) error {
	sess, err := a.open(ctx)
	if err != nil {
		return withCode(exitFatal, err)
	}
	defer sess.Close()

	counts, err := sess.Store.TableCounts(ctx)
	if err != nil {
		return withCode(exitFatal, err)
	}

	data := pterm.TableData{{"Table", "Rows"}}
	for _, c := range counts {
		data = append(data, []string{c.Table, strconv.FormatInt(c.Rows, 10)})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return withCode(exitFatal, err)
	}
	_, err = fmt.Fprintln(a.out, out)
	return withCode(exitFatal, err)
}
