package commands

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mapframe-labs/mapframe/pkg/dataset"
)

type rowCounter interface {
	NumRows(ctx context.Context) (int64, error)
}

// NewDescribeCmd creates the describe command.
func NewDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table|query>",
		Short: "Show the columns, types and row count of a table or query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, client, rt, err := openDataset(cmd, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			var rows int64 = -1
			if rc, ok := ds.Strategy().(rowCounter); ok {
				if n, err := rc.NumRows(cmd.Context()); err == nil {
					rows = n
				}
			}

			opts := dataset.DownloadOptions{RetryTimes: rt.Config.RetryTimes}.Limited(0)
			f, err := ds.Download(cmd.Context(), opts)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"column", "type"})
			for _, col := range f.Columns() {
				s, _ := f.Series(col)
				t.AppendRow(table.Row{col, s.Type.String()})
			}
			t.Render()

			if rows >= 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d rows\n", rows)
			}
			return nil
		},
	}
}
