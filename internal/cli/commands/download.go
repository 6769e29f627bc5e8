package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapframe-labs/mapframe/pkg/dataset"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	var (
		limit      int
		decodeGeom bool
		out        string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "download <table|query>",
		Short: "Download a table or query result",
		Long: `Download bulk-reads a remote table or an arbitrary SQL query into local
tabular data. The result is printed as a table, or written as CSV with --out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, client, rt, err := openDataset(cmd, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			opts := dataset.DownloadOptions{
				DecodeGeom: decodeGeom,
				RetryTimes: rt.Config.RetryTimes,
			}
			if cmd.Flags().Changed("limit") {
				opts.Limit = &limit
			}

			f, err := ds.Download(cmd.Context(), opts)
			if err != nil {
				return err
			}
			rt.Logger.Debug("download finished",
				slog.Int("rows", f.NumRows()), slog.Int("columns", f.NumCols()))

			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() { _ = file.Close() }()
				return writeFrameCSV(file, f)
			}
			if format == "csv" {
				return writeFrameCSV(cmd.OutOrStdout(), f)
			}
			renderFrame(cmd.OutOrStdout(), f)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of rows to download")
	cmd.Flags().BoolVar(&decodeGeom, "decode-geom", false, "decode geometry values into WKT output")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the result to a CSV file")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or csv")

	return cmd
}
