package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mapframe-labs/mapframe/pkg/dataset"
	"github.com/mapframe-labs/mapframe/pkg/frame"
)

// NewUploadCmd creates the upload command.
func NewUploadCmd() *cobra.Command {
	var (
		tableName string
		ifExists  string
		lngLat    string
	)

	cmd := &cobra.Command{
		Use:   "upload <file.csv|file.geojson>",
		Short: "Upload a CSV or GeoJSON file as a table",
		Long: `Upload reads a local CSV or GeoJSON file and bulk-loads it into a new or
existing table. Column names are normalized to SQL-safe names; a geometry
column, or a lng/lat pair given with --lnglat, becomes the table's geometry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadSource(args[0])
			if err != nil {
				return err
			}

			ds, client, rt, err := openDataset(cmd, data)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			opts := dataset.UploadOptions{
				TableName: tableName,
				IfExists:  dataset.IfExists(ifExists),
			}
			if lngLat != "" {
				pair := strings.Split(lngLat, ",")
				if len(pair) != 2 {
					return fmt.Errorf("--lnglat expects two comma-separated column names, got %q", lngLat)
				}
				opts.WithLngLat = &dataset.LngLat{
					Lng: strings.TrimSpace(pair[0]),
					Lat: strings.TrimSpace(pair[1]),
				}
			} else if f := ds.Frame(); f != nil {
				if _, hasGeom := f.GeometryColumn(); !hasGeom {
					if lng, lat, ok := f.LngLatColumns(); ok {
						rt.Logger.Info("using coordinate columns as geometry",
							slog.String("lng", lng), slog.String("lat", lat))
						opts.WithLngLat = &dataset.LngLat{Lng: lng, Lat: lat}
					}
				}
			}

			if err := ds.Upload(cmd.Context(), opts); err != nil {
				return err
			}
			rt.Logger.Info("upload finished", slog.String("table", ds.TableName()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&tableName, "table", "t", "", "target table name (required)")
	cmd.Flags().StringVar(&ifExists, "if-exists", string(dataset.IfExistsFail), "behavior when the table exists: fail, replace or append")
	cmd.Flags().StringVar(&lngLat, "lnglat", "", "synthesize point geometries from two columns, e.g. --lnglat lng,lat")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

// loadSource turns a file path into dataset input: GeoJSON paths pass
// through (the dataset layer parses them), CSV files are read into a frame.
func loadSource(path string) (any, error) {
	if frame.IsGeoJSONPath(path) {
		return path, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	f, err := frame.ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return f, nil
}
