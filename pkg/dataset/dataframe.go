package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/paulmach/orb"

	"github.com/mapframe-labs/mapframe/pkg/columns"
	"github.com/mapframe-labs/mapframe/pkg/frame"
	"github.com/mapframe-labs/mapframe/pkg/geom"
	"github.com/mapframe-labs/mapframe/pkg/sqlapi"
)

// geomUploadColumn is the geometry column name the service expects on
// upload.
const geomUploadColumn = "the_geom"

// DataFrameStrategy handles a dataset backed by a local in-memory frame. Its
// one remote operation is upload; the data never needs downloading because it
// is already local.
type DataFrameStrategy struct {
	baseStrategy
	df *frame.Frame
}

// NewDataFrameStrategy wraps a frame. A connection is optional at
// construction time and may be supplied later through upload options.
func NewDataFrameStrategy(f *frame.Frame, env Env) (*DataFrameStrategy, error) {
	if f == nil {
		return nil, configErrorf("a frame is required to build a dataframe dataset")
	}
	return &DataFrameStrategy{baseStrategy: newBaseStrategy(env), df: f}, nil
}

func (d *DataFrameStrategy) Kind() Kind          { return KindDataFrame }
func (d *DataFrameStrategy) Frame() *frame.Frame { return d.df }

func (d *DataFrameStrategy) GetQuery(ctx context.Context) (string, error) {
	return "", &KindMismatchError{Kind: KindDataFrame, Op: "compute a read query for",
		Hint: "a local frame is not backed by SQL"}
}

func (d *DataFrameStrategy) GetTableNames(ctx context.Context) ([]string, error) {
	if d.table != "" {
		return []string{d.table}, nil
	}
	return nil, nil
}

func (d *DataFrameStrategy) Download(ctx context.Context, opts DownloadOptions) (*frame.Frame, error) {
	return nil, &KindMismatchError{Kind: KindDataFrame, Op: "download",
		Hint: "the data is already local"}
}

// Upload pushes the frame to a new or existing table: compute the column
// normalization plan, create the table unless appending to an existing one,
// then stream the encoded rows through COPY.
func (d *DataFrameStrategy) Upload(ctx context.Context, opts UploadOptions) error {
	mode, err := validateIfExists(opts.IfExists)
	if err != nil {
		return err
	}
	if d.table == "" || d.client == nil {
		return configErrorf("a table name and a connection are required to upload data")
	}

	plan := columns.Plan(d.df.Columns())
	d.logPlan(plan)

	if mode == IfExistsReplace {
		if err := d.createTable(ctx, plan, opts.WithLngLat); err != nil {
			return err
		}
	} else {
		present, err := d.exists(ctx)
		if err != nil {
			return err
		}
		switch {
		case !present:
			if err := d.createTable(ctx, plan, opts.WithLngLat); err != nil {
				return err
			}
		case mode == IfExistsFail:
			return d.alreadyExistsError()
		}
	}

	return d.copyFrom(ctx, plan, opts.WithLngLat)
}

func (d *DataFrameStrategy) Delete(ctx context.Context) (bool, error) {
	return false, &KindMismatchError{Kind: KindDataFrame, Op: "delete",
		Hint: "a local frame has no remote identity to drop; use a table dataset instead"}
}

func (d *DataFrameStrategy) Exists(ctx context.Context) (bool, error) {
	return d.exists(ctx)
}

// ComputeGeomType inspects the first non-null value of the frame's geometry
// column.
func (d *DataFrameStrategy) ComputeGeomType(ctx context.Context) (geom.Class, error) {
	return geom.ClassOf(d.localGeometry()), nil
}

// localGeometry returns the first decodable non-null geometry in the frame.
func (d *DataFrameStrategy) localGeometry() orb.Geometry {
	col, ok := d.df.GeometryColumn()
	if !ok {
		return nil
	}
	v := d.df.FirstNonNull(col)
	if v == nil {
		return nil
	}
	g, err := geom.Decode(v)
	if err != nil {
		return nil
	}
	return g
}

func (d *DataFrameStrategy) logPlan(plan []columns.Mapping) {
	for _, m := range plan {
		if m.Original != m.Normalized {
			d.logger.Info("column will be renamed in the remote copy",
				slog.String("column", m.Original), slog.String("renamed", m.Normalized))
		}
	}
}

// createTable runs the creation transaction: drop any previous table, create
// one column per plan entry plus a geometry column when the frame carries
// geometry, then register the table with the service's spatial bookkeeping.
func (d *DataFrameStrategy) createTable(ctx context.Context, plan []columns.Mapping, withLngLat *LngLat) error {
	cartodbfy, err := d.cartodbfyQuery(ctx)
	if err != nil {
		return err
	}

	defs := make([]string, 0, len(plan)+1)
	for _, m := range plan {
		pgType := "text"
		if s, ok := d.df.Series(m.Original); ok {
			pgType = columns.TypeToPG(s.Type)
		}
		defs = append(defs, m.Normalized+" "+pgType)
	}
	if geomType := d.geomTypeName(withLngLat); geomType != "" {
		defs = append(defs, fmt.Sprintf("%s geometry(%s, %d)", geomUploadColumn, geomType, geom.SRID))
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)", d.table, strings.Join(defs, ", "))
	batch := fmt.Sprintf("BEGIN; %s; %s; %s; COMMIT;", d.dropTableQuery(true), create, cartodbfy)

	if _, err := d.client.ExecuteLongRunning(ctx, batch); err != nil {
		if _, ok := sqlapi.AsRateLimit(err); ok {
			return err
		}
		return fmt.Errorf("cannot create table %q: %w", d.table, err)
	}
	return nil
}

// geomTypeName picks the geometry column type for CREATE TABLE. Lng/lat
// pairs only ever produce points; otherwise the dominant type is taken from
// the frame's first non-null geometry.
func (d *DataFrameStrategy) geomTypeName(withLngLat *LngLat) string {
	if withLngLat != nil {
		return "Point"
	}
	if g := d.localGeometry(); g != nil {
		return geom.TypeName(g)
	}
	if _, ok := d.df.GeometryColumn(); ok {
		d.logger.Warn("frame has a geometry column with only null geometries")
	}
	return ""
}

// copyFrom streams the frame through COPY FROM stdin.
func (d *DataFrameStrategy) copyFrom(ctx context.Context, plan []columns.Mapping, withLngLat *LngLat) error {
	geomCol, hasGeom := d.df.GeometryColumn()
	includeGeom := hasGeom || withLngLat != nil

	names := make([]string, 0, len(plan)+1)
	for _, m := range plan {
		names = append(names, m.Normalized)
	}
	if includeGeom {
		names = append(names, geomUploadColumn)
	}

	copySQL := fmt.Sprintf("COPY %s(%s) FROM stdin WITH (FORMAT csv, DELIMITER '|', NULL '%s');",
		d.table, strings.Join(names, ","), columns.NullSentinel)

	rows, err := encodeRows(d.df, plan, geomCol, withLngLat, includeGeom)
	if err != nil {
		return err
	}
	return d.client.Upload(ctx, copySQL, rows)
}
