package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mapframe-labs/mapframe/pkg/columns"
	"github.com/mapframe-labs/mapframe/pkg/frame"
	"github.com/mapframe-labs/mapframe/pkg/geom"
	"github.com/mapframe-labs/mapframe/pkg/sqlapi"
)

// webmercatorColumn is maintained by the service for rendering and is never
// downloaded.
const webmercatorColumn = "the_geom_webmercator"

// baseStrategy carries the state and remote helpers shared by the three
// strategy variants: connection, target table and schema, the existence
// probe, the COPY TO pipeline, and geometry-type sampling.
type baseStrategy struct {
	client sqlapi.Client
	table  string
	schema string
	logger *slog.Logger
}

func newBaseStrategy(env Env) baseStrategy {
	return baseStrategy{
		client: env.Client,
		schema: env.Schema,
		logger: env.logger(),
	}
}

func (b *baseStrategy) TableName() string         { return b.table }
func (b *baseStrategy) Schema() string            { return b.schema }
func (b *baseStrategy) Client() sqlapi.Client     { return b.client }
func (b *baseStrategy) SetSchema(schema string)   { b.schema = schema }
func (b *baseStrategy) SetClient(c sqlapi.Client) { b.client = c }

// SetTableName normalizes the name the same way column names are normalized
// and logs when the stored name differs from the requested one.
func (b *baseStrategy) SetTableName(name string) {
	normalized := columns.NormalizeName(name)
	if normalized != name {
		b.logger.Info("table will be renamed", slog.String("requested", name), slog.String("table", normalized))
	}
	b.table = normalized
}

// resolveSchema returns the target schema, asking the service for the
// connection's current schema the first time when none was configured.
func (b *baseStrategy) resolveSchema(ctx context.Context) (string, error) {
	if b.schema != "" {
		return b.schema, nil
	}
	if b.client == nil {
		return "", configErrorf("a connection is required to resolve the schema")
	}
	schema, err := b.client.CurrentSchema(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve schema: %w", err)
	}
	b.schema = schema
	return schema, nil
}

// exists probes the target table with an EXPLAIN SELECT. Any service error is
// taken as evidence of absence; rate-limit errors are re-raised since they
// say nothing about whether the table exists.
func (b *baseStrategy) exists(ctx context.Context) (bool, error) {
	if b.client == nil {
		return false, configErrorf("a connection is required to check whether table %q exists", b.table)
	}
	if b.table == "" {
		return false, configErrorf("a table name is required to check existence")
	}

	probe := fmt.Sprintf(`EXPLAIN SELECT * FROM "%s"`, b.table)
	if _, err := b.client.ExecuteQuery(ctx, probe); err != nil {
		if _, ok := sqlapi.AsRateLimit(err); ok {
			return false, err
		}
		if _, ok := sqlapi.AsServiceError(err); ok {
			b.logger.Debug("existence probe failed, treating as absent",
				slog.String("table", b.table), slog.String("error", err.Error()))
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *baseStrategy) dropTableQuery(ifExists bool) string {
	clause := ""
	if ifExists {
		clause = "IF EXISTS "
	}
	return fmt.Sprintf("DROP TABLE %s%s", clause, b.table)
}

// cartodbfyQuery registers the table with the service's spatial-table
// bookkeeping.
func (b *baseStrategy) cartodbfyQuery(ctx context.Context) (string, error) {
	schema, err := b.resolveSchema(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT CDB_CartodbfyTable('%s', '%s')", schema, b.table), nil
}

func (b *baseStrategy) alreadyExistsError() error {
	return &AlreadyExistsError{Table: b.table, Schema: b.schema}
}

// queryColumns discovers a query's column names and types by executing it
// with LIMIT 0.
func (b *baseStrategy) queryColumns(ctx context.Context, query string) ([]columns.Column, error) {
	probe := fmt.Sprintf("SELECT * FROM (%s) _q LIMIT 0", query)
	result, err := b.client.ExecuteQuery(ctx, probe)
	if err != nil {
		return nil, err
	}
	cols := make([]columns.Column, len(result.Fields))
	for i, field := range result.Fields {
		cols[i] = columns.FromPGType(field.Name, field.PGType)
	}
	return cols, nil
}

// copyTo runs the COPY-based bulk read for a read query and materializes the
// CSV stream into a frame, applying per-column type coercion. With DecodeGeom
// set, geometry cells are decoded from hex-EWKB and the_geom is renamed to
// geometry.
func (b *baseStrategy) copyTo(ctx context.Context, cols []columns.Column, query string, opts DownloadOptions) (*frame.Frame, error) {
	copyQuery := fmt.Sprintf("COPY (%s) TO stdout WITH (FORMAT csv, HEADER true, NULL '%s')", query, columns.NullSentinel)

	stream, err := b.client.Download(ctx, copyQuery, opts.RetryTimes)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stream.Close() }()

	f, err := decodeCSV(stream, cols, opts.DecodeGeom)
	if err != nil {
		return nil, err
	}
	if opts.DecodeGeom {
		f.Rename("the_geom", "geometry")
	}
	return f, nil
}

// decodeCSV parses a header-first CSV stream into a frame using the column
// metadata for type coercion. Columns present in the stream but missing from
// the metadata decode as text.
func decodeCSV(stream io.Reader, cols []columns.Column, decodeGeom bool) (*frame.Frame, error) {
	byName := make(map[string]columns.Column, len(cols))
	for _, c := range cols {
		byName[c.Name] = c
	}

	reader := csv.NewReader(stream)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return frame.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result header: %w", err)
	}

	fields := make([]columns.Column, len(header))
	values := make([][]any, len(header))
	for i, name := range header {
		if c, ok := byName[name]; ok {
			fields[i] = c
		} else {
			fields[i] = columns.Column{Name: name, Type: frame.String}
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read result row: %w", err)
		}
		for i, cell := range record {
			v, err := columns.Convert(cell, fields[i], decodeGeom)
			if err != nil {
				return nil, err
			}
			values[i] = append(values[i], v)
		}
	}

	f := frame.New()
	for i, col := range fields {
		if err := f.Add(&frame.Series{Name: col.Name, Type: col.Type, Values: values[i]}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// remoteGeomType samples up to 5 distinct geometry type names from a query
// and maps the first to its class. Service errors mean no usable geometry,
// not a failed call; rate limits are still surfaced.
func (b *baseStrategy) remoteGeomType(ctx context.Context, query string) (geom.Class, error) {
	probe := fmt.Sprintf("SELECT DISTINCT ST_GeometryType(the_geom) AS geom_type FROM (%s) q LIMIT 5", query)
	result, err := b.client.ExecuteQuery(ctx, probe)
	if err != nil {
		if _, ok := sqlapi.AsRateLimit(err); ok {
			return geom.ClassUnknown, err
		}
		b.logger.Debug("geometry type probe failed", slog.String("error", err.Error()))
		return geom.ClassUnknown, nil
	}
	if len(result.Rows) == 0 {
		return geom.ClassUnknown, nil
	}
	name, _ := result.Rows[0]["geom_type"].(string)
	name = strings.TrimPrefix(name, "ST_")
	class, _ := geom.MapClass(name)
	return class, nil
}

// validateIfExists fills in the default and rejects unknown modes before any
// I/O happens.
func validateIfExists(mode IfExists) (IfExists, error) {
	switch mode {
	case "":
		return IfExistsFail, nil
	case IfExistsFail, IfExistsReplace, IfExistsAppend:
		return mode, nil
	default:
		return "", configErrorf("invalid if-exists mode %q: expected fail, replace or append", mode)
	}
}

// applyOverrides installs the per-call table, schema and connection overrides
// on a strategy ahead of an upload.
func applyOverrides(s Strategy, opts UploadOptions) {
	if opts.TableName != "" {
		s.SetTableName(opts.TableName)
	}
	if opts.Schema != "" {
		s.SetSchema(opts.Schema)
	}
	if opts.Client != nil {
		s.SetClient(opts.Client)
	}
}
