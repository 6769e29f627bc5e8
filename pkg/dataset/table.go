package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/mapframe-labs/mapframe/pkg/columns"
	"github.com/mapframe-labs/mapframe/pkg/frame"
	"github.com/mapframe-labs/mapframe/pkg/geom"
	"github.com/mapframe-labs/mapframe/pkg/sqlapi"
)

// TableStrategy handles a dataset backed by a remote table. Its legal
// operations are download, delete and the probes; it has no local payload to
// upload.
type TableStrategy struct {
	baseStrategy
}

// NewTableStrategy builds a table strategy for a (possibly denormalized)
// table name.
func NewTableStrategy(name string, env Env) (*TableStrategy, error) {
	if env.Client == nil {
		return nil, configErrorf("a connection is required to use table %q", name)
	}
	t := &TableStrategy{baseStrategy: newBaseStrategy(env)}
	t.SetTableName(name)
	return t, nil
}

func (t *TableStrategy) Kind() Kind          { return KindTable }
func (t *TableStrategy) Frame() *frame.Frame { return nil }

// GetQuery computes the read query for the full table.
func (t *TableStrategy) GetQuery(ctx context.Context) (string, error) {
	schema, err := t.resolveSchema(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`SELECT * FROM "%s"."%s"`, schema, t.table), nil
}

func (t *TableStrategy) GetTableNames(ctx context.Context) ([]string, error) {
	return []string{t.table}, nil
}

// Download introspects the table's columns, builds a read query excluding the
// service-managed webmercator column, and bulk-reads it through COPY.
func (t *TableStrategy) Download(ctx context.Context, opts DownloadOptions) (*frame.Frame, error) {
	cols, err := t.tableColumns(ctx)
	if err != nil {
		return nil, err
	}
	query, err := t.readQuery(ctx, cols, opts.Limit)
	if err != nil {
		return nil, err
	}
	return t.copyTo(ctx, cols, query, opts)
}

func (t *TableStrategy) Upload(ctx context.Context, opts UploadOptions) error {
	return &KindMismatchError{Kind: KindTable, Op: "upload",
		Hint: "nothing to push; use a frame, a GeoJSON source or a query to upload data"}
}

// Delete drops the table if it exists, reporting whether anything was
// dropped.
func (t *TableStrategy) Delete(ctx context.Context) (bool, error) {
	present, err := t.exists(ctx)
	if err != nil {
		return false, err
	}
	if !present {
		return false, nil
	}
	if _, err := t.client.ExecuteQuery(ctx, t.dropTableQuery(false)); err != nil {
		return false, err
	}
	return true, nil
}

func (t *TableStrategy) Exists(ctx context.Context) (bool, error) {
	return t.exists(ctx)
}

func (t *TableStrategy) ComputeGeomType(ctx context.Context) (geom.Class, error) {
	query, err := t.GetQuery(ctx)
	if err != nil {
		return geom.ClassUnknown, err
	}
	return t.remoteGeomType(ctx, query)
}

// NumRows counts the table's rows.
func (t *TableStrategy) NumRows(ctx context.Context) (int64, error) {
	return countRows(ctx, t.client, fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", t.table))
}

// tableColumns reads column names and types from information_schema. Access
// can be denied for read-only credentials; in that case the columns are
// recovered from a LIMIT 0 execution of the read query instead.
func (t *TableStrategy) tableColumns(ctx context.Context) ([]columns.Column, error) {
	schema, err := t.resolveSchema(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_name = '%s' AND table_schema = '%s'",
		t.table, schema)

	result, err := t.client.ExecuteQuery(ctx, query)
	if err != nil {
		if _, ok := sqlapi.AsRateLimit(err); ok {
			return nil, err
		}
		if se, ok := sqlapi.AsServiceError(err); ok && strings.Contains(se.Message, "Access denied") {
			readQuery, qerr := t.GetQuery(ctx)
			if qerr != nil {
				return nil, qerr
			}
			return t.queryColumns(ctx, readQuery)
		}
		return nil, err
	}

	cols := make([]columns.Column, 0, len(result.Rows))
	for _, row := range result.Rows {
		name, _ := row["column_name"].(string)
		pgType, _ := row["data_type"].(string)
		cols = append(cols, columns.FromPGType(name, pgType))
	}
	return cols, nil
}

// readQuery builds the COPY read query over the named columns.
func (t *TableStrategy) readQuery(ctx context.Context, cols []columns.Column, limit *int) (string, error) {
	schema, err := t.resolveSchema(ctx)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.Name != webmercatorColumn {
			names = append(names, c.Name)
		}
	}

	query := fmt.Sprintf(`SELECT %s FROM "%s"."%s"`, strings.Join(names, ", "), schema, t.table)
	if limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *limit)
	}
	return query, nil
}

func countRows(ctx context.Context, client sqlapi.SQLClient, query string) (int64, error) {
	result, err := client.ExecuteQuery(ctx, query)
	if err != nil {
		return 0, err
	}
	if len(result.Rows) == 0 {
		return 0, fmt.Errorf("empty count result")
	}
	switch v := result.Rows[0]["count"].(type) {
	case int64:
		return v, nil
	case string:
		var n int64
		if _, err := fmt.Sscan(v, &n); err != nil {
			return 0, fmt.Errorf("unexpected count value %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected count value of type %T", v)
	}
}
