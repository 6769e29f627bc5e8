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

// QueryStrategy handles a dataset backed by an arbitrary SQL query. Download
// reads the query's result; upload materializes the result into a new table.
type QueryStrategy struct {
	baseStrategy
	query string
}

// NewQueryStrategy builds a query strategy for a raw SQL string.
func NewQueryStrategy(query string, env Env) (*QueryStrategy, error) {
	if env.Client == nil {
		return nil, configErrorf("a connection is required to use a query dataset")
	}
	return &QueryStrategy{baseStrategy: newBaseStrategy(env), query: query}, nil
}

func (q *QueryStrategy) Kind() Kind          { return KindQuery }
func (q *QueryStrategy) Frame() *frame.Frame { return nil }

func (q *QueryStrategy) GetQuery(ctx context.Context) (string, error) {
	return q.query, nil
}

// GetTableNames asks the service which tables the query reads from.
func (q *QueryStrategy) GetTableNames(ctx context.Context) ([]string, error) {
	probe := fmt.Sprintf("SELECT CDB_QueryTablesText('%s') AS tables", strings.ReplaceAll(q.query, "'", "''"))
	result, err := q.client.ExecuteQuery(ctx, probe)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) == 0 {
		return nil, nil
	}
	raw, _ := result.Rows[0]["tables"].(string)
	return parseTableList(raw), nil
}

// parseTableList splits a {a,b.c} text array, dropping schema qualifiers.
func parseTableList(raw string) []string {
	raw = strings.Trim(strings.TrimSpace(raw), "{}")
	if raw == "" {
		return nil
	}
	var tables []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if i := strings.LastIndex(entry, "."); i >= 0 {
			entry = entry[i+1:]
		}
		if entry != "" {
			tables = append(tables, entry)
		}
	}
	return tables
}

// Download discovers the query's columns with a LIMIT 0 probe, wraps the raw
// SQL as a subquery, and bulk-reads it through COPY.
func (q *QueryStrategy) Download(ctx context.Context, opts DownloadOptions) (*frame.Frame, error) {
	cols, err := q.queryColumns(ctx, q.query)
	if err != nil {
		return nil, err
	}
	return q.copyTo(ctx, cols, q.readQuery(cols, opts.Limit), opts)
}

func (q *QueryStrategy) readQuery(cols []columns.Column, limit *int) string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.Name != webmercatorColumn {
			names = append(names, c.Name)
		}
	}

	query := fmt.Sprintf("SELECT %s FROM (%s) _q", strings.Join(names, ", "), q.query)
	if limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *limit)
	}
	return query
}

// Upload materializes the query result into a new table. Appending to a
// query result is undefined and rejected before any network call.
func (q *QueryStrategy) Upload(ctx context.Context, opts UploadOptions) error {
	mode, err := validateIfExists(opts.IfExists)
	if err != nil {
		return err
	}
	if mode == IfExistsAppend {
		return &KindMismatchError{Kind: KindQuery, Op: "append to",
			Hint: "appending to a query result is not possible"}
	}
	if q.table == "" {
		return configErrorf("a table name is required to upload a query dataset")
	}

	if mode == IfExistsFail {
		present, err := q.exists(ctx)
		if err != nil {
			return err
		}
		if present {
			return q.alreadyExistsError()
		}
	}
	return q.createTableFromQuery(ctx)
}

// createTableFromQuery runs the materialization transaction: drop any
// previous table, create from the query, then register the table with the
// service's spatial bookkeeping.
func (q *QueryStrategy) createTableFromQuery(ctx context.Context) error {
	cartodbfy, err := q.cartodbfyQuery(ctx)
	if err != nil {
		return err
	}

	create := fmt.Sprintf("CREATE TABLE %s AS (%s)", q.table, q.query)
	batch := fmt.Sprintf("BEGIN; %s; %s; %s; COMMIT;", q.dropTableQuery(true), create, cartodbfy)

	if _, err := q.client.ExecuteLongRunning(ctx, batch); err != nil {
		if _, ok := sqlapi.AsRateLimit(err); ok {
			return err
		}
		return fmt.Errorf("cannot create table %q: %w", q.table, err)
	}
	return nil
}

func (q *QueryStrategy) Delete(ctx context.Context) (bool, error) {
	return false, &KindMismatchError{Kind: KindQuery, Op: "delete",
		Hint: "a query has no table identity to drop; use a table dataset instead"}
}

func (q *QueryStrategy) Exists(ctx context.Context) (bool, error) {
	return q.exists(ctx)
}

func (q *QueryStrategy) ComputeGeomType(ctx context.Context) (geom.Class, error) {
	return q.remoteGeomType(ctx, q.query)
}

// NumRows counts the query result's rows.
func (q *QueryStrategy) NumRows(ctx context.Context) (int64, error) {
	return countRows(ctx, q.client, fmt.Sprintf("SELECT COUNT(*) AS count FROM (%s) _query", q.query))
}
