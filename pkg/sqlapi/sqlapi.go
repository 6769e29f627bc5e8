// Package sqlapi defines the contract the dataset layer consumes from the
// hosted SQL service: interactive queries, long-running batch statements,
// and COPY-based bulk transfer. Concrete implementations live elsewhere
// (internal/pgapi provides the PostgreSQL-wire one); the dataset layer only
// ever talks to these interfaces.
package sqlapi

import (
	"context"
	"io"
)

// Field describes one column of a query result.
type Field struct {
	Name   string
	Type   string
	PGType string
}

// QueryResult is the parsed response of an interactive query.
type QueryResult struct {
	Rows      []map[string]any
	Fields    []Field
	TotalRows int
}

// Field returns the named field, if present.
func (r *QueryResult) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Job reports the outcome of a long-running batch statement.
type Job struct {
	ID           string
	Status       string
	FailedReason string
}

// Job status values.
const (
	JobDone   = "done"
	JobFailed = "failed"
)

// SQLClient executes interactive statements.
type SQLClient interface {
	// ExecuteQuery runs a statement synchronously and returns parsed rows
	// plus a field-type map.
	ExecuteQuery(ctx context.Context, sql string) (*QueryResult, error)
}

// BatchSQLClient executes DDL and transaction-wrapped statements expected to
// outlive an interactive timeout.
type BatchSQLClient interface {
	ExecuteLongRunning(ctx context.Context, sql string) (*Job, error)
}

// CopyClient moves bulk data through COPY.
type CopyClient interface {
	// Download runs a COPY ... TO stdout statement and returns the raw
	// stream. Rate-limited attempts are retried up to retryTimes with the
	// server-specified backoff before the error is surfaced.
	Download(ctx context.Context, copySQL string, retryTimes int) (io.ReadCloser, error)

	// Upload runs a COPY ... FROM stdin statement, streaming the
	// already-encoded rows.
	Upload(ctx context.Context, copySQL string, rows io.Reader) error
}

// Client is the full connection surface a dataset needs.
type Client interface {
	SQLClient
	BatchSQLClient
	CopyClient

	// CurrentSchema resolves the schema the connection's credentials
	// operate in.
	CurrentSchema(ctx context.Context) (string, error)
}
