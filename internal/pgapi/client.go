// Package pgapi implements the sqlapi contract over the service's
// PostgreSQL wire protocol using pgx. Interactive queries go through
// database/sql; the COPY paths drop down to the raw pgconn connection.
package pgapi

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/mapframe-labs/mapframe/pkg/sqlapi"
)

// Config holds the connection settings for the service.
type Config struct {
	// Host is the service hostname.
	Host string

	// Port is the port number; 5432 when zero.
	Port int

	// Database is the database name.
	Database string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// Schema is the default schema; resolved from the connection when empty.
	Schema string

	// Options contains additional driver options (e.g. sslmode).
	Options map[string]string
}

// Client is the PostgreSQL-wire implementation of sqlapi.Client.
type Client struct {
	db     *sql.DB
	cfg    Config
	logger *slog.Logger
}

// New creates an unconnected client. If logger is nil, a discard logger is
// used.
func New(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{logger: logger}
}

// Connect establishes and verifies the connection.
func (c *Client) Connect(ctx context.Context, cfg Config) error {
	dsn := buildDSN(cfg)

	c.logger.Debug("connecting to service", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping service: %w", err)
	}

	c.db = db
	c.cfg = cfg
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.db != nil {
		c.logger.Debug("closing connection")
		return c.db.Close()
	}
	return nil
}

// buildDSN constructs a key=value connection string.
func buildDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", host, port, cfg.Database, sslmode)
	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}

// ExecuteQuery runs an interactive statement and parses the full result.
func (c *Client) ExecuteQuery(ctx context.Context, sqlStr string) (*sqlapi.QueryResult, error) {
	if c.db == nil {
		return nil, fmt.Errorf("connection not established")
	}

	rows, err := c.db.QueryContext(ctx, strings.TrimSpace(sqlStr))
	if err != nil {
		return nil, &sqlapi.ServiceError{Message: err.Error()}
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read result column types: %w", err)
	}

	result := &sqlapi.QueryResult{Fields: make([]sqlapi.Field, len(names))}
	for i, name := range names {
		pgType := strings.ToLower(types[i].DatabaseTypeName())
		result.Fields[i] = sqlapi.Field{Name: name, Type: pgType, PGType: pgType}
	}

	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}

		row := make(map[string]any, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &sqlapi.ServiceError{Message: err.Error()}
	}

	result.TotalRows = len(result.Rows)
	return result, nil
}

// ExecuteLongRunning runs a batch statement (typically a transaction block)
// to completion and reports it as a finished job.
func (c *Client) ExecuteLongRunning(ctx context.Context, sqlStr string) (*sqlapi.Job, error) {
	if c.db == nil {
		return nil, fmt.Errorf("connection not established")
	}

	job := &sqlapi.Job{ID: uuid.NewString()}
	if _, err := c.db.ExecContext(ctx, strings.TrimSpace(sqlStr)); err != nil {
		job.Status = sqlapi.JobFailed
		job.FailedReason = err.Error()
		return job, &sqlapi.ServiceError{Message: err.Error()}
	}
	job.Status = sqlapi.JobDone
	return job, nil
}

// Download runs COPY ... TO stdout and returns the raw stream. Rate-limited
// attempts are retried up to retryTimes with the server-specified backoff.
func (c *Client) Download(ctx context.Context, copySQL string, retryTimes int) (io.ReadCloser, error) {
	if c.db == nil {
		return nil, fmt.Errorf("connection not established")
	}

	var out io.ReadCloser
	err := sqlapi.Retry(ctx, retryTimes, c.logger, func() error {
		buf, err := c.copyTo(ctx, strings.TrimSpace(copySQL))
		if err != nil {
			return err
		}
		out = io.NopCloser(buf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) copyTo(ctx context.Context, copySQL string) (*bytes.Buffer, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var buf bytes.Buffer
	err = conn.Raw(func(driverConn any) error {
		pgxConn := driverConn.(*stdlib.Conn).Conn()
		if _, err := pgxConn.PgConn().CopyTo(ctx, &buf, copySQL); err != nil {
			return &sqlapi.ServiceError{Message: err.Error()}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &buf, nil
}

// Upload runs COPY ... FROM stdin, streaming the encoded rows.
func (c *Client) Upload(ctx context.Context, copySQL string, data io.Reader) error {
	if c.db == nil {
		return fmt.Errorf("connection not established")
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		pgxConn := driverConn.(*stdlib.Conn).Conn()
		if _, err := pgxConn.PgConn().CopyFrom(ctx, data, strings.TrimSpace(copySQL)); err != nil {
			return &sqlapi.ServiceError{Message: err.Error()}
		}
		return nil
	})
}

// CurrentSchema resolves the schema for the connection's credentials.
func (c *Client) CurrentSchema(ctx context.Context) (string, error) {
	if c.cfg.Schema != "" {
		return c.cfg.Schema, nil
	}
	result, err := c.ExecuteQuery(ctx, "select current_schema()")
	if err != nil {
		return "", err
	}
	if len(result.Rows) == 0 {
		return "", fmt.Errorf("empty current_schema() result")
	}
	schema, _ := result.Rows[0]["current_schema"].(string)
	return schema, nil
}

var _ sqlapi.Client = (*Client)(nil)
