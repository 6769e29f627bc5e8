package pgapi

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapframe-labs/mapframe/internal/testutil"
	"github.com/mapframe-labs/mapframe/pkg/sqlapi"
)

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := New(testutil.NewTestLogger(t))
	c.db = db
	return c, mock
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected string
	}{
		{
			name:     "defaults",
			cfg:      Config{Database: "geo"},
			expected: "host=localhost port=5432 dbname=geo sslmode=disable",
		},
		{
			name: "full",
			cfg: Config{
				Host: "db.example.com", Port: 6543, Database: "geo",
				Username: "carto", Password: "secret",
			},
			expected: "host=db.example.com port=6543 dbname=geo sslmode=disable user=carto password=secret",
		},
		{
			name: "sslmode option",
			cfg: Config{
				Database: "geo",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=localhost port=5432 dbname=geo sslmode=require",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildDSN(tt.cfg))
		})
	}
}

func TestExecuteQuery(t *testing.T) {
	c, mock := newMockClient(t)

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("name").OfType("TEXT", ""),
		sqlmock.NewColumn("value").OfType("INT8", int64(0)),
	).
		AddRow("ann", int64(42)).
		AddRow([]byte("bo"), nil)

	mock.ExpectQuery("SELECT name, value FROM places").WillReturnRows(rows)

	result, err := c.ExecuteQuery(context.Background(), "SELECT name, value FROM places")
	require.NoError(t, err)

	require.Len(t, result.Fields, 2)
	assert.Equal(t, sqlapi.Field{Name: "name", Type: "text", PGType: "text"}, result.Fields[0])
	assert.Equal(t, sqlapi.Field{Name: "value", Type: "int8", PGType: "int8"}, result.Fields[1])

	require.Equal(t, 2, result.TotalRows)
	assert.Equal(t, "ann", result.Rows[0]["name"])
	assert.Equal(t, int64(42), result.Rows[0]["value"])
	// Byte slices decode to strings so callers see text, not raw buffers.
	assert.Equal(t, "bo", result.Rows[1]["name"])
	assert.Nil(t, result.Rows[1]["value"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQueryServiceError(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectQuery("SELECT * FROM missing").
		WillReturnError(&sqlapi.ServiceError{Message: `relation "missing" does not exist`})

	_, err := c.ExecuteQuery(context.Background(), "SELECT * FROM missing")
	se, ok := sqlapi.AsServiceError(err)
	require.True(t, ok)
	assert.Contains(t, se.Message, "does not exist")
}

func TestExecuteQueryNotConnected(t *testing.T) {
	c := New(nil)
	_, err := c.ExecuteQuery(context.Background(), "SELECT 1")
	assert.Error(t, err)
}

func TestExecuteLongRunning(t *testing.T) {
	t.Run("done", func(t *testing.T) {
		c, mock := newMockClient(t)
		batch := "BEGIN; DROP TABLE IF EXISTS t; CREATE TABLE t AS (SELECT 1); COMMIT;"
		mock.ExpectExec(batch).WillReturnResult(sqlmock.NewResult(0, 0))

		job, err := c.ExecuteLongRunning(context.Background(), batch)
		require.NoError(t, err)
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, sqlapi.JobDone, job.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed", func(t *testing.T) {
		c, mock := newMockClient(t)
		mock.ExpectExec("BEGIN; boom; COMMIT;").
			WillReturnError(&sqlapi.ServiceError{Message: "syntax error"})

		job, err := c.ExecuteLongRunning(context.Background(), "BEGIN; boom; COMMIT;")
		require.Error(t, err)
		assert.Equal(t, sqlapi.JobFailed, job.Status)
		assert.Contains(t, job.FailedReason, "syntax error")

		_, ok := sqlapi.AsServiceError(err)
		assert.True(t, ok)
	})
}

func TestCurrentSchema(t *testing.T) {
	t.Run("configured schema wins without a query", func(t *testing.T) {
		c, mock := newMockClient(t)
		c.cfg.Schema = "analytics"

		schema, err := c.CurrentSchema(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "analytics", schema)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("resolved from the connection", func(t *testing.T) {
		c, mock := newMockClient(t)
		rows := sqlmock.NewRows([]string{"current_schema"}).AddRow("public")
		mock.ExpectQuery("select current_schema()").WillReturnRows(rows)

		schema, err := c.CurrentSchema(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "public", schema)
	})
}
