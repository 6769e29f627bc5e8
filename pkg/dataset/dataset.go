// Package dataset implements the synchronization core between local tabular
// data and tables hosted on the SQL service. A Dataset wraps exactly one of
// three strategies (remote table, remote query, local frame) chosen by a
// caller-owned rule registry, and swaps strategies when an operation changes
// the nature of the data: downloading a table or query yields a local frame,
// and uploading a query materializes it into a table.
package dataset

import (
	"context"
	"io"
	"log/slog"

	"github.com/mapframe-labs/mapframe/pkg/frame"
	"github.com/mapframe-labs/mapframe/pkg/geom"
	"github.com/mapframe-labs/mapframe/pkg/sqlapi"
)

// Dataset is the facade over the active strategy.
type Dataset struct {
	strategy Strategy
	logger   *slog.Logger
}

// Option configures dataset construction.
type Option func(*options)

type options struct {
	client   sqlapi.Client
	schema   string
	registry *Registry
	logger   *slog.Logger
}

// WithClient sets the service connection. Required for table and query
// datasets; optional for local frames until upload.
func WithClient(c sqlapi.Client) Option {
	return func(o *options) { o.client = c }
}

// WithSchema sets the target schema. When unset, the connection's current
// schema is resolved lazily.
func WithSchema(schema string) Option {
	return func(o *options) { o.schema = schema }
}

// WithRegistry supplies a custom strategy registry. When unset, a registry
// with the built-in rules is used.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the logger. When unset, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New classifies data and builds a dataset around the matching strategy.
// Accepted shapes are a *frame.Frame, a GeoJSON source (document, decoded
// feature collection, or file path), a SQL query string, or a table name
// string. It returns ErrUnknownDataType when nothing matches.
func New(data any, opts ...Option) (*Dataset, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	registry := o.registry
	if registry == nil {
		registry = NewRegistry()
	}

	strategy, err := registry.Resolve(data, Env{Client: o.client, Schema: o.schema, Logger: o.logger})
	if err != nil {
		return nil, err
	}
	return &Dataset{strategy: strategy, logger: o.logger}, nil
}

// Kind returns the dataset's current kind.
func (d *Dataset) Kind() Kind {
	return d.strategy.Kind()
}

// IsLocal reports whether the dataset currently wraps a local frame.
func (d *Dataset) IsLocal() bool {
	return d.strategy.Kind() == KindDataFrame
}

// IsRemote reports whether the dataset currently wraps a remote table or
// query.
func (d *Dataset) IsRemote() bool {
	return !d.IsLocal()
}

// TableName returns the bound table name, empty when none.
func (d *Dataset) TableName() string {
	return d.strategy.TableName()
}

// Schema returns the bound schema, empty when not yet resolved.
func (d *Dataset) Schema() string {
	return d.strategy.Schema()
}

// Frame returns the local frame, nil for remote datasets.
func (d *Dataset) Frame() *frame.Frame {
	return d.strategy.Frame()
}

// Strategy exposes the active strategy, mainly for callers that registered
// custom rules.
func (d *Dataset) Strategy() Strategy {
	return d.strategy
}

// GetQuery returns the SQL this dataset reads from.
func (d *Dataset) GetQuery(ctx context.Context) (string, error) {
	return d.strategy.GetQuery(ctx)
}

// GetTableNames returns the remote tables backing this dataset.
func (d *Dataset) GetTableNames(ctx context.Context) ([]string, error) {
	return d.strategy.GetTableNames(ctx)
}

// Download bulk-reads the remote table or query into a frame and swaps the
// active strategy to a local frame wrapping the result. Arguments are
// validated before any network I/O.
func (d *Dataset) Download(ctx context.Context, opts DownloadOptions) (*frame.Frame, error) {
	if opts.Limit != nil && *opts.Limit < 0 {
		return nil, configErrorf("limit must be >= 0, got %d", *opts.Limit)
	}
	if opts.RetryTimes < 0 {
		return nil, configErrorf("retry times must be >= 0, got %d", opts.RetryTimes)
	}

	f, err := d.strategy.Download(ctx, opts)
	if err != nil {
		return nil, err
	}

	local, err := NewDataFrameStrategy(f, d.env())
	if err != nil {
		return nil, err
	}
	// The swap is a single assignment after the new strategy is fully
	// built, so no caller ever observes a half-transitioned dataset.
	d.strategy = local
	return f, nil
}

// Upload bulk-writes the dataset to a remote table. A frame stays local
// after a successful upload; a query dataset swaps to a table strategy bound
// to the newly materialized table.
func (d *Dataset) Upload(ctx context.Context, opts UploadOptions) error {
	if _, err := validateIfExists(opts.IfExists); err != nil {
		return err
	}
	applyOverrides(d.strategy, opts)

	if err := d.strategy.Upload(ctx, opts); err != nil {
		return err
	}

	if d.strategy.Kind() == KindQuery {
		table, err := NewTableStrategy(d.strategy.TableName(), d.env())
		if err != nil {
			return err
		}
		d.strategy = table
	}
	return nil
}

// Delete drops the remote table, reporting whether anything was dropped.
// Only table datasets can be deleted.
func (d *Dataset) Delete(ctx context.Context) (bool, error) {
	return d.strategy.Delete(ctx)
}

// Exists probes whether the bound table exists.
func (d *Dataset) Exists(ctx context.Context) (bool, error) {
	return d.strategy.Exists(ctx)
}

// ComputeGeomType returns the dataset's broad geometry class, ClassUnknown
// when no geometry is present.
func (d *Dataset) ComputeGeomType(ctx context.Context) (geom.Class, error) {
	return d.strategy.ComputeGeomType(ctx)
}

// env rebuilds a construction environment from the active strategy's state,
// used when swapping strategies.
func (d *Dataset) env() Env {
	return Env{
		Client: d.strategy.Client(),
		Schema: d.strategy.Schema(),
		Logger: d.logger,
	}
}
