package dataset

import (
	"context"

	"github.com/mapframe-labs/mapframe/pkg/frame"
	"github.com/mapframe-labs/mapframe/pkg/geom"
	"github.com/mapframe-labs/mapframe/pkg/sqlapi"
)

// Kind is the externally observable nature of a dataset.
type Kind string

const (
	KindTable     Kind = "table"
	KindQuery     Kind = "query"
	KindDataFrame Kind = "dataframe"
)

// IfExists selects the upload behavior when the target table already exists.
type IfExists string

const (
	IfExistsFail    IfExists = "fail"
	IfExistsReplace IfExists = "replace"
	IfExistsAppend  IfExists = "append"
)

// DefaultRetryTimes is the default bound on rate-limit retries during
// downloads.
const DefaultRetryTimes = 3

// LngLat names the two frame columns holding longitude and latitude values.
type LngLat struct {
	Lng string
	Lat string
}

// DownloadOptions controls a bulk read.
type DownloadOptions struct {
	// Limit caps the number of rows. Nil means no limit; a non-nil value
	// must be >= 0.
	Limit *int

	// DecodeGeom decodes geometry columns from hex-EWKB into geometry
	// values and renames the_geom to geometry.
	DecodeGeom bool

	// RetryTimes bounds rate-limit retries. Zero disables retrying.
	RetryTimes int
}

// Limited returns options with the given row limit set.
func (o DownloadOptions) Limited(n int) DownloadOptions {
	o.Limit = &n
	return o
}

// UploadOptions controls a bulk write.
type UploadOptions struct {
	// TableName overrides the strategy's target table. It is normalized
	// before use.
	TableName string

	// Schema overrides the strategy's target schema.
	Schema string

	// IfExists selects the behavior when the target exists. Empty means
	// IfExistsFail.
	IfExists IfExists

	// WithLngLat synthesizes point geometries from the named columns,
	// taking precedence over any stored geometry value in the row.
	WithLngLat *LngLat

	// Client overrides the strategy's connection.
	Client sqlapi.Client
}

// Strategy is the operation contract shared by the three dataset variants.
// Exactly one strategy is active per Dataset at any time; the facade, not the
// strategy, performs the swaps.
type Strategy interface {
	Kind() Kind
	TableName() string
	Schema() string
	Client() sqlapi.Client
	Frame() *frame.Frame

	SetTableName(name string)
	SetSchema(schema string)
	SetClient(client sqlapi.Client)

	// GetQuery returns the SQL this dataset reads from: the raw query for
	// query strategies, a computed SELECT for table strategies.
	GetQuery(ctx context.Context) (string, error)

	// GetTableNames returns the remote tables backing this dataset.
	GetTableNames(ctx context.Context) ([]string, error)

	Download(ctx context.Context, opts DownloadOptions) (*frame.Frame, error)
	Upload(ctx context.Context, opts UploadOptions) error
	Delete(ctx context.Context) (bool, error)
	Exists(ctx context.Context) (bool, error)
	ComputeGeomType(ctx context.Context) (geom.Class, error)
}
