// Package frame implements the in-memory tabular buffer the library moves
// between the local environment and the SQL service. A Frame is a small,
// column-oriented table: ordered named series with a declared type and one
// value slot per row. It deliberately supports only the operations the
// dataset layer needs (iteration, null tests, geometry column discovery);
// it is not a general dataframe.
package frame

import (
	"fmt"
	"math"
	"strings"
)

// Type is the declared type of a series.
type Type int

const (
	String Type = iota
	Int
	Float
	Bool
	Time
	Geometry
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Time:
		return "time"
	case Geometry:
		return "geometry"
	default:
		return "string"
	}
}

// geometryColumnNames are the column names recognized as holding geometry,
// checked case-insensitively and in order.
var geometryColumnNames = []string{"geom", "the_geom", "geometry"}

// Column names recognized as coordinate pairs, checked case-insensitively
// and in order.
var (
	lngColumnNames = []string{"lng", "lon", "long", "longitude"}
	latColumnNames = []string{"lat", "latitude"}
)

// Series is a single named column.
type Series struct {
	Name   string
	Type   Type
	Values []any
}

// Frame is an ordered collection of equally sized series.
type Frame struct {
	series    []*Series
	indexName string
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{}
}

// Add appends a series. It returns an error if the series length does not
// match the frame's row count or the name is already taken.
func (f *Frame) Add(s *Series) error {
	if _, ok := f.Series(s.Name); ok {
		return fmt.Errorf("column %q already exists", s.Name)
	}
	if len(f.series) > 0 && len(s.Values) != f.NumRows() {
		return fmt.Errorf("column %q has %d values, frame has %d rows", s.Name, len(s.Values), f.NumRows())
	}
	f.series = append(f.series, s)
	return nil
}

// MustAdd is Add for statically known-good series, mostly in tests.
func (f *Frame) MustAdd(s *Series) *Frame {
	if err := f.Add(s); err != nil {
		panic(err)
	}
	return f
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.series))
	for i, s := range f.series {
		names[i] = s.Name
	}
	return names
}

// Series returns the named series, if present.
func (f *Frame) Series(name string) (*Series, bool) {
	for _, s := range f.series {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int {
	if len(f.series) == 0 {
		return 0
	}
	return len(f.series[0].Values)
}

// NumCols returns the number of columns.
func (f *Frame) NumCols() int {
	return len(f.series)
}

// Value returns the value at (column, row), or nil when the column does not
// exist.
func (f *Frame) Value(column string, row int) any {
	s, ok := f.Series(column)
	if !ok || row < 0 || row >= len(s.Values) {
		return nil
	}
	return s.Values[row]
}

// IndexName returns the name of the frame's index column, if any.
func (f *Frame) IndexName() string {
	return f.indexName
}

// SetIndexName records the name of a semantically meaningful index.
func (f *Frame) SetIndexName(name string) {
	f.indexName = name
}

// EnsureIndexColumn materializes a named index as an explicit column so it
// survives row iteration during upload. A no-op when the index is unnamed or
// the column already exists.
func (f *Frame) EnsureIndexColumn(values []any, typ Type) error {
	if f.indexName == "" {
		return nil
	}
	if _, ok := f.Series(f.indexName); ok {
		return nil
	}
	return f.Add(&Series{Name: f.indexName, Type: typ, Values: values})
}

// GeometryColumn returns the name of the frame's geometry column: the first
// column whose lowercased name is one of the recognized geometry names.
func (f *Frame) GeometryColumn() (string, bool) {
	for _, candidate := range geometryColumnNames {
		for _, s := range f.series {
			if strings.ToLower(s.Name) == candidate {
				return s.Name, true
			}
		}
	}
	return "", false
}

// LngLatColumns returns the names of the columns recognized as a
// longitude/latitude pair, when the frame has one of each.
func (f *Frame) LngLatColumns() (lng, lat string, ok bool) {
	lng = f.findColumn(lngColumnNames)
	lat = f.findColumn(latColumnNames)
	return lng, lat, lng != "" && lat != ""
}

func (f *Frame) findColumn(candidates []string) string {
	for _, candidate := range candidates {
		for _, s := range f.series {
			if strings.ToLower(s.Name) == candidate {
				return s.Name
			}
		}
	}
	return ""
}

// FirstNonNull returns the first non-null value of the named column.
func (f *Frame) FirstNonNull(column string) any {
	s, ok := f.Series(column)
	if !ok {
		return nil
	}
	for _, v := range s.Values {
		if !IsNull(v) {
			return v
		}
	}
	return nil
}

// Rename changes a column's name in place.
func (f *Frame) Rename(from, to string) {
	if s, ok := f.Series(from); ok {
		s.Name = to
	}
}

// IsNull reports whether a value represents SQL NULL: nil, NaN, or a
// composite value whose elements are all null. The composite case covers
// geometry-typed columns holding list-like values.
func IsNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	case []any:
		for _, e := range t {
			if !IsNull(e) {
				return false
			}
		}
		return true
	}
	return false
}
