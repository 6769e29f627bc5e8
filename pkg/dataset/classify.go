package dataset

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/mapframe-labs/mapframe/pkg/frame"
)

// Source is the classified shape of a value handed to New. Classification is
// pure: no I/O, no side effects, deterministic for a given input.
type Source int

const (
	SourceUnknown Source = iota
	SourceFrame
	SourceGeoJSON
	SourceQuery
	SourceTable
)

func (s Source) String() string {
	switch s {
	case SourceFrame:
		return "frame"
	case SourceGeoJSON:
		return "geojson"
	case SourceQuery:
		return "query"
	case SourceTable:
		return "table"
	default:
		return "unknown"
	}
}

var (
	queryPrefixRe = regexp.MustCompile(`(?i)^\s*(WITH|SELECT)\s`)
	selectFromRe  = regexp.MustCompile(`(?i)SELECT\s+.+\s+FROM`)
)

// IsSQLQuery reports whether a string reads as a SQL query rather than a
// table name. The heuristic is deliberately permissive: a string starting
// with SELECT or WITH, or containing a SELECT ... FROM clause, classifies as
// a query even if it could also be a legal table name.
func IsSQLQuery(s string) bool {
	return queryPrefixRe.MatchString(s) || selectFromRe.MatchString(s)
}

// looksLikeGeoJSON is a cheap structural sniff for a GeoJSON document; the
// real parse happens at load time.
func looksLikeGeoJSON(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return bytes.Contains(trimmed, []byte(`"FeatureCollection"`)) || bytes.Contains(trimmed, []byte(`"Feature"`))
}

// IsGeoJSON reports whether a value is a GeoJSON source: a decoded feature
// collection, a raw document, or a path to a .geojson/.json file.
func IsGeoJSON(data any) bool {
	switch v := data.(type) {
	case *geojson.FeatureCollection:
		return v != nil
	case json.RawMessage:
		return looksLikeGeoJSON(v)
	case []byte:
		return looksLikeGeoJSON(v)
	case string:
		return frame.IsGeoJSONPath(v) || looksLikeGeoJSON([]byte(v))
	}
	return false
}

// Classify determines the source shape of a value. Order is significant
// because query text and table names overlap lexically: frames and GeoJSON
// win over strings, query heuristics win over table names, and any other
// non-empty string is a table name.
func Classify(data any) Source {
	if _, ok := data.(*frame.Frame); ok {
		return SourceFrame
	}
	if IsGeoJSON(data) {
		return SourceGeoJSON
	}
	if s, ok := data.(string); ok {
		if IsSQLQuery(s) {
			return SourceQuery
		}
		if strings.TrimSpace(s) != "" {
			return SourceTable
		}
	}
	return SourceUnknown
}
