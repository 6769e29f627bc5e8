// Package geom converts between the wire representations used by the SQL
// service (hex-encoded EWKB, WKB, WKT) and in-memory orb geometries, and
// maps PostGIS geometry type names to the three broad classes the rest of
// the library cares about.
package geom

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Class is the broad geometry class of a column.
type Class string

const (
	ClassPoint   Class = "point"
	ClassLine    Class = "line"
	ClassPolygon Class = "polygon"

	// ClassUnknown is returned when no geometry is present.
	ClassUnknown Class = ""
)

// SRID used for all geometries pushed to the service.
const SRID = 4326

// MapClass maps a PostGIS/GeoJSON geometry type name ("Point",
// "MultiLineString", ...) to its class. Multi-variants map to their
// singular class.
func MapClass(geomType string) (Class, bool) {
	switch strings.TrimPrefix(geomType, "Multi") {
	case "Point":
		return ClassPoint, true
	case "LineString":
		return ClassLine, true
	case "Polygon":
		return ClassPolygon, true
	}
	return ClassUnknown, false
}

// ClassOf returns the class of a decoded geometry.
func ClassOf(g orb.Geometry) Class {
	if g == nil {
		return ClassUnknown
	}
	c, _ := MapClass(g.GeoJSONType())
	return c
}

// TypeName returns the geometry type name used in DDL, e.g. "Point" or
// "MultiPolygon".
func TypeName(g orb.Geometry) string {
	if g == nil {
		return ""
	}
	return g.GeoJSONType()
}

// Decode turns a value read from a frame or from the service into an orb
// geometry. It accepts orb geometries (passed through), hex-encoded EWKB or
// WKB, raw WKB bytes, and WKT text. The decode order mirrors the formats the
// service actually emits: hex EWKB is by far the most common.
func Decode(value any) (orb.Geometry, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case orb.Geometry:
		return v, nil
	case []byte:
		return decodeBytes(v)
	case string:
		if v == "" {
			return nil, nil
		}
		if raw, err := hex.DecodeString(v); err == nil {
			return decodeBytes(raw)
		}
		if g, err := wkt.Unmarshal(v); err == nil {
			return g, nil
		}
		return nil, fmt.Errorf("cannot decode geometry from %q", v)
	}
	return nil, fmt.Errorf("cannot decode geometry from value of type %T", value)
}

func decodeBytes(raw []byte) (orb.Geometry, error) {
	if g, _, err := ewkb.Unmarshal(raw); err == nil {
		return g, nil
	}
	g, err := wkb.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("cannot decode geometry bytes: %w", err)
	}
	return g, nil
}

// EncodeWKT renders a geometry as WKT, the representation used in COPY rows.
func EncodeWKT(g orb.Geometry) string {
	return wkt.MarshalString(g)
}
