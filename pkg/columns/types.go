package columns

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mapframe-labs/mapframe/pkg/frame"
	"github.com/mapframe-labs/mapframe/pkg/geom"
)

// NullSentinel is the NULL marker used in COPY TO output so empty strings
// and NULLs stay distinguishable.
const NullSentinel = "__null"

// Column describes one column of a remote table or query result.
type Column struct {
	Name   string
	PGType string
	Type   frame.Type
}

// FromPGType builds column metadata from a name and a PostgreSQL type name.
func FromPGType(name, pgType string) Column {
	return Column{Name: name, PGType: pgType, Type: PGToType(pgType)}
}

// TypeToPG returns the PostgreSQL column type used when creating a table
// from a frame.
func TypeToPG(t frame.Type) string {
	switch t {
	case frame.Float:
		return "numeric"
	case frame.Int:
		return "bigint"
	case frame.Bool:
		return "boolean"
	case frame.Time:
		return "timestamp"
	default:
		return "text"
	}
}

// PGToType returns the frame type a PostgreSQL type decodes into.
func PGToType(pgType string) frame.Type {
	switch strings.ToLower(pgType) {
	case "smallint", "int2", "integer", "int4", "int", "bigint", "int8":
		return frame.Int
	case "real", "float4", "double precision", "float8", "numeric", "decimal":
		return frame.Float
	case "boolean", "bool":
		return frame.Bool
	case "date", "timestamp", "timestampz", "timestamp without time zone", "timestamp with time zone":
		return frame.Time
	case "geometry", "user-defined":
		return frame.Geometry
	default:
		return frame.String
	}
}

// timeLayouts are the timestamp renderings the service's CSV output uses.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
}

// Convert parses one CSV cell into the typed value for a column. The null
// sentinel and the empty string both decode to nil. Geometry cells are
// decoded from hex-EWKB only when decodeGeom is set; otherwise the raw text
// is kept.
func Convert(cell string, col Column, decodeGeom bool) (any, error) {
	if cell == "" || cell == NullSentinel {
		return nil, nil
	}

	switch col.Type {
	case frame.Int:
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		return n, nil
	case frame.Float:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		return f, nil
	case frame.Bool:
		// The server encodes booleans as single characters in CSV output.
		switch cell {
		case "t":
			return true, nil
		case "f":
			return false, nil
		}
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		return b, nil
	case frame.Time:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, cell); err == nil {
				return ts, nil
			}
		}
		return nil, fmt.Errorf("column %q: cannot parse timestamp %q", col.Name, cell)
	case frame.Geometry:
		if !decodeGeom {
			return cell, nil
		}
		g, err := geom.Decode(cell)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		return g, nil
	default:
		return cell, nil
	}
}
