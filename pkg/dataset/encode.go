package dataset

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mapframe-labs/mapframe/pkg/columns"
	"github.com/mapframe-labs/mapframe/pkg/frame"
	"github.com/mapframe-labs/mapframe/pkg/geom"
)

// encodeRows renders a frame as the pipe-delimited COPY FROM stdin payload:
// one line per row, one field per plan column in plan order, the geometry
// field last when included. Null values (scalar nil, NaN, or an all-null
// composite) render as the null sentinel. A lng/lat pair, when given and
// non-null for the row, synthesizes the geometry and takes precedence over
// any stored geometry value.
func encodeRows(df *frame.Frame, plan []columns.Mapping, geomCol string, withLngLat *LngLat, includeGeom bool) (io.Reader, error) {
	var buf bytes.Buffer

	for row := 0; row < df.NumRows(); row++ {
		fields := make([]string, 0, len(plan)+1)
		for _, m := range plan {
			fields = append(fields, encodeValue(df.Value(m.Original, row)))
		}

		if includeGeom {
			field, err := encodeGeomField(df, row, geomCol, withLngLat)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
			fields = append(fields, field)
		}

		buf.WriteString(strings.Join(fields, "|"))
		buf.WriteByte('\n')
	}
	return &buf, nil
}

// encodeGeomField renders the geometry field for one row.
func encodeGeomField(df *frame.Frame, row int, geomCol string, withLngLat *LngLat) (string, error) {
	if withLngLat != nil {
		lng := df.Value(withLngLat.Lng, row)
		lat := df.Value(withLngLat.Lat, row)
		if !frame.IsNull(lng) && !frame.IsNull(lat) {
			return fmt.Sprintf("SRID=%d;POINT(%s %s)", geom.SRID, encodeValue(lng), encodeValue(lat)), nil
		}
	}

	if geomCol != "" {
		if v := df.Value(geomCol, row); !frame.IsNull(v) {
			g, err := geom.Decode(v)
			if err != nil {
				return "", err
			}
			if g != nil {
				return fmt.Sprintf("SRID=%d;%s", geom.SRID, geom.EncodeWKT(g)), nil
			}
		}
	}
	return columns.NullSentinel, nil
}

// encodeValue renders one scalar as a COPY field.
func encodeValue(v any) string {
	if frame.IsNull(v) {
		return columns.NullSentinel
	}

	switch t := v.(type) {
	case string:
		return escapeField(t)
	case []byte:
		return escapeField(string(t))
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return encodeFloat(t)
	case float32:
		return encodeFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case time.Time:
		return t.Format("2006-01-02 15:04:05.999999")
	default:
		return escapeField(fmt.Sprint(t))
	}
}

// encodeFloat renders infinities the way PostgreSQL spells them.
func encodeFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// escapeField quotes a field that contains a delimiter, a quote, or a
// newline, doubling embedded quotes per the CSV rules.
func escapeField(s string) string {
	if strings.ContainsAny(s, "\"|\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
