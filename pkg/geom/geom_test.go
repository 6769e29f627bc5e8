package geom

import (
	"encoding/hex"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapClass(t *testing.T) {
	tests := []struct {
		geomType string
		expected Class
		ok       bool
	}{
		{"Point", ClassPoint, true},
		{"MultiPoint", ClassPoint, true},
		{"LineString", ClassLine, true},
		{"MultiLineString", ClassLine, true},
		{"Polygon", ClassPolygon, true},
		{"MultiPolygon", ClassPolygon, true},
		{"GeometryCollection", ClassUnknown, false},
		{"", ClassUnknown, false},
	}
	for _, tt := range tests {
		class, ok := MapClass(tt.geomType)
		assert.Equal(t, tt.expected, class, "type %q", tt.geomType)
		assert.Equal(t, tt.ok, ok, "type %q", tt.geomType)
	}
}

func TestClassOf(t *testing.T) {
	assert.Equal(t, ClassPoint, ClassOf(orb.Point{1, 2}))
	assert.Equal(t, ClassLine, ClassOf(orb.LineString{{0, 0}, {1, 1}}))
	assert.Equal(t, ClassPolygon, ClassOf(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}))
	assert.Equal(t, ClassPoint, ClassOf(orb.MultiPoint{{1, 2}}))
	assert.Equal(t, ClassUnknown, ClassOf(nil))
}

func TestDecode(t *testing.T) {
	point := orb.Point{1, 2}

	t.Run("passes through orb geometries", func(t *testing.T) {
		g, err := Decode(point)
		require.NoError(t, err)
		assert.Equal(t, point, g)
	})

	t.Run("nil and empty decode to nil", func(t *testing.T) {
		g, err := Decode(nil)
		require.NoError(t, err)
		assert.Nil(t, g)

		g, err = Decode("")
		require.NoError(t, err)
		assert.Nil(t, g)
	})

	t.Run("hex ewkb", func(t *testing.T) {
		raw, err := ewkb.Marshal(point, SRID)
		require.NoError(t, err)

		g, err := Decode(hex.EncodeToString(raw))
		require.NoError(t, err)
		assert.Equal(t, point, g)
	})

	t.Run("raw wkb bytes", func(t *testing.T) {
		raw, err := wkb.Marshal(point)
		require.NoError(t, err)

		g, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, point, g)
	})

	t.Run("wkt text", func(t *testing.T) {
		g, err := Decode("POINT(1 2)")
		require.NoError(t, err)
		assert.Equal(t, point, g)
	})

	t.Run("garbage errors", func(t *testing.T) {
		_, err := Decode("not a geometry")
		assert.Error(t, err)

		_, err = Decode(42)
		assert.Error(t, err)
	})
}

func TestEncodeWKT(t *testing.T) {
	assert.Equal(t, "POINT(1 2)", EncodeWKT(orb.Point{1, 2}))
}
