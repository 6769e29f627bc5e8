package columns

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapframe-labs/mapframe/pkg/frame"
)

func TestTypeToPG(t *testing.T) {
	assert.Equal(t, "numeric", TypeToPG(frame.Float))
	assert.Equal(t, "bigint", TypeToPG(frame.Int))
	assert.Equal(t, "boolean", TypeToPG(frame.Bool))
	assert.Equal(t, "timestamp", TypeToPG(frame.Time))
	assert.Equal(t, "text", TypeToPG(frame.String))
	assert.Equal(t, "text", TypeToPG(frame.Geometry))
}

func TestPGToType(t *testing.T) {
	tests := []struct {
		pgType   string
		expected frame.Type
	}{
		{"integer", frame.Int},
		{"bigint", frame.Int},
		{"int8", frame.Int},
		{"numeric", frame.Float},
		{"double precision", frame.Float},
		{"boolean", frame.Bool},
		{"date", frame.Time},
		{"timestamp with time zone", frame.Time},
		{"geometry", frame.Geometry},
		{"USER-DEFINED", frame.Geometry},
		{"text", frame.String},
		{"character varying", frame.String},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, PGToType(tt.pgType), "pg type %q", tt.pgType)
	}
}

func TestConvert(t *testing.T) {
	t.Run("null sentinel and empty decode to nil", func(t *testing.T) {
		for _, cell := range []string{"", NullSentinel} {
			v, err := Convert(cell, FromPGType("a", "bigint"), false)
			require.NoError(t, err)
			assert.Nil(t, v)
		}
	})

	t.Run("integers", func(t *testing.T) {
		v, err := Convert("42", FromPGType("a", "bigint"), false)
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)
	})

	t.Run("floats", func(t *testing.T) {
		v, err := Convert("1.5", FromPGType("a", "numeric"), false)
		require.NoError(t, err)
		assert.Equal(t, 1.5, v)
	})

	t.Run("single character booleans", func(t *testing.T) {
		v, err := Convert("t", FromPGType("a", "boolean"), false)
		require.NoError(t, err)
		assert.Equal(t, true, v)

		v, err = Convert("f", FromPGType("a", "boolean"), false)
		require.NoError(t, err)
		assert.Equal(t, false, v)
	})

	t.Run("timestamps", func(t *testing.T) {
		v, err := Convert("2021-03-09 10:00:00", FromPGType("a", "timestamp"), false)
		require.NoError(t, err)
		ts, ok := v.(time.Time)
		require.True(t, ok)
		assert.Equal(t, 2021, ts.Year())
		assert.Equal(t, time.March, ts.Month())
	})

	t.Run("dates", func(t *testing.T) {
		v, err := Convert("2021-03-09", FromPGType("a", "date"), false)
		require.NoError(t, err)
		_, ok := v.(time.Time)
		assert.True(t, ok)
	})

	t.Run("geometry kept raw without decode", func(t *testing.T) {
		v, err := Convert("0101000020E6100000", FromPGType("the_geom", "geometry"), false)
		require.NoError(t, err)
		assert.Equal(t, "0101000020E6100000", v)
	})

	t.Run("geometry decoded from hex ewkb", func(t *testing.T) {
		raw, err := ewkb.Marshal(orb.Point{1, 2}, 4326)
		require.NoError(t, err)

		v, err := Convert(hex.EncodeToString(raw), FromPGType("the_geom", "geometry"), true)
		require.NoError(t, err)
		assert.Equal(t, orb.Point{1, 2}, v)
	})

	t.Run("bad integer errors", func(t *testing.T) {
		_, err := Convert("nope", FromPGType("a", "bigint"), false)
		assert.Error(t, err)
	})
}
