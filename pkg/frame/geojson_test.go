package frame

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const featureCollection = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [1, 2]},
			"properties": {"name": "a", "value": 10}
		},
		{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [3, 4]},
			"properties": {"name": "b"}
		}
	]
}`

func TestIsGeoJSONPath(t *testing.T) {
	assert.True(t, IsGeoJSONPath("data.geojson"))
	assert.True(t, IsGeoJSONPath("/tmp/some/file.JSON"))
	assert.False(t, IsGeoJSONPath("my_table"))
	assert.False(t, IsGeoJSONPath("data.csv"))
}

func TestLoadGeoJSONBytes(t *testing.T) {
	f, err := LoadGeoJSON([]byte(featureCollection))
	require.NoError(t, err)

	assert.Equal(t, []string{"geometry", "name", "value"}, f.Columns())
	assert.Equal(t, 2, f.NumRows())

	col, ok := f.GeometryColumn()
	require.True(t, ok)
	assert.Equal(t, "geometry", col)

	geomSeries, _ := f.Series("geometry")
	assert.Equal(t, Geometry, geomSeries.Type)

	g, ok := f.Value("geometry", 0).(orb.Geometry)
	require.True(t, ok)
	assert.Equal(t, orb.Point{1, 2}, g)

	// Sparse properties fill with nulls; GeoJSON numbers decode as floats.
	assert.Equal(t, 10.0, f.Value("value", 0))
	assert.Nil(t, f.Value("value", 1))

	valueSeries, _ := f.Series("value")
	assert.Equal(t, Float, valueSeries.Type)
}

func TestLoadGeoJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.geojson")
	require.NoError(t, os.WriteFile(path, []byte(featureCollection), 0o644))

	f, err := LoadGeoJSON(path)
	require.NoError(t, err)
	assert.Equal(t, 2, f.NumRows())
}

func TestLoadGeoJSONInvalid(t *testing.T) {
	_, err := LoadGeoJSON([]byte(`{"not": "geojson"}`))
	assert.Error(t, err)

	_, err = LoadGeoJSON(42)
	assert.Error(t, err)
}
