package dataset

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"

	"github.com/mapframe-labs/mapframe/pkg/frame"
)

func TestIsSQLQuery(t *testing.T) {
	assert.True(t, IsSQLQuery("SELECT 1"))
	assert.True(t, IsSQLQuery("  select * from t"))
	assert.True(t, IsSQLQuery("WITH cte AS (SELECT 1) SELECT * FROM cte"))
	assert.True(t, IsSQLQuery("EXPLAIN SELECT a FROM b"))
	assert.False(t, IsSQLQuery("my_table"))
	assert.False(t, IsSQLQuery("selection_results"))
	assert.False(t, IsSQLQuery(""))
}

func TestClassify(t *testing.T) {
	doc := `{"type": "FeatureCollection", "features": []}`

	tests := []struct {
		name     string
		data     any
		expected Source
	}{
		{"frame", frame.New(), SourceFrame},
		{"feature collection", &geojson.FeatureCollection{}, SourceGeoJSON},
		{"raw document string", doc, SourceGeoJSON},
		{"raw document bytes", []byte(doc), SourceGeoJSON},
		{"raw message", json.RawMessage(doc), SourceGeoJSON},
		{"geojson path", "data/points.geojson", SourceGeoJSON},
		{"query", "SELECT 1", SourceQuery},
		{"lowercase query", "select cartodb_id from t", SourceQuery},
		{"cte query", "WITH a AS (SELECT 1) SELECT * FROM a", SourceQuery},
		{"table name", "my_table", SourceTable},
		{"table name with geojson in it", "t_geojson", SourceTable},
		{"empty string", "", SourceUnknown},
		{"blank string", "   ", SourceUnknown},
		{"integer", 42, SourceUnknown},
		{"nil", nil, SourceUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.data))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	inputs := []any{"SELECT 1", "my_table", frame.New(), 42}
	for _, input := range inputs {
		first := Classify(input)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, Classify(input))
		}
	}
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "frame", SourceFrame.String())
	assert.Equal(t, "geojson", SourceGeoJSON.String())
	assert.Equal(t, "query", SourceQuery.String())
	assert.Equal(t, "table", SourceTable.String())
	assert.Equal(t, "unknown", SourceUnknown.String())
}
