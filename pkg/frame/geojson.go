package frame

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"
)

var geojsonPathRe = regexp.MustCompile(`(?i)^.*\.(geojson|json)\s*$`)

// IsGeoJSONPath reports whether a string looks like a path to a GeoJSON file.
func IsGeoJSONPath(s string) bool {
	return geojsonPathRe.MatchString(s)
}

// LoadGeoJSON materializes a GeoJSON source into a frame. It accepts a
// decoded feature collection, a raw document, or a path to a .geojson/.json
// file. Every feature becomes one row; the feature geometry lands in a
// "geometry" column and properties become columns named after their keys.
func LoadGeoJSON(source any) (*Frame, error) {
	var raw []byte
	switch v := source.(type) {
	case *geojson.FeatureCollection:
		return fromFeatureCollection(v)
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		if IsGeoJSONPath(v) {
			data, err := os.ReadFile(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("failed to read geojson file: %w", err)
			}
			raw = data
		} else {
			raw = []byte(v)
		}
	default:
		return nil, fmt.Errorf("unsupported geojson source of type %T", source)
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson: %w", err)
	}
	return fromFeatureCollection(fc)
}

func fromFeatureCollection(fc *geojson.FeatureCollection) (*Frame, error) {

	// Collect the union of property keys so sparse features still line up.
	keySet := map[string]struct{}{}
	for _, feat := range fc.Features {
		for k := range feat.Properties {
			keySet[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := New()
	geoms := make([]any, len(fc.Features))
	for i, feat := range fc.Features {
		if feat.Geometry != nil {
			geoms[i] = feat.Geometry
		}
	}
	if err := f.Add(&Series{Name: "geometry", Type: Geometry, Values: geoms}); err != nil {
		return nil, err
	}

	for _, key := range keys {
		values := make([]any, len(fc.Features))
		for i, feat := range fc.Features {
			if v, ok := feat.Properties[key]; ok {
				values[i] = v
			}
		}
		if err := f.Add(&Series{Name: key, Type: propertyType(values), Values: values}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// propertyType infers a series type from the first non-null property value.
// GeoJSON numbers always decode as float64.
func propertyType(values []any) Type {
	for _, v := range values {
		switch v.(type) {
		case nil:
			continue
		case float64:
			return Float
		case bool:
			return Bool
		default:
			return String
		}
	}
	return String
}
