// Package vect reads and writes vector feature collections as GeoJSON, with
// an ordered attribute-column list and a CRS tag carried as foreign members.
package vect

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/maseology/mmio"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// vectorExts lists the extensions the vector driver registry accepts.
var vectorExts = map[string]bool{".geojson": true, ".json": true}

// ValidVectorPath reports whether a vector driver can be resolved from the
// file path.
func ValidVectorPath(fp string) bool {
	return vectorExts[strings.ToLower(mmio.GetExtension(fp))]
}

// Collection is a set of geometries with an attribute table.
type Collection struct {
	CRS      string
	Columns  []string // attribute columns in output order
	Features []*geojson.Feature
}

// New builds an empty collection with the given attribute columns.
func New(crs string, columns ...string) *Collection {
	return &Collection{CRS: crs, Columns: columns}
}

// Add appends a feature.
func (c *Collection) Add(geom orb.Geometry, props map[string]interface{}) {
	f := geojson.NewFeature(geom)
	for k, v := range props {
		f.Properties[k] = v
	}
	c.Features = append(c.Features, f)
}

// Read loads a GeoJSON feature collection.
func Read(fp string) (*Collection, error) {
	b, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("vect: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("vect: %s: %w", fp, err)
	}
	c := &Collection{Features: fc.Features}
	if v, ok := fc.ExtraMembers["crs"].(string); ok {
		c.CRS = v
	}
	if cols, ok := fc.ExtraMembers["columns"].([]interface{}); ok {
		for _, col := range cols {
			if s, ok := col.(string); ok {
				c.Columns = append(c.Columns, s)
			}
		}
	}
	return c, nil
}

// Write saves the collection as GeoJSON. Output goes to a temporary path and
// is renamed on success so a failure never leaves a readable partial file.
func Write(fp string, c *Collection) error {
	if !ValidVectorPath(fp) {
		return fmt.Errorf("vect: could not retrieve vector driver from %s", fp)
	}
	fc := geojson.NewFeatureCollection()
	fc.Features = c.Features
	fc.ExtraMembers = geojson.Properties{}
	if c.CRS != "" {
		fc.ExtraMembers["crs"] = c.CRS
	}
	if len(c.Columns) > 0 {
		fc.ExtraMembers["columns"] = c.Columns
	}
	b, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("vect: %w", err)
	}
	tmp := fp + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return fmt.Errorf("vect: %w", err)
	}
	if err := os.Rename(tmp, fp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("vect: %w", err)
	}
	return nil
}

// PropInt extracts an integral property, accepting the float64 values JSON
// decoding produces.
func PropInt(f *geojson.Feature, key string) (int, bool) {
	switch v := f.Properties[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// PropBool extracts a boolean property, accepting 0/1 numerics.
func PropBool(f *geojson.Feature, key string) bool {
	switch v := f.Properties[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}
