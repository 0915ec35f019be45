package delin

import (
	"fmt"

	"github.com/openhydro/delin/stream"
	"github.com/openhydro/delin/vect"
	"github.com/paulmach/orb"
)

// WriteSegments persists a stream network with its id and outlet-flag
// columns.
func WriteSegments(fp, crs string, segs []stream.Segment) error {
	c := vect.New(crs, "flw_id", "outlet")
	for _, s := range segs {
		c.Add(s.Geom, map[string]interface{}{"flw_id": s.ID, "outlet": s.IsOutlet})
	}
	return vect.Write(fp, c)
}

// ReadSegments loads a stream network written by WriteSegments or any
// line-geometry collection carrying a flw_id column; features without one
// are numbered by position from 1. Multi-part geometries are split, each
// part keeping the parent's id.
func ReadSegments(fp string) ([]stream.Segment, string, error) {
	c, err := vect.Read(fp)
	if err != nil {
		return nil, "", err
	}
	var segs []stream.Segment
	for k, f := range c.Features {
		id, ok := vect.PropInt(f, "flw_id")
		if !ok {
			id = k + 1
		}
		outlet := vect.PropBool(f, "outlet")
		switch g := f.Geometry.(type) {
		case orb.LineString:
			segs = append(segs, stream.Segment{ID: id, Geom: g, IsOutlet: outlet})
		case orb.MultiLineString:
			for _, part := range g {
				segs = append(segs, stream.Segment{ID: id, Geom: orb.LineString(part), IsOutlet: outlet})
			}
		default:
			return nil, "", fmt.Errorf("%w: feature %d is not a line geometry", ErrPrecondition, k)
		}
	}
	return segs, c.CRS, nil
}
