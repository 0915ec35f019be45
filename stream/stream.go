// Package stream resolves the topology of a vectorized stream network:
// downstream links between segments, junctions, main outlets, pour points,
// and flow-direction ordering checks.
//
// Endpoint matching uses exact float64 coordinate equality, as the grids
// this package serves generate every vertex from one cell-centre formula.
// Geometry produced by independent arithmetic paths may fail to match even
// when geometrically coincident; no tolerance is applied.
package stream

import (
	"sort"

	"github.com/paulmach/orb"
)

// Segment is one stream reach, ordered upstream to downstream once
// normalized. IsOutlet marks reaches whose last cell is a terminal pit.
type Segment struct {
	ID       int
	Geom     orb.LineString
	IsOutlet bool
}

// Junction is a confluence: a point where the downstream endpoints of two or
// more segments coincide. SegIDs lists the incident upstream segments.
type Junction struct {
	JID    int
	Point  orb.Point
	SegIDs []int
}

// Outlet is a degree-1 terminal: a downstream endpoint shared with no other
// segment.
type Outlet struct {
	ID    int
	SegID int
	Point orb.Point
}

// PourPoint seeds a segment's subbasin: the downstream endpoint, unless that
// endpoint is a junction, in which case the point one step upstream of it.
type PourPoint struct {
	SegID int
	Point orb.Point
}

// Explode splits any multi-part geometries into single line strings,
// preserving order.
func Explode(geoms []orb.Geometry) []orb.LineString {
	var out []orb.LineString
	for _, g := range geoms {
		switch v := g.(type) {
		case orb.LineString:
			out = append(out, v)
		case orb.MultiLineString:
			for _, ls := range v {
				out = append(out, orb.LineString(ls))
			}
		}
	}
	return out
}

// CheckFlowDirection reports whether the number of single-part segments
// equals the number of distinct upstream (first) points. This is the
// expected condition for a purely upstream-to-downstream-ordered
// single-outlet tree. It is a heuristic: a misoriented network can
// coincidentally preserve the count.
func CheckFlowDirection(lines []orb.LineString) bool {
	ups := make(map[orb.Point]bool, len(lines))
	for _, ls := range lines {
		if len(ls) > 0 {
			ups[ls[0]] = true
		}
	}
	return len(lines) == len(ups)
}

// ReverseFlowDirection reverses the coordinate order of every line
// wholesale. It assumes all segments are uniformly misoriented; callers
// should confirm applicability with CheckFlowDirection first.
func ReverseFlowDirection(lines []orb.LineString) []orb.LineString {
	out := make([]orb.LineString, len(lines))
	for i, ls := range lines {
		rev := make(orb.LineString, len(ls))
		for j, p := range ls {
			rev[len(ls)-1-j] = p
		}
		out[i] = rev
	}
	return out
}

// DownstreamLinks finds, for each segment, the unique segment whose upstream
// endpoint equals its downstream endpoint. Zero or multiple matches yield
// the sentinel -1: either a true outlet or an ambiguous braided junction.
func DownstreamLinks(segs []Segment) map[int]int {
	ups := make(map[orb.Point][]int, len(segs))
	for _, s := range segs {
		if len(s.Geom) > 0 {
			ups[s.Geom[0]] = append(ups[s.Geom[0]], s.ID)
		}
	}
	links := make(map[int]int, len(segs))
	for _, s := range segs {
		links[s.ID] = -1
		if len(s.Geom) == 0 {
			continue
		}
		if ids := ups[s.Geom[len(s.Geom)-1]]; len(ids) == 1 {
			links[s.ID] = ids[0]
		}
	}
	return links
}

// downstreamGroups groups segment ids by shared downstream endpoint; each
// group's id list is sorted so output order is deterministic.
func downstreamGroups(segs []Segment) ([]orb.Point, map[orb.Point][]int) {
	groups := make(map[orb.Point][]int, len(segs))
	var pts []orb.Point
	for _, s := range segs {
		if len(s.Geom) == 0 {
			continue
		}
		dp := s.Geom[len(s.Geom)-1]
		if _, ok := groups[dp]; !ok {
			pts = append(pts, dp)
		}
		groups[dp] = append(groups[dp], s.ID)
	}
	for _, ids := range groups {
		sort.Ints(ids)
	}
	sort.Slice(pts, func(i, j int) bool {
		return groups[pts[i]][0] < groups[pts[j]][0]
	})
	return pts, groups
}

// JunctionPoints identifies confluences: downstream endpoints shared by two
// or more segments. Junction ids run from 1, ordered by lowest incident
// segment id.
func JunctionPoints(segs []Segment) []Junction {
	pts, groups := downstreamGroups(segs)
	var out []Junction
	for _, p := range pts {
		if ids := groups[p]; len(ids) > 1 {
			out = append(out, Junction{JID: len(out) + 1, Point: p, SegIDs: ids})
		}
	}
	return out
}

// MainOutlets identifies terminal points: downstream endpoints shared with
// no other segment. Outlet ids run from 1, ordered by segment id.
func MainOutlets(segs []Segment) []Outlet {
	pts, groups := downstreamGroups(segs)
	var out []Outlet
	for _, p := range pts {
		if ids := groups[p]; len(ids) == 1 {
			out = append(out, Outlet{ID: len(out) + 1, SegID: ids[0], Point: p})
		}
	}
	return out
}

// PourPoints derives each segment's subbasin seed. Where the downstream
// endpoint is shared with other segments the seed steps one coordinate
// upstream so that each subbasin corresponds to exactly one segment's
// contributing area. The exception is a terminal pit reached by several
// outlet segments: the lowest-id one keeps the pit itself, so cells draining
// straight into the pit still belong to a subbasin.
func PourPoints(segs []Segment) []PourPoint {
	_, groups := downstreamGroups(segs)
	keeper := make(map[orb.Point]int) // outlet segment that seeds at the shared pit
	for _, s := range segs {
		if !s.IsOutlet || len(s.Geom) == 0 {
			continue
		}
		p := s.Geom[len(s.Geom)-1]
		if id, ok := keeper[p]; !ok || s.ID < id {
			keeper[p] = s.ID
		}
	}
	var out []PourPoint
	for _, s := range segs {
		n := len(s.Geom)
		if n == 0 {
			continue
		}
		p := s.Geom[n-1]
		if len(groups[p]) > 1 && keeper[p] != s.ID && n > 1 {
			p = s.Geom[n-2]
		}
		out = append(out, PourPoint{SegID: s.ID, Point: p})
	}
	return out
}
