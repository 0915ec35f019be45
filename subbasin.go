package delin

import (
	"fmt"
	"sort"

	"github.com/openhydro/delin/grid"
	"github.com/openhydro/delin/stream"
	"github.com/paulmach/orb"
)

// DelineateSubbasins labels every cell draining to a pour point with that
// pour point's segment id. Labels are assigned in one combined pass: each
// seed climbs its upslope cells with an explicit work stack and stops at any
// other seed, so a cell is claimed by the first seed at or below it and no
// cell is claimed twice. Unclaimed valid cells hold 0, which is also the
// returned grid's nodata code.
func DelineateSubbasins(w *Watershed, pps []stream.PourPoint) (*grid.Int, error) {
	seeds := make(map[int]int, len(pps)) // array position -> segment id
	order := make([]int, 0, len(pps))
	for _, pp := range pps {
		r, c, err := w.GD.CellAt(pp.Point.X(), pp.Point.Y())
		if err != nil {
			return nil, fmt.Errorf("%w: pour point for segment %d: %v", ErrPrecondition, pp.SegID, err)
		}
		pos, ok := w.ArrayIndex(w.GD.Index(r, c))
		if !ok {
			return nil, fmt.Errorf("%w: pour point for segment %d falls on a nodata cell", ErrPrecondition, pp.SegID)
		}
		if sid, dup := seeds[pos]; dup {
			return nil, fmt.Errorf("%w: pour points for segments %d and %d share a cell", ErrPrecondition, sid, pp.SegID)
		}
		seeds[pos] = pp.SegID
		order = append(order, pos)
	}

	labels := make([]int32, w.GD.Ncells())
	stack := make([]int, 0, 64)
	for _, seed := range order {
		sid := int32(seeds[seed])
		stack = append(stack[:0], seed)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			labels[w.Cids[p]] = sid
			for _, u := range w.Us[p] {
				if _, isSeed := seeds[u]; !isSeed {
					stack = append(stack, u)
				}
			}
		}
	}
	return grid.NewInt(w.GD, 0, labels)
}

// LabeledPolygon is one vectorized connected region of a label grid.
type LabeledPolygon struct {
	Label int32
	Poly  orb.Polygon
}

// screen-space walk directions, clockwise: E, S, W, N
var traceDirs = [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

type bedge struct {
	from, to int // packed corner ids
	dir      int
	used     bool
}

// VectorizePolygons converts connected same-label regions of a grid into
// polygons with holes. Connectivity is 4 or 8. Ring tracing keeps the region
// on the left, yielding counter-clockwise exteriors and clockwise holes for
// north-up grids; at checkerboard corners an 8-connected trace takes the
// turn that keeps the diagonal neighbours in one ring, a 4-connected trace
// the turn that separates them. Output is ordered by label, then by
// row-major region discovery.
func VectorizePolygons(g *grid.Int, connectivity int) ([]LabeledPolygon, error) {
	if connectivity != 4 && connectivity != 8 {
		return nil, fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrInvalidArgument, connectivity)
	}
	gd := g.Def
	n := gd.Ncells()

	offsets := d8Offsets[:]
	if connectivity == 4 {
		offsets = [][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	}

	// connected-region labeling
	region := make([]int, n)
	for i := range region {
		region[i] = -1
	}
	var regionLabel []int32
	var regionCells [][]int
	stack := make([]int, 0, 64)
	for i := 0; i < n; i++ {
		if g.IsNodata(i) || region[i] >= 0 {
			continue
		}
		rid, lbl := len(regionLabel), g.Values[i]
		regionLabel = append(regionLabel, lbl)
		var cells []int
		stack = append(stack[:0], i)
		region[i] = rid
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			cells = append(cells, p)
			r, c := gd.RowCol(p)
			for _, o := range offsets {
				rr, cc := r+o[0], c+o[1]
				if !gd.InBounds(rr, cc) {
					continue
				}
				j := gd.Index(rr, cc)
				if region[j] < 0 && !g.IsNodata(j) && g.Values[j] == lbl {
					region[j] = rid
					stack = append(stack, j)
				}
			}
		}
		regionCells = append(regionCells, cells)
	}

	out := make([]LabeledPolygon, 0, len(regionCells))
	for rid, cells := range regionCells {
		rings := traceRegion(gd, region, rid, cells, connectivity)
		for _, poly := range assemblePolygons(rings) {
			out = append(out, LabeledPolygon{Label: regionLabel[rid], Poly: poly})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// traceRegion collects the region's directed boundary edges (region on the
// left in screen coordinates) and links them into closed corner rings.
func traceRegion(gd grid.Def, region []int, rid int, cells []int, connectivity int) []orb.Ring {
	cw := gd.Width + 1
	corner := func(r, c int) int { return r*cw + c }

	same := func(r, c int) bool {
		return gd.InBounds(r, c) && region[gd.Index(r, c)] == rid
	}

	var edges []bedge
	outgoing := map[int][]int{}
	add := func(from, to, dir int) {
		outgoing[from] = append(outgoing[from], len(edges))
		edges = append(edges, bedge{from: from, to: to, dir: dir})
	}
	sort.Ints(cells)
	for _, i := range cells {
		r, c := gd.RowCol(i)
		if !same(r-1, c) { // top side, walking west
			add(corner(r, c+1), corner(r, c), 2)
		}
		if !same(r+1, c) { // bottom side, walking east
			add(corner(r+1, c), corner(r+1, c+1), 0)
		}
		if !same(r, c-1) { // left side, walking south
			add(corner(r, c), corner(r+1, c), 1)
		}
		if !same(r, c+1) { // right side, walking north
			add(corner(r+1, c+1), corner(r, c+1), 3)
		}
	}

	// turn preference at shared corners: right-straight-left merges
	// 8-connected diagonals, left-straight-right keeps 4-connected apart
	prefs := func(d int) [3]int {
		if connectivity == 8 {
			return [3]int{(d + 1) % 4, d, (d + 3) % 4}
		}
		return [3]int{(d + 3) % 4, d, (d + 1) % 4}
	}

	var rings []orb.Ring
	for e0 := range edges {
		if edges[e0].used {
			continue
		}
		var ring orb.Ring
		emit := func(packed int) {
			r, c := packed/cw, packed%cw
			x, y := gd.CornerXY(r, c)
			ring = append(ring, orb.Point{x, y})
		}
		cur := e0
		prevDir := -1
		for {
			e := &edges[cur]
			e.used = true
			if e.dir != prevDir {
				emit(e.from)
				prevDir = e.dir
			}
			next := -1
			for _, want := range prefs(e.dir) {
				for _, cand := range outgoing[e.to] {
					if !edges[cand].used && edges[cand].dir == want {
						next = cand
						break
					}
				}
				if next >= 0 {
					break
				}
			}
			if next < 0 {
				break // back at the start corner
			}
			cur = next
		}
		ring = append(ring, ring[0])
		rings = append(rings, ring)
	}
	return rings
}

// assemblePolygons splits a region's rings into exteriors and holes by
// winding: counter-clockwise (positive shoelace) rings bound the region,
// clockwise rings bound holes. A connected region has one exterior; any
// extra exterior from a 4-connected pinch becomes its own polygon.
func assemblePolygons(rings []orb.Ring) []orb.Polygon {
	var ext []orb.Ring
	var holes []orb.Ring
	best, bestArea := -1, 0.
	for _, r := range rings {
		if a := shoelace(r); a > 0 {
			if a > bestArea {
				best, bestArea = len(ext), a
			}
			ext = append(ext, r)
		} else {
			holes = append(holes, r)
		}
	}
	if len(ext) == 0 {
		return nil
	}
	polys := make([]orb.Polygon, 0, len(ext))
	for k, r := range ext {
		poly := orb.Polygon{r}
		if k == best {
			poly = append(poly, holes...)
		}
		polys = append(polys, poly)
	}
	return polys
}

func shoelace(r orb.Ring) float64 {
	a := 0.
	for i := 0; i < len(r)-1; i++ {
		a += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return a / 2.
}
