package delin

import (
	"fmt"

	"github.com/openhydro/delin/grid"
)

// Watershed is the implicit directed graph over grid cells derived from a D8
// direction grid. All arrays are 0-based and aligned with Cids, the
// topologically safe cell ordering: every cell appears before the cell it
// drains to, so a single forward sweep resolves all upstream contributors.
type Watershed struct {
	GD   grid.Def
	FD   *grid.Int // source direction grid
	Cids []int     // grid cell ids, topologically ordered
	Ds   []int     // downslope array index per position, -1 at pits
	Us   [][]int   // upslope array indices per position
	Nc   int       // number of valid cells
	mx   map[int]int
}

// NewWatershed builds the flow graph from a direction grid. A direction that
// points off grid, at a nodata cell, or into a cycle is a precondition
// failure: direction grids produced by FillDepressions terminate by
// construction, so any of these means the input was not.
func NewWatershed(fd *grid.Int) (*Watershed, error) {
	gd := fd.Def
	n := gd.Ncells()

	// downslope cell id per cell; -1 pit, -2 invalid
	dsc := make([]int, n)
	nvalid := 0
	for i := 0; i < n; i++ {
		if fd.IsNodata(i) {
			dsc[i] = -2
			continue
		}
		nvalid++
		code := fd.Values[i]
		if code == D8Pit {
			dsc[i] = -1
			continue
		}
		dr, dc, ok := d8Delta(code)
		if !ok {
			return nil, fmt.Errorf("%w: unrecognized flow direction code %d at cell %d", ErrPrecondition, code, i)
		}
		r, c := gd.RowCol(i)
		rr, cc := r+dr, c+dc
		if !gd.InBounds(rr, cc) {
			return nil, fmt.Errorf("%w: flow direction at cell %d points off grid", ErrPrecondition, i)
		}
		j := gd.Index(rr, cc)
		if fd.IsNodata(j) {
			return nil, fmt.Errorf("%w: flow direction at cell %d points at a nodata cell", ErrPrecondition, i)
		}
		dsc[i] = j
	}

	// Kahn ordering over valid cells, upstream before downstream
	indeg := make([]int, n)
	for i := 0; i < n; i++ {
		if dsc[i] >= 0 {
			indeg[dsc[i]]++
		}
	}
	cids := make([]int, 0, nvalid)
	for i := 0; i < n; i++ {
		if dsc[i] != -2 && indeg[i] == 0 {
			cids = append(cids, i)
		}
	}
	for k := 0; k < len(cids); k++ {
		if d := dsc[cids[k]]; d >= 0 {
			if indeg[d]--; indeg[d] == 0 {
				cids = append(cids, d)
			}
		}
	}
	if len(cids) != nvalid {
		return nil, fmt.Errorf("%w: flow direction grid contains a cycle (%d of %d cells ordered)", ErrPrecondition, len(cids), nvalid)
	}

	mx := make(map[int]int, nvalid)
	for i, cid := range cids {
		mx[cid] = i
	}
	ds := make([]int, nvalid)
	us := make([][]int, nvalid)
	for i, cid := range cids {
		if dsc[cid] < 0 {
			ds[i] = -1
			continue
		}
		ds[i] = mx[dsc[cid]]
		us[ds[i]] = append(us[ds[i]], i)
	}

	return &Watershed{GD: gd, FD: fd, Cids: cids, Ds: ds, Us: us, Nc: nvalid, mx: mx}, nil
}

// ArrayIndex maps a grid cell id to its position in the topo-safe arrays.
func (w *Watershed) ArrayIndex(cid int) (int, bool) {
	i, ok := w.mx[cid]
	return i, ok
}
