package delin

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/openhydro/delin/grid"
)

// OutletPolicy selects where filled terrain is allowed to drain off grid.
type OutletPolicy int

const (
	// OutletSingle forces all flow toward the single lowest valid edge cell.
	OutletSingle OutletPolicy = iota + 1
	// OutletMultiple lets every valid edge cell act as an independent outlet.
	OutletMultiple
)

// ParseOutletPolicy maps the control-file strings to a policy.
func ParseOutletPolicy(s string) (OutletPolicy, error) {
	switch s {
	case "single":
		return OutletSingle, nil
	case "multiple":
		return OutletMultiple, nil
	default:
		return 0, fmt.Errorf("%w: outlet type must be one of [single, multiple], got %q", ErrInvalidArgument, s)
	}
}

func (p OutletPolicy) String() string {
	switch p {
	case OutletSingle:
		return "single"
	case OutletMultiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// floodItem orders the priority flood by filled elevation; seq breaks
// elevation ties by insertion order so output is deterministic.
type floodItem struct {
	z   float64
	seq int
	idx int
}

type floodHeap []floodItem

func (h floodHeap) Len() int { return len(h) }
func (h floodHeap) Less(i, j int) bool {
	if h[i].z != h[j].z {
		return h[i].z < h[j].z
	}
	return h[i].seq < h[j].seq
}
func (h floodHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *floodHeap) Push(x any) { *h = append(*h, x.(floodItem)) }
func (h *floodHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// FillDepressions raises every interior sink of the DEM to its spill level
// and assigns each cell a D8 direction toward the neighbour it was flooded
// from, under the given outlet policy. It returns the pit-filled elevation
// grid and the direction grid (nodata code 247).
//
// The flood is seeded at the outlet cells (pits, code 0) and grows uphill by
// always popping the lowest reached cell; a neighbour first reached from
// cell c drains to c and takes elevation max(z, z_c). Neighbours are scanned
// in the fixed d8Offsets order, which is the documented tie-break rule.
func FillDepressions(dem *grid.Float, outlet OutletPolicy) (*grid.Float, *grid.Int, error) {
	if outlet != OutletSingle && outlet != OutletMultiple {
		return nil, nil, fmt.Errorf("%w: unrecognized outlet policy %d", ErrInvalidArgument, outlet)
	}
	gd := dem.Def
	n := gd.Ncells()

	filled := make([]float64, n)
	fdir := make([]int32, n)
	visited := make([]bool, n)
	for i := 0; i < n; i++ {
		filled[i] = dem.Values[i]
		fdir[i] = D8Nodata
		if dem.IsNodata(i) {
			visited[i] = true // nodata never enters the flood
		}
	}

	// edge cells: valid cells on the grid border or 8-adjacent to nodata
	isEdge := func(i int) bool {
		r, c := gd.RowCol(i)
		for _, o := range d8Offsets {
			rr, cc := r+o[0], c+o[1]
			if !gd.InBounds(rr, cc) {
				return true
			}
			if dem.IsNodata(gd.Index(rr, cc)) {
				return true
			}
		}
		return false
	}

	h := &floodHeap{}
	seq := 0
	push := func(i int, z float64) {
		visited[i] = true
		filled[i] = z
		heap.Push(h, floodItem{z: z, seq: seq, idx: i})
		seq++
	}

	switch outlet {
	case OutletMultiple:
		for i := 0; i < n; i++ {
			if !visited[i] && isEdge(i) {
				fdir[i] = D8Pit
				push(i, dem.Values[i])
			}
		}
	case OutletSingle:
		min, zmin := -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !visited[i] && isEdge(i) && dem.Values[i] < zmin {
				min, zmin = i, dem.Values[i]
			}
		}
		if min < 0 {
			return nil, nil, fmt.Errorf("%w: DEM has no valid edge cell to act as outlet", ErrPrecondition)
		}
		fdir[min] = D8Pit
		push(min, zmin)
	}

	for h.Len() > 0 {
		it := heap.Pop(h).(floodItem)
		r, c := gd.RowCol(it.idx)
		for k, o := range d8Offsets {
			rr, cc := r+o[0], c+o[1]
			if !gd.InBounds(rr, cc) {
				continue
			}
			j := gd.Index(rr, cc)
			if visited[j] {
				continue
			}
			// neighbour j drains back to the popped cell
			fdir[j] = d8Codes[(k+4)%8]
			push(j, math.Max(dem.Values[j], it.z))
		}
	}

	pf, err := grid.NewFloat(gd, dem.Nodata, filled)
	if err != nil {
		return nil, nil, err
	}
	fd, err := grid.NewInt(gd, D8Nodata, fdir)
	if err != nil {
		return nil, nil, err
	}
	return pf, fd, nil
}
