package delin

import "github.com/openhydro/delin/grid"

// Accumulate computes, for every valid cell, its own weight plus the weight
// contributed by all cells draining into it. A nil weight function gives the
// unit weight, making the result the count of contributing cells including
// the cell itself. Cells outside the valid mask hold nodata.
//
// Cells are swept in the topologically safe order of the Watershed, so every
// upstream contributor is resolved before its receiver; cycles were already
// rejected when the Watershed was built.
func Accumulate(w *Watershed, weight func(cid int) float64, nodata float64) *grid.Float {
	acc := make([]float64, w.Nc)
	for i, cid := range w.Cids {
		if weight == nil {
			acc[i]++
		} else {
			acc[i] += weight(cid)
		}
		if w.Ds[i] >= 0 {
			acc[w.Ds[i]] += acc[i]
		}
	}

	vals := make([]float64, w.GD.Ncells())
	for i := range vals {
		vals[i] = nodata
	}
	for i, cid := range w.Cids {
		vals[cid] = acc[i]
	}
	out, _ := grid.NewFloat(w.GD, nodata, vals)
	return out
}

// MaxAccumulation returns the largest accumulation among valid cells.
func MaxAccumulation(acc *grid.Float) float64 {
	max, any := 0., false
	for i, v := range acc.Values {
		if acc.IsNodata(i) {
			continue
		}
		if !any || v > max {
			max, any = v, true
		}
	}
	return max
}
