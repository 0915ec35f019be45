package delin

import (
	"fmt"
	"math"

	"github.com/openhydro/delin/grid"
)

// Slope computes the slope magnitude (rise over run) of each valid cell from
// the eight-neighbour gradient of Horn (1981). Neighbours outside the grid
// or flagged nodata take the centre elevation, which zeroes their
// contribution to the gradient at the data edge.
func Slope(dem *grid.Float) *grid.Float {
	gd := dem.Def
	dx, dy := gd.CellSize()
	vals := make([]float64, gd.Ncells())

	z := func(r, c int, z0 float64) float64 {
		if !gd.InBounds(r, c) {
			return z0
		}
		if i := gd.Index(r, c); !dem.IsNodata(i) {
			return dem.Values[i]
		}
		return z0
	}

	for i := range vals {
		if dem.IsNodata(i) {
			vals[i] = dem.Nodata
			continue
		}
		r, c := gd.RowCol(i)
		z0 := dem.Values[i]
		zNW, zN, zNE := z(r-1, c-1, z0), z(r-1, c, z0), z(r-1, c+1, z0)
		zW, zE := z(r, c-1, z0), z(r, c+1, z0)
		zSW, zS, zSE := z(r+1, c-1, z0), z(r+1, c, z0), z(r+1, c+1, z0)
		dzdx := ((zNE + 2*zE + zSE) - (zNW + 2*zW + zSW)) / (8. * dx)
		dzdy := ((zSW + 2*zS + zSE) - (zNW + 2*zN + zNE)) / (8. * dy)
		vals[i] = math.Sqrt(dzdx*dzdx + dzdy*dzdy)
	}

	out, _ := grid.NewFloat(gd, dem.Nodata, vals)
	return out
}

// ReclassifySlope multiplies slope by 100 (percent) and classifies it into
// the left-closed intervals defined by lb. For lb=[0,2,8] the intervals are
// [0,2), [2,8) and [8,inf); values below lb[0] fall in the first interval's
// class only when >= lb[0], otherwise they are left nodata. The lengths of
// lb and values must match.
func ReclassifySlope(slope *grid.Float, lb []float64, values []int32) (*grid.Int, error) {
	if len(lb) != len(values) {
		return nil, fmt.Errorf("%w: both input lists must have the same length (%d != %d)", ErrInvalidArgument, len(lb), len(values))
	}
	if len(lb) == 0 {
		return nil, fmt.Errorf("%w: empty reclassification lists", ErrInvalidArgument)
	}
	nodata := int32(slope.Nodata)
	out := make([]int32, slope.Ncells())
	for i := range out {
		out[i] = nodata
		if slope.IsNodata(i) {
			continue
		}
		pct := 100. * slope.Values[i]
		for j := len(lb) - 1; j >= 0; j-- {
			if pct >= lb[j] {
				out[i] = values[j]
				break
			}
		}
	}
	return grid.NewInt(slope.Def, nodata, out)
}
