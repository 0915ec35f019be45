// Package grid holds the in-memory raster model used by the delineation
// pipeline: a single-band grid of values with a nodata sentinel, an affine
// transform and a coordinate reference system tag.
package grid

import (
	"fmt"
	"math"
)

// Def is an immutable grid descriptor. Transform holds the affine
// coefficients in the order [x0, dx, rx, y0, ry, dy] such that
//
//	x = x0 + col*dx + row*rx
//	y = y0 + col*ry + row*dy
//
// with (x0,y0) the outer corner of cell (0,0). Derived grids copy the Def;
// stages never mutate a shared descriptor.
type Def struct {
	Width, Height int
	Transform     [6]float64
	CRS           string
}

// Ncells returns the total cell count, valid or not.
func (d Def) Ncells() int { return d.Width * d.Height }

// Index converts a row/column pair to a cell index.
func (d Def) Index(row, col int) int { return row*d.Width + col }

// RowCol converts a cell index to its row/column pair.
func (d Def) RowCol(i int) (int, int) { return i / d.Width, i % d.Width }

// InBounds reports whether the row/column pair falls on the grid.
func (d Def) InBounds(row, col int) bool {
	return row >= 0 && row < d.Height && col >= 0 && col < d.Width
}

// CornerXY returns the map coordinate of the corner shared by cells
// (row-1,col-1) and (row,col).
func (d Def) CornerXY(row, col int) (float64, float64) {
	t := d.Transform
	fr, fc := float64(row), float64(col)
	return t[0] + fc*t[1] + fr*t[2], t[3] + fc*t[4] + fr*t[5]
}

// CellCenter returns the map coordinate of a cell centre. All vector output
// of the pipeline is built from this one formula so that endpoint equality
// holds exactly.
func (d Def) CellCenter(row, col int) (float64, float64) {
	t := d.Transform
	fr, fc := float64(row)+0.5, float64(col)+0.5
	return t[0] + fc*t[1] + fr*t[2], t[3] + fc*t[4] + fr*t[5]
}

// CellSize returns the absolute cell width and height.
func (d Def) CellSize() (float64, float64) {
	t := d.Transform
	return math.Abs(t[1]), math.Abs(t[5])
}

// CellArea returns the planar area of one cell.
func (d Def) CellArea() float64 {
	t := d.Transform
	return math.Abs(t[1]*t[5] - t[2]*t[4])
}

// CellAt returns the row/column of the cell containing map coordinate (x,y).
func (d Def) CellAt(x, y float64) (int, int, error) {
	t := d.Transform
	det := t[1]*t[5] - t[2]*t[4]
	if det == 0 {
		return 0, 0, fmt.Errorf("grid: degenerate transform")
	}
	px, py := x-t[0], y-t[3]
	col := int(math.Floor((px*t[5] - py*t[2]) / det))
	row := int(math.Floor((py*t[1] - px*t[4]) / det))
	if !d.InBounds(row, col) {
		return 0, 0, fmt.Errorf("grid: coordinate (%g,%g) outside grid", x, y)
	}
	return row, col, nil
}

// Float is a single-band float64 raster.
type Float struct {
	Def
	Nodata float64
	Values []float64
}

// Int is a single-band int32 raster.
type Int struct {
	Def
	Nodata int32
	Values []int32
}

// NewFloat builds a Float raster, checking the value count against the Def.
func NewFloat(d Def, nodata float64, values []float64) (*Float, error) {
	if len(values) != d.Ncells() {
		return nil, fmt.Errorf("grid: have %d values, need %d", len(values), d.Ncells())
	}
	return &Float{Def: d, Nodata: nodata, Values: values}, nil
}

// NewInt builds an Int raster, checking the value count against the Def.
func NewInt(d Def, nodata int32, values []int32) (*Int, error) {
	if len(values) != d.Ncells() {
		return nil, fmt.Errorf("grid: have %d values, need %d", len(values), d.Ncells())
	}
	return &Int{Def: d, Nodata: nodata, Values: values}, nil
}

// IsNodata reports whether cell i carries the nodata sentinel.
func (g *Float) IsNodata(i int) bool {
	return g.Values[i] == g.Nodata || math.IsNaN(g.Values[i])
}

// IsNodata reports whether cell i carries the nodata sentinel.
func (g *Int) IsNodata(i int) bool { return g.Values[i] == g.Nodata }

// CountValid returns the number of cells not flagged nodata.
func (g *Float) CountValid() int {
	n := 0
	for i := range g.Values {
		if !g.IsNodata(i) {
			n++
		}
	}
	return n
}
