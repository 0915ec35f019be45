// Package delin delineates watersheds from digital elevation models:
// depression filling, D8 flow direction, flow accumulation, stream-network
// extraction and subbasin labeling, with vector output of the network.
package delin

// D8 flow-direction codes. Each valid cell carries the code of its single
// downslope neighbour; pits carry D8Pit and cells outside the valid mask
// carry D8Nodata.
const (
	D8East      int32 = 1
	D8SouthEast int32 = 2
	D8South     int32 = 4
	D8SouthWest int32 = 8
	D8West      int32 = 16
	D8NorthWest int32 = 32
	D8North     int32 = 64
	D8NorthEast int32 = 128
	D8Pit       int32 = 0
	D8Nodata    int32 = 247
)

// d8Codes and d8Offsets share the fixed neighbour scan order
// E, SE, S, SW, W, NW, N, NE. The scan order is the tie-break rule for
// direction assignment, so it must never change.
var (
	d8Codes   = [8]int32{1, 2, 4, 8, 16, 32, 64, 128}
	d8Offsets = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
)

// d8Delta returns the row/column offset for a direction code.
func d8Delta(code int32) (dr, dc int, ok bool) {
	for k, c := range d8Codes {
		if c == code {
			return d8Offsets[k][0], d8Offsets[k][1], true
		}
	}
	return 0, 0, false
}
