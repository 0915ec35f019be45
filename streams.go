package delin

import (
	"fmt"
	"math"

	"github.com/openhydro/delin/grid"
	"github.com/openhydro/delin/stream"
	"github.com/paulmach/orb"
)

// ThresholdType selects how the channel threshold is resolved against the
// accumulation grid.
type ThresholdType int

const (
	// ThresholdAbsolute uses the literal cell count.
	ThresholdAbsolute ThresholdType = iota + 1
	// ThresholdPercentage uses round(max_accumulation * value / 100).
	ThresholdPercentage
)

// ParseThresholdType maps the control-file strings to a threshold type.
func ParseThresholdType(s string) (ThresholdType, error) {
	switch s {
	case "absolute":
		return ThresholdAbsolute, nil
	case "percentage":
		return ThresholdPercentage, nil
	default:
		return 0, fmt.Errorf("%w: threshold accumulation type must be one of [percentage, absolute], got %q", ErrInvalidArgument, s)
	}
}

// Threshold specifies the channel criterion: cells with accumulation at or
// above the resolved value are channel cells.
type Threshold struct {
	Type  ThresholdType
	Value float64
}

// Resolve returns the threshold in cells for the given maximum accumulation.
func (t Threshold) Resolve(maxacc float64) (float64, error) {
	switch t.Type {
	case ThresholdAbsolute:
		return t.Value, nil
	case ThresholdPercentage:
		return math.Round(maxacc * t.Value / 100.), nil
	default:
		return 0, fmt.Errorf("%w: unrecognized threshold type %d", ErrInvalidArgument, t.Type)
	}
}

// Network is the vectorized channel network: reaches split at confluences,
// ordered upstream to downstream, plus the distinct terminal outlet points.
type Network struct {
	Segments  []stream.Segment
	Outlets   []stream.Outlet
	Threshold float64 // resolved threshold, cells
	MaxAcc    float64
}

// ExtractStreams classifies cells with accumulation at or above the
// threshold as channel and traces the flow graph restricted to channel
// cells. A segment starts at a channel head (no channel contributor) or a
// confluence (more than one channel contributor) and runs to the next
// confluence inclusive, or to a terminal pit; segments ending at a pit are
// flagged as outlets. Ids are assigned sequentially from 1 in extraction
// order; heads and confluences are scanned in cell-index order, so the
// numbering is deterministic.
func ExtractStreams(w *Watershed, acc *grid.Float, t Threshold) (*Network, error) {
	maxacc := MaxAccumulation(acc)
	tc, err := t.Resolve(maxacc)
	if err != nil {
		return nil, err
	}

	channel := make([]bool, w.Nc)
	for i, cid := range w.Cids {
		channel[i] = !acc.IsNodata(cid) && acc.Values[cid] >= tc
	}
	chanIn := make([]int, w.Nc)
	for i := range channel {
		if !channel[i] {
			continue
		}
		if d := w.Ds[i]; d >= 0 {
			chanIn[d]++
		}
	}

	center := func(pos int) orb.Point {
		r, c := w.GD.RowCol(w.Cids[pos])
		x, y := w.GD.CellCenter(r, c)
		return orb.Point{x, y}
	}

	net := &Network{Threshold: tc, MaxAcc: maxacc}
	seen := make(map[orb.Point]bool)
	for cid := 0; cid < w.GD.Ncells(); cid++ {
		pos, ok := w.ArrayIndex(cid)
		if !ok || !channel[pos] {
			continue
		}
		// a segment starts at a head or a (non-terminal) confluence
		if chanIn[pos] != 0 && (chanIn[pos] < 2 || w.Ds[pos] == -1) {
			continue
		}
		coords := orb.LineString{center(pos)}
		cur, pit := pos, false
		for {
			d := w.Ds[cur]
			if d == -1 {
				pit = true
				break
			}
			coords = append(coords, center(d))
			if chanIn[d] >= 2 || w.Ds[d] == -1 {
				pit = w.Ds[d] == -1
				break
			}
			cur = d
		}
		if len(coords) < 2 {
			continue // threshold left a single-cell network
		}
		net.Segments = append(net.Segments, stream.Segment{
			ID:       len(net.Segments) + 1,
			Geom:     coords,
			IsOutlet: pit,
		})
		if pit {
			p := coords[len(coords)-1]
			if !seen[p] {
				seen[p] = true
				net.Outlets = append(net.Outlets, stream.Outlet{
					ID:    len(net.Outlets) + 1,
					SegID: len(net.Segments),
					Point: p,
				})
			}
		}
	}
	return net, nil
}
