package delin

import (
	"errors"
	"testing"

	"github.com/openhydro/delin/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDef(w, h int) grid.Def {
	return grid.Def{Width: w, Height: h, Transform: [6]float64{0., 10., 0., float64(h) * 10., 0., -10.}}
}

func TestParseOutletPolicy(t *testing.T) {
	p, err := ParseOutletPolicy("single")
	require.NoError(t, err)
	assert.Equal(t, OutletSingle, p)
	p, err = ParseOutletPolicy("multiple")
	require.NoError(t, err)
	assert.Equal(t, OutletMultiple, p)
	_, err = ParseOutletPolicy("bogus")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestFillDepressionsRaisesSink(t *testing.T) {
	dem, err := grid.NewFloat(testDef(3, 3), -9999., []float64{
		5., 5., 5.,
		5., 1., 5.,
		5., 5., 5.,
	})
	require.NoError(t, err)

	pitfill, fdir, err := FillDepressions(dem, OutletMultiple)
	require.NoError(t, err)

	// the sink rises to the spill level of its ring
	assert.Equal(t, 5., pitfill.Values[4])
	// first edge popped is cell 0; the sink drains back to it
	assert.Equal(t, D8NorthWest, fdir.Values[4])

	npits := 0
	for _, c := range fdir.Values {
		if c == D8Pit {
			npits++
		}
		assert.NotEqual(t, int32(D8Nodata), c)
	}
	assert.Equal(t, 8, npits) // every edge cell drains off grid

	w, err := NewWatershed(fdir)
	require.NoError(t, err)
	assert.Equal(t, 9, w.Nc)
}

func TestFillDepressionsSingleOutlet(t *testing.T) {
	dem, err := grid.NewFloat(testDef(3, 3), -9999., []float64{
		5., 5., 5.,
		5., 1., 5.,
		5., 5., 5.,
	})
	require.NoError(t, err)

	_, fdir, err := FillDepressions(dem, OutletSingle)
	require.NoError(t, err)

	npits := 0
	for _, c := range fdir.Values {
		if c == D8Pit {
			npits++
		}
	}
	assert.Equal(t, 1, npits)

	// everything still terminates
	w, err := NewWatershed(fdir)
	require.NoError(t, err)
	assert.Equal(t, 9, w.Nc)
}

func TestFillDepressionsNodata(t *testing.T) {
	dem, err := grid.NewFloat(testDef(3, 3), -9999., []float64{
		5., 5., 5.,
		5., 4., 5.,
		5., 5., -9999.,
	})
	require.NoError(t, err)

	pitfill, fdir, err := FillDepressions(dem, OutletMultiple)
	require.NoError(t, err)
	assert.Equal(t, int32(D8Nodata), fdir.Values[8])
	assert.True(t, pitfill.IsNodata(8))
}

func TestFillDepressionsErrors(t *testing.T) {
	dem, err := grid.NewFloat(testDef(2, 2), -9999., []float64{-9999., -9999., -9999., -9999.})
	require.NoError(t, err)
	_, _, err = FillDepressions(dem, OutletSingle)
	assert.True(t, errors.Is(err, ErrPrecondition))

	_, _, err = FillDepressions(dem, OutletPolicy(9))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}
