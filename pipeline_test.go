package delin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/openhydro/delin/grid"
	"github.com/openhydro/delin/vect"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestDEM writes a 5x5 tilted-plane DEM draining to its southwest
// corner, 10 m cells.
func writeTestDEM(t *testing.T, dir string) string {
	t.Helper()
	d := grid.Def{Width: 5, Height: 5, Transform: [6]float64{0., 10., 0., 50., 0., -10.}}
	vals := make([]float64, d.Ncells())
	for i := range vals {
		r, c := d.RowCol(i)
		vals[i] = float64((d.Height - 1 - r) + c)
	}
	g, err := grid.NewFloat(d, -9999., vals)
	require.NoError(t, err)
	fp := filepath.Join(dir, "dem.asc")
	require.NoError(t, grid.WriteFloat(fp, g))
	return fp
}

func TestDelineate(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		DEMFile:    writeTestDEM(t, dir),
		OutDir:     dir,
		OutletType: "single",
		TaccType:   "absolute",
		TaccValue:  2.,
	}
	sum, err := Delineate(cfg)
	require.NoError(t, err)

	for _, name := range []string{
		FileFlwdir, FileSlope, FileFlwacc, FileStreams,
		FileOutlets, FilePourPoints, FileSubbasins, FileSummary,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	assert.Equal(t, 25, sum.ValidCells)
	assert.Equal(t, [2]float64{10., 10.}, sum.CellResolution)
	assert.Equal(t, 2500., sum.WatershedAreaM2)
	assert.Equal(t, 25, sum.MaxAccumulation) // single outlet drains it all
	assert.Equal(t, 1, sum.OutletCount)
	assert.Greater(t, sum.SegmentCount, 0)
	assert.Len(t, sum.Stages, 7)

	// the summary on disk matches the returned one
	b, err := os.ReadFile(filepath.Join(dir, FileSummary))
	require.NoError(t, err)
	var onDisk Summary
	require.NoError(t, json.Unmarshal(b, &onDisk))
	assert.Equal(t, sum.ValidCells, onDisk.ValidCells)
	assert.Equal(t, sum.SegmentCount, onDisk.SegmentCount)

	// stream segments carry sequential ids from 1
	segs, _, err := ReadSegments(filepath.Join(dir, FileStreams))
	require.NoError(t, err)
	require.Len(t, segs, sum.SegmentCount)
	for i, s := range segs {
		assert.Equal(t, i+1, s.ID)
	}

	// exactly one outlet feature
	oc, err := vect.Read(filepath.Join(dir, FileOutlets))
	require.NoError(t, err)
	assert.Len(t, oc.Features, 1)

	// the subbasins partition the watershed
	sc, err := vect.Read(filepath.Join(dir, FileSubbasins))
	require.NoError(t, err)
	area := 0.
	for _, f := range sc.Features {
		a, ok := f.Properties["area_m2"].(float64)
		require.True(t, ok)
		area += a
	}
	assert.InDelta(t, sum.WatershedAreaM2, area, 0.01*float64(len(sc.Features)))
}

func TestDelineateInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		DEMFile:    writeTestDEM(t, dir),
		OutDir:     dir,
		OutletType: "bogus",
		TaccType:   "absolute",
		TaccValue:  2.,
	}
	_, err := Delineate(cfg)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	// validation failed before any stage ran
	_, err = os.Stat(filepath.Join(dir, FileFlwdir))
	assert.True(t, os.IsNotExist(err))

	cfg.OutletType = "single"
	cfg.TaccType = "relative"
	_, err = Delineate(cfg)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	cfg.TaccType = "absolute"
	cfg.OutDir = filepath.Join(dir, "nope")
	_, err = Delineate(cfg)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

// TestStageChain runs the delineation as individual file-to-file stages.
func TestStageChain(t *testing.T) {
	dir := t.TempDir()
	dem := writeTestDEM(t, dir)
	path := func(name string) string { return filepath.Join(dir, name) }

	require.NoError(t, FlowDirectionStage(dem, "single", path("pitfill.asc"), path("fdir.asc")))
	require.NoError(t, FlowAccumulationStage(path("pitfill.asc"), path("fdir.asc"), path("acc.asc")))
	require.NoError(t, StreamNetworkStage(path("fdir.asc"), path("acc.asc"), "percentage", 10., path("net.geojson"), path("out.geojson")))
	require.NoError(t, SubbasinStage(path("fdir.asc"), path("net.geojson"), path("sub.geojson"), path("pour.geojson")))
	require.NoError(t, SlopeStage(dem, path("slope.asc")))
	require.NoError(t, SlopeClassificationStage(path("slope.asc"), []float64{0., 2., 8.}, []int32{1, 2, 3}, path("rc.asc")))

	for _, name := range []string{"pitfill.asc", "fdir.asc", "acc.asc", "net.geojson",
		"out.geojson", "sub.geojson", "pour.geojson", "slope.asc", "rc.asc"} {
		_, err := os.Stat(path(name))
		assert.NoError(t, err, name)
	}

	// the pit-filled plane has no sinks, so filling preserved it
	pf, err := grid.ReadFloat(path("pitfill.asc"))
	require.NoError(t, err)
	in, err := grid.ReadFloat(dem)
	require.NoError(t, err)
	assert.Equal(t, in.Values, pf.Values)
}

func TestStageDriverErrors(t *testing.T) {
	dir := t.TempDir()
	dem := writeTestDEM(t, dir)

	err := FlowDirectionStage(dem, "single", filepath.Join(dir, "pitfill.tif"), filepath.Join(dir, "fdir.asc"))
	assert.True(t, errors.Is(err, ErrDriver))

	err = StreamNetworkStage("", "", "percentage", 5., filepath.Join(dir, "net.shp"), filepath.Join(dir, "out.geojson"))
	assert.True(t, errors.Is(err, ErrDriver))

	err = SlopeClassificationStage("", []float64{0.}, []int32{1, 2}, filepath.Join(dir, "rc.asc"))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestSegmentsRoundTrip(t *testing.T) {
	w := yNetwork(t)
	acc := Accumulate(w, nil, -9999.)
	net, err := ExtractStreams(w, acc, Threshold{Type: ThresholdAbsolute, Value: 2.})
	require.NoError(t, err)

	fp := filepath.Join(t.TempDir(), "net.geojson")
	crs := `PROJCS["WGS 84 / UTM zone 17N"]`
	require.NoError(t, WriteSegments(fp, crs, net.Segments))

	segs, rcrs, err := ReadSegments(fp)
	require.NoError(t, err)
	assert.Equal(t, crs, rcrs)
	assert.Equal(t, net.Segments, segs)
}

func TestReadSegmentsRejectsNonLines(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "pts.geojson")
	c := vect.New("", "flw_id")
	c.Add(orb.Point{1., 1.}, map[string]interface{}{"flw_id": 1})
	require.NoError(t, vect.Write(fp, c))

	_, _, err := ReadSegments(fp)
	assert.True(t, errors.Is(err, ErrPrecondition))
}
