package delin

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/im7mortal/UTM"
	"github.com/maseology/mmio"
	"github.com/openhydro/delin/grid"
	"github.com/openhydro/delin/stream"
	"github.com/openhydro/delin/vect"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Output file names of the end-to-end pipeline.
const (
	FileFlwdir     = "flwdir.asc"
	FileSlope      = "slope.asc"
	FileFlwacc     = "flwacc.asc"
	FileStreams    = "stream_lines.geojson"
	FileOutlets    = "outlet_points.geojson"
	FilePourPoints = "subbasin_pour_points.geojson"
	FileSubbasins  = "subbasins.geojson"
	FileSummary    = "summary.json"
)

// StageTime is one entry of the pipeline's timing report.
type StageTime struct {
	Stage   string  `json:"stage"`
	Seconds float64 `json:"seconds"`
}

// Summary reports the counts and per-stage timings of a pipeline run. It is
// returned to the caller and persisted as JSON alongside the other outputs.
type Summary struct {
	ValidCells      int         `json:"valid_cells"`
	CellResolution  [2]float64  `json:"cell_resolution"`
	WatershedAreaM2 float64     `json:"watershed_area_m2"`
	MaxAccumulation int         `json:"max_accumulation"`
	ThresholdCells  int         `json:"threshold_cells"`
	ThresholdAreaM2 float64     `json:"threshold_area_m2"`
	SegmentCount    int         `json:"stream_segments"`
	OutletCount     int         `json:"outlet_points"`
	OutletLatLon    *[2]float64 `json:"outlet_latlon,omitempty"`
	Stages          []StageTime `json:"stage_seconds"`
	TotalSeconds    float64     `json:"total_seconds"`
}

// Delineate runs the whole delineation from a DEM: pit filling and flow
// direction, slope, flow accumulation, stream network and outlets, pour
// points and subbasins, writing all outputs to cfg.OutDir. It aborts on the
// first stage failure, leaving prior completed outputs on disk and no
// summary file.
func Delineate(cfg Config) (*Summary, error) {
	t0 := time.Now()

	// upfront validation, before any input is read
	if fi, err := os.Stat(cfg.OutDir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: output folder %q does not exist", ErrInvalidArgument, cfg.OutDir)
	}
	outlet, err := ParseOutletPolicy(cfg.OutletType)
	if err != nil {
		return nil, err
	}
	tt, err := ParseThresholdType(cfg.TaccType)
	if err != nil {
		return nil, err
	}
	outpath := func(name string) string { return filepath.Join(cfg.OutDir, name) }

	sum := &Summary{}
	lap := func(stage string, st time.Time) {
		sec := roundTo(time.Since(st).Seconds(), 3)
		sum.Stages = append(sum.Stages, StageTime{Stage: stage, Seconds: sec})
		fmt.Printf(" %s: %.3fs\n", stage, sec)
	}

	// stage 1: DEM
	st := time.Now()
	dem, err := grid.ReadFloat(cfg.DEMFile)
	if err != nil {
		return nil, err
	}
	lap("DEM read", st)
	sum.ValidCells = dem.CountValid()
	dx, dy := dem.CellSize()
	sum.CellResolution = [2]float64{dx, dy}
	sum.WatershedAreaM2 = float64(sum.ValidCells) * dem.CellArea()
	fmt.Printf(" %s valid cells, watershed area %.1f m²\n", mmio.Thousands(int64(sum.ValidCells)), sum.WatershedAreaM2)

	// stage 2: pit filling and flow direction
	st = time.Now()
	pitfill, fdir, err := FillDepressions(dem, outlet)
	if err != nil {
		return nil, err
	}
	if err := grid.WriteInt(outpath(FileFlwdir), fdir); err != nil {
		return nil, err
	}
	lap("pit filling and flow direction", st)

	// stage 3: slope of the filled terrain
	st = time.Now()
	if err := grid.WriteFloat(outpath(FileSlope), Slope(pitfill)); err != nil {
		return nil, err
	}
	lap("slope", st)

	// stage 4: flow accumulation
	st = time.Now()
	w, err := NewWatershed(fdir)
	if err != nil {
		return nil, err
	}
	acc := Accumulate(w, nil, dem.Nodata)
	if err := grid.WriteFloat(outpath(FileFlwacc), acc); err != nil {
		return nil, err
	}
	lap("flow accumulation", st)
	sum.MaxAccumulation = int(MaxAccumulation(acc))

	// stage 5: stream network and outlets
	st = time.Now()
	net, err := ExtractStreams(w, acc, Threshold{Type: tt, Value: cfg.TaccValue})
	if err != nil {
		return nil, err
	}
	sum.ThresholdCells = int(net.Threshold)
	sum.ThresholdAreaM2 = net.Threshold * dem.CellArea()
	sum.SegmentCount = len(net.Segments)
	sum.OutletCount = len(net.Outlets)
	fmt.Printf(" threshold %d cells: %d stream segments, %d outlet(s)\n",
		sum.ThresholdCells, sum.SegmentCount, sum.OutletCount)
	if err := WriteSegments(outpath(FileStreams), dem.CRS, net.Segments); err != nil {
		return nil, err
	}
	if err := writeOutlets(outpath(FileOutlets), dem.CRS, net.Outlets); err != nil {
		return nil, err
	}
	lap("stream network", st)

	// stage 6: pour points
	st = time.Now()
	pps := stream.PourPoints(net.Segments)
	if err := writePourPoints(outpath(FilePourPoints), dem.CRS, pps); err != nil {
		return nil, err
	}
	lap("pour points", st)

	// stage 7: subbasins
	st = time.Now()
	labels, err := DelineateSubbasins(w, pps)
	if err != nil {
		return nil, err
	}
	if err := writeSubbasins(outpath(FileSubbasins), dem.CRS, labels); err != nil {
		return nil, err
	}
	lap("subbasins", st)

	if cfg.UTMZone > 0 && len(net.Outlets) > 0 {
		p := net.Outlets[0].Point
		lat, lon, err := UTM.ToLatLon(p.X(), p.Y(), cfg.UTMZone, "", !cfg.UTMSouth)
		if err == nil {
			sum.OutletLatLon = &[2]float64{lat, lon}
		}
	}

	sum.TotalSeconds = roundTo(time.Since(t0).Seconds(), 3)
	fmt.Printf(" total: %.3fs\n", sum.TotalSeconds)

	b, err := json.MarshalIndent(sum, "", "\t")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(outpath(FileSummary), b, 0644); err != nil {
		return nil, err
	}
	return sum, nil
}

func writeOutlets(fp, crs string, outlets []stream.Outlet) error {
	c := vect.New(crs, "outlet_id", "flw_id")
	for _, o := range outlets {
		c.Add(o.Point, map[string]interface{}{"outlet_id": o.ID, "flw_id": o.SegID})
	}
	return vect.Write(fp, c)
}

func planarArea(p orb.Polygon) float64 { return planar.Area(p) }

func roundTo(v float64, decimals int) float64 {
	s := math.Pow10(decimals)
	return math.Round(v*s) / s
}
