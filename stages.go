package delin

import (
	"fmt"

	"github.com/openhydro/delin/grid"
	"github.com/openhydro/delin/stream"
	"github.com/openhydro/delin/vect"
)

// Stage wrappers: each is a standalone file-to-file operation mirroring one
// step of the delineation pipeline. Output drivers and policy strings are
// validated up front, before any input is read, so an invalid call writes
// nothing.

// FlowDirectionStage fills the pits of a DEM and computes flow direction,
// writing the pit-filled elevation and direction rasters.
func FlowDirectionStage(demFile, outletType, pitfillFile, flwdirFile string) error {
	for _, fp := range []string{pitfillFile, flwdirFile} {
		if !grid.ValidRasterPath(fp) {
			return fmt.Errorf("%w: %s", ErrDriver, fp)
		}
	}
	outlet, err := ParseOutletPolicy(outletType)
	if err != nil {
		return err
	}
	dem, err := grid.ReadFloat(demFile)
	if err != nil {
		return err
	}
	pitfill, fdir, err := FillDepressions(dem, outlet)
	if err != nil {
		return err
	}
	if err := grid.WriteFloat(pitfillFile, pitfill); err != nil {
		return err
	}
	return grid.WriteInt(flwdirFile, fdir)
}

// FlowAccumulationStage computes flow accumulation from the pit-filled DEM
// and flow direction rasters.
func FlowAccumulationStage(pitfillFile, flwdirFile, flwaccFile string) error {
	if !grid.ValidRasterPath(flwaccFile) {
		return fmt.Errorf("%w: %s", ErrDriver, flwaccFile)
	}
	pitfill, err := grid.ReadFloat(pitfillFile)
	if err != nil {
		return err
	}
	fdir, err := grid.ReadInt(flwdirFile)
	if err != nil {
		return err
	}
	w, err := NewWatershed(fdir)
	if err != nil {
		return err
	}
	acc := Accumulate(w, func(cid int) float64 {
		if pitfill.IsNodata(cid) {
			return 0.
		}
		return 1.
	}, pitfill.Nodata)
	fmt.Printf(" maximum flow accumulation: %.0f\n", MaxAccumulation(acc))
	return grid.WriteFloat(flwaccFile, acc)
}

// StreamNetworkStage thresholds the accumulation grid and writes the stream
// segments and main outlet points.
func StreamNetworkStage(flwdirFile, flwaccFile, taccType string, taccValue float64, streamFile, outletFile string) error {
	for _, fp := range []string{streamFile, outletFile} {
		if !vect.ValidVectorPath(fp) {
			return fmt.Errorf("%w: %s", ErrDriver, fp)
		}
	}
	tt, err := ParseThresholdType(taccType)
	if err != nil {
		return err
	}
	fdir, err := grid.ReadInt(flwdirFile)
	if err != nil {
		return err
	}
	acc, err := grid.ReadFloat(flwaccFile)
	if err != nil {
		return err
	}
	w, err := NewWatershed(fdir)
	if err != nil {
		return err
	}
	net, err := ExtractStreams(w, acc, Threshold{Type: tt, Value: taccValue})
	if err != nil {
		return err
	}
	fmt.Printf(" threshold flow accumulation: %.0f\n", net.Threshold)
	if err := WriteSegments(streamFile, fdir.CRS, net.Segments); err != nil {
		return err
	}
	return writeOutlets(outletFile, fdir.CRS, net.Outlets)
}

// SubbasinStage derives pour points from a stream network and labels and
// vectorizes the subbasin draining to each, writing both files.
func SubbasinStage(flwdirFile, streamFile, subbasinFile, pourFile string) error {
	for _, fp := range []string{subbasinFile, pourFile} {
		if !vect.ValidVectorPath(fp) {
			return fmt.Errorf("%w: %s", ErrDriver, fp)
		}
	}
	fdir, err := grid.ReadInt(flwdirFile)
	if err != nil {
		return err
	}
	w, err := NewWatershed(fdir)
	if err != nil {
		return err
	}
	segs, crs, err := ReadSegments(streamFile)
	if err != nil {
		return err
	}
	pps := stream.PourPoints(segs)
	if err := writePourPoints(pourFile, crs, pps); err != nil {
		return err
	}
	labels, err := DelineateSubbasins(w, pps)
	if err != nil {
		return err
	}
	return writeSubbasins(subbasinFile, crs, labels)
}

// SlopeStage computes slope from a DEM raster.
func SlopeStage(demFile, slopeFile string) error {
	if !grid.ValidRasterPath(slopeFile) {
		return fmt.Errorf("%w: %s", ErrDriver, slopeFile)
	}
	dem, err := grid.ReadFloat(demFile)
	if err != nil {
		return err
	}
	return grid.WriteFloat(slopeFile, Slope(dem))
}

// SlopeClassificationStage reclassifies a slope raster into the classes
// bounded below by lb.
func SlopeClassificationStage(slopeFile string, lb []float64, values []int32, reclassFile string) error {
	if !grid.ValidRasterPath(reclassFile) {
		return fmt.Errorf("%w: %s", ErrDriver, reclassFile)
	}
	if len(lb) != len(values) {
		return fmt.Errorf("%w: both input lists must have the same length", ErrInvalidArgument)
	}
	slope, err := grid.ReadFloat(slopeFile)
	if err != nil {
		return err
	}
	rc, err := ReclassifySlope(slope, lb, values)
	if err != nil {
		return err
	}
	return grid.WriteInt(reclassFile, rc)
}

func writePourPoints(fp, crs string, pps []stream.PourPoint) error {
	c := vect.New(crs, "flw_id")
	for _, pp := range pps {
		c.Add(pp.Point, map[string]interface{}{"flw_id": pp.SegID})
	}
	return vect.Write(fp, c)
}

func writeSubbasins(fp, crs string, labels *grid.Int) error {
	polys, err := VectorizePolygons(labels, 8)
	if err != nil {
		return err
	}
	c := vect.New(crs, "flw_id", "area_m2")
	for _, lp := range polys {
		c.Add(lp.Poly, map[string]interface{}{
			"flw_id":  int(lp.Label),
			"area_m2": roundTo(planarArea(lp.Poly), 2),
		})
	}
	return vect.Write(fp, c)
}
