package grid

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/maseology/mmio"
)

// rasterExts lists the file extensions the raster driver registry accepts,
// keyed on extension in the manner of a format registry.
var rasterExts = map[string]bool{".asc": true, ".txt": true}

// ValidRasterPath reports whether a raster driver can be resolved from the
// file path. Checked before any computation so no partial output is written.
func ValidRasterPath(fp string) bool {
	return rasterExts[strings.ToLower(mmio.GetExtension(fp))]
}

type asciiHeader struct {
	ncols, nrows   int
	xll, yll, cs   float64
	nodata         float64
	centerRegister bool
}

// ReadFloat reads an Esri ASCII grid. A sidecar .prj file, when present,
// supplies the CRS tag.
func ReadFloat(fp string) (*Float, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	defer f.Close()

	scn := bufio.NewScanner(f)
	scn.Buffer(make([]byte, 1024*1024), 1024*1024)
	scn.Split(bufio.ScanWords)
	next := func() (string, error) {
		if !scn.Scan() {
			if err := scn.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("grid: unexpected end of file %s", fp)
		}
		return scn.Text(), nil
	}

	h := asciiHeader{nodata: -9999.}
	var vals []float64
	for {
		tok, err := next()
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(tok)
		if v, verr := strconv.ParseFloat(tok, 64); verr == nil {
			// first body value; header is done
			vals = make([]float64, 0, h.ncols*h.nrows)
			vals = append(vals, v)
			break
		}
		sv, err := next()
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(sv, 64)
		if err != nil {
			return nil, fmt.Errorf("grid: bad header value %q for %s in %s", sv, key, fp)
		}
		switch key {
		case "ncols":
			h.ncols = int(v)
		case "nrows":
			h.nrows = int(v)
		case "xllcorner":
			h.xll = v
		case "xllcenter":
			h.xll = v
			h.centerRegister = true
		case "yllcorner":
			h.yll = v
		case "yllcenter":
			h.yll = v
			h.centerRegister = true
		case "cellsize":
			h.cs = v
		case "nodata_value":
			h.nodata = v
		default:
			return nil, fmt.Errorf("grid: unknown header key %q in %s", key, fp)
		}
	}
	if h.ncols <= 0 || h.nrows <= 0 || h.cs <= 0 {
		return nil, fmt.Errorf("grid: incomplete ascii header in %s", fp)
	}
	for len(vals) < h.ncols*h.nrows {
		tok, err := next()
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("grid: bad value %q in %s", tok, fp)
		}
		vals = append(vals, v)
	}

	xll, yll := h.xll, h.yll
	if h.centerRegister {
		xll -= h.cs / 2.
		yll -= h.cs / 2.
	}
	d := Def{
		Width:  h.ncols,
		Height: h.nrows,
		// row 0 is the northernmost; dy negative
		Transform: [6]float64{xll, h.cs, 0., yll + float64(h.nrows)*h.cs, 0., -h.cs},
	}
	if _, ok := mmio.FileExists(sidecarPrj(fp)); ok {
		b, err := os.ReadFile(sidecarPrj(fp))
		if err != nil {
			return nil, fmt.Errorf("grid: %w", err)
		}
		d.CRS = strings.TrimSpace(string(b))
	}
	return NewFloat(d, h.nodata, vals)
}

// ReadInt reads an Esri ASCII grid of integral values.
func ReadInt(fp string) (*Int, error) {
	g, err := ReadFloat(fp)
	if err != nil {
		return nil, err
	}
	vals := make([]int32, len(g.Values))
	for i, v := range g.Values {
		vals[i] = int32(v)
	}
	return NewInt(g.Def, int32(g.Nodata), vals)
}

// WriteFloat writes an Esri ASCII grid. Output goes to a temporary path and
// is renamed on success so a failure never leaves a readable partial file.
func WriteFloat(fp string, g *Float) error {
	return writeASCII(fp, g.Def, formatFloat(g.Nodata), len(g.Values), func(i int) string {
		return formatFloat(g.Values[i])
	})
}

// WriteInt writes an Esri ASCII grid of integral values.
func WriteInt(fp string, g *Int) error {
	return writeASCII(fp, g.Def, strconv.Itoa(int(g.Nodata)), len(g.Values), func(i int) string {
		return strconv.Itoa(int(g.Values[i]))
	})
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeASCII(fp string, d Def, nodata string, n int, cell func(int) string) error {
	if !ValidRasterPath(fp) {
		return fmt.Errorf("grid: could not retrieve raster driver from %s", fp)
	}
	if d.Transform[2] != 0 || d.Transform[4] != 0 || d.Transform[1] != -d.Transform[5] {
		return fmt.Errorf("grid: ascii format requires square unrotated cells")
	}
	tmp := fp + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	ok := false
	defer func() {
		f.Close()
		if !ok {
			os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(f)
	cs := d.Transform[1]
	yll := d.Transform[3] + float64(d.Height)*d.Transform[5]
	fmt.Fprintf(w, "ncols %d\n", d.Width)
	fmt.Fprintf(w, "nrows %d\n", d.Height)
	fmt.Fprintf(w, "xllcorner %s\n", formatFloat(d.Transform[0]))
	fmt.Fprintf(w, "yllcorner %s\n", formatFloat(yll))
	fmt.Fprintf(w, "cellsize %s\n", formatFloat(cs))
	fmt.Fprintf(w, "NODATA_value %s\n", nodata)
	for i := 0; i < n; i++ {
		if i > 0 {
			if i%d.Width == 0 {
				w.WriteByte('\n')
			} else {
				w.WriteByte(' ')
			}
		}
		w.WriteString(cell(i))
	}
	w.WriteByte('\n')
	if err := w.Flush(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if err := os.Rename(tmp, fp); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	ok = true
	if d.CRS != "" {
		if err := os.WriteFile(sidecarPrj(fp), []byte(d.CRS+"\n"), 0644); err != nil {
			return fmt.Errorf("grid: %w", err)
		}
	}
	return nil
}

func sidecarPrj(fp string) string {
	return strings.TrimSuffix(fp, mmio.GetExtension(fp)) + ".prj"
}
