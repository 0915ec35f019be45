package grid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidRasterPath(t *testing.T) {
	assert.True(t, ValidRasterPath("dem.asc"))
	assert.True(t, ValidRasterPath("DEM.ASC"))
	assert.True(t, ValidRasterPath("dem.txt"))
	assert.False(t, ValidRasterPath("dem.tif"))
	assert.False(t, ValidRasterPath("dem"))
}

func TestASCIIRoundTrip(t *testing.T) {
	d := testDef()
	d.CRS = `PROJCS["WGS 84 / UTM zone 17N"]`
	g, err := NewFloat(d, -9999., []float64{1., 2., -9999., 4.25, 5., 6.})
	require.NoError(t, err)

	fp := filepath.Join(t.TempDir(), "out.asc")
	require.NoError(t, WriteFloat(fp, g))

	r, err := ReadFloat(fp)
	require.NoError(t, err)
	assert.Equal(t, g.Def, r.Def)
	assert.Equal(t, g.Nodata, r.Nodata)
	assert.Equal(t, g.Values, r.Values)
	assert.Equal(t, d.CRS, r.CRS) // carried through the .prj sidecar
}

func TestASCIIRoundTripInt(t *testing.T) {
	g, err := NewInt(testDef(), 247, []int32{1, 2, 4, 247, 64, 128})
	require.NoError(t, err)

	fp := filepath.Join(t.TempDir(), "fdir.asc")
	require.NoError(t, WriteInt(fp, g))

	r, err := ReadInt(fp)
	require.NoError(t, err)
	assert.Equal(t, g.Nodata, r.Nodata)
	assert.Equal(t, g.Values, r.Values)
}

func TestReadCenterRegistered(t *testing.T) {
	// xllcenter/yllcenter headers shift the origin half a cell
	body := "ncols 3\nnrows 2\nxllcenter 105\nyllcenter 185\ncellsize 10\n" +
		"1 2 3\n4 5 6\n"
	fp := filepath.Join(t.TempDir(), "centered.asc")
	require.NoError(t, os.WriteFile(fp, []byte(body), 0644))

	g, err := ReadFloat(fp)
	require.NoError(t, err)
	assert.Equal(t, testDef(), g.Def)
	assert.Equal(t, -9999., g.Nodata) // default when header omits NODATA_value
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		fp := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(fp, []byte(body), 0644))
		return fp
	}

	_, err := ReadFloat(filepath.Join(dir, "missing.asc"))
	assert.Error(t, err)

	_, err = ReadFloat(write("badkey.asc", "ncols 2\nfoo 1\n1 2\n"))
	assert.Error(t, err)

	_, err = ReadFloat(write("short.asc", "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n"))
	assert.Error(t, err)

	_, err = ReadFloat(write("noheader.asc", "1 2 3\n"))
	assert.Error(t, err)
}

func TestWriteErrors(t *testing.T) {
	g, err := NewFloat(testDef(), -9999., make([]float64, 6))
	require.NoError(t, err)
	assert.Error(t, WriteFloat(filepath.Join(t.TempDir(), "out.tif"), g))

	rot := g.Def
	rot.Transform[2] = 1.
	rg, err := NewFloat(rot, -9999., make([]float64, 6))
	require.NoError(t, err)
	assert.Error(t, WriteFloat(filepath.Join(t.TempDir(), "rot.asc"), rg))
}
