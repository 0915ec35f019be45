package delin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "delin.toml")
	body := `dem_file = "dem.asc"
out_dir = "out"
outlet_type = "multiple"
tacc_type = "absolute"
tacc_value = 250.0
utm_zone = 17
`
	require.NoError(t, os.WriteFile(fp, []byte(body), 0644))

	cfg, err := LoadConfig(fp)
	require.NoError(t, err)
	assert.Equal(t, "dem.asc", cfg.DEMFile)
	assert.Equal(t, "out", cfg.OutDir)
	assert.Equal(t, "multiple", cfg.OutletType)
	assert.Equal(t, "absolute", cfg.TaccType)
	assert.Equal(t, 250., cfg.TaccValue)
	assert.Equal(t, 17, cfg.UTMZone)
	assert.False(t, cfg.UTMSouth)
}

func TestLoadConfigBadTOML(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "delin.toml")
	require.NoError(t, os.WriteFile(fp, []byte("dem_file = [whoops"), 0644))
	_, err := LoadConfig(fp)
	assert.Error(t, err)
}
