package delin

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds one delineation run, typically loaded from a TOML control
// file. Flag values on the CLI override file values.
type Config struct {
	DEMFile    string  `toml:"dem_file"`
	OutDir     string  `toml:"out_dir"`
	OutletType string  `toml:"outlet_type"`
	TaccType   string  `toml:"tacc_type"`
	TaccValue  float64 `toml:"tacc_value"`

	// optional UTM zone of the DEM's CRS; when set, the main outlet is also
	// reported in latitude/longitude
	UTMZone  int  `toml:"utm_zone"`
	UTMSouth bool `toml:"utm_south"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		OutDir:     ".",
		OutletType: "single",
		TaccType:   "percentage",
		TaccValue:  5.,
	}
}

// LoadConfig reads a TOML control file. A missing file returns the defaults
// without error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
