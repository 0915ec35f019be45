// Command delin delineates watersheds from DEM rasters and inspects the
// topology of extracted stream networks.
package main

import (
	"fmt"
	"os"

	"github.com/openhydro/delin"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        delin.Config
)

var rootCmd = &cobra.Command{
	Use:   "delin",
	Short: "Watershed delineation and stream-network tools",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = delin.LoadConfig(configPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "delin.toml", "path to TOML control file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
