package main

import (
	"github.com/openhydro/delin"
	"github.com/spf13/cobra"
)

var (
	demFile    string
	outDir     string
	outletType string
	taccType   string
	taccValue  float64
	utmZone    int
	utmSouth   bool
)

var delineateCmd = &cobra.Command{
	Use:   "delineate",
	Short: "Run the full delineation pipeline on a DEM",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("dem") {
			cfg.DEMFile = demFile
		}
		if cmd.Flags().Changed("out") {
			cfg.OutDir = outDir
		}
		if cmd.Flags().Changed("outlet-type") {
			cfg.OutletType = outletType
		}
		if cmd.Flags().Changed("tacc-type") {
			cfg.TaccType = taccType
		}
		if cmd.Flags().Changed("tacc-value") {
			cfg.TaccValue = taccValue
		}
		if cmd.Flags().Changed("utm-zone") {
			cfg.UTMZone = utmZone
		}
		if cmd.Flags().Changed("utm-south") {
			cfg.UTMSouth = utmSouth
		}
		_, err := delin.Delineate(cfg)
		return err
	},
}

func init() {
	delineateCmd.Flags().StringVar(&demFile, "dem", "", "input DEM raster (.asc)")
	delineateCmd.Flags().StringVar(&outDir, "out", ".", "output folder")
	delineateCmd.Flags().StringVar(&outletType, "outlet-type", "single", "outlet policy: single or multiple")
	delineateCmd.Flags().StringVar(&taccType, "tacc-type", "percentage", "threshold type: percentage or absolute")
	delineateCmd.Flags().Float64Var(&taccValue, "tacc-value", 5., "threshold value")
	delineateCmd.Flags().IntVar(&utmZone, "utm-zone", 0, "UTM zone of the DEM CRS (0 to skip lat/lon reporting)")
	delineateCmd.Flags().BoolVar(&utmSouth, "utm-south", false, "DEM CRS is a southern-hemisphere UTM zone")
	rootCmd.AddCommand(delineateCmd)
}
