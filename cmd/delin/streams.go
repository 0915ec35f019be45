package main

import (
	"fmt"

	"github.com/openhydro/delin"
	"github.com/openhydro/delin/stream"
	"github.com/openhydro/delin/vect"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
)

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "Topology operations on an extracted stream network",
}

var streamsCheckCmd = &cobra.Command{
	Use:   "check <network>",
	Short: "Report whether segments appear ordered upstream to downstream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		segs, _, err := delin.ReadSegments(args[0])
		if err != nil {
			return err
		}
		lines := make([]orb.LineString, len(segs))
		for i, s := range segs {
			lines[i] = s.Geom
		}
		fmt.Printf("flow segments: %d, upstream points ordered: %v\n", len(segs), stream.CheckFlowDirection(lines))
		return nil
	},
}

var streamsReverseCmd = &cobra.Command{
	Use:   "reverse <network> <output>",
	Short: "Reverse every segment's coordinate order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		segs, crs, err := delin.ReadSegments(args[0])
		if err != nil {
			return err
		}
		lines := make([]orb.LineString, len(segs))
		for i, s := range segs {
			lines[i] = s.Geom
		}
		for i, rev := range stream.ReverseFlowDirection(lines) {
			segs[i].Geom = rev
		}
		return delin.WriteSegments(args[1], crs, segs)
	},
}

var streamsLinksCmd = &cobra.Command{
	Use:   "links <network> <output>",
	Short: "Add each segment's downstream link id (-1 where none is unique)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		segs, crs, err := delin.ReadSegments(args[0])
		if err != nil {
			return err
		}
		links := stream.DownstreamLinks(segs)
		c := vect.New(crs, "flw_id", "ds_id")
		for _, s := range segs {
			c.Add(s.Geom, map[string]interface{}{"flw_id": s.ID, "ds_id": links[s.ID]})
		}
		return vect.Write(args[1], c)
	},
}

var streamsJunctionsCmd = &cobra.Command{
	Use:   "junctions <network> <output>",
	Short: "Write the network's junction points",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		segs, crs, err := delin.ReadSegments(args[0])
		if err != nil {
			return err
		}
		c := vect.New(crs, "jid", "flw_ids")
		for _, j := range stream.JunctionPoints(segs) {
			c.Add(j.Point, map[string]interface{}{"jid": j.JID, "flw_ids": j.SegIDs})
		}
		return vect.Write(args[1], c)
	},
}

var streamsOutletsCmd = &cobra.Command{
	Use:   "outlets <network> <output>",
	Short: "Write the network's main outlet points",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		segs, crs, err := delin.ReadSegments(args[0])
		if err != nil {
			return err
		}
		c := vect.New(crs, "outlet_id", "flw_id")
		for _, o := range stream.MainOutlets(segs) {
			c.Add(o.Point, map[string]interface{}{"outlet_id": o.ID, "flw_id": o.SegID})
		}
		return vect.Write(args[1], c)
	},
}

var streamsPourCmd = &cobra.Command{
	Use:   "pourpoints <network> <output>",
	Short: "Write each segment's subbasin pour point",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		segs, crs, err := delin.ReadSegments(args[0])
		if err != nil {
			return err
		}
		c := vect.New(crs, "flw_id")
		for _, pp := range stream.PourPoints(segs) {
			c.Add(pp.Point, map[string]interface{}{"flw_id": pp.SegID})
		}
		return vect.Write(args[1], c)
	},
}

func init() {
	streamsCmd.AddCommand(streamsCheckCmd, streamsReverseCmd, streamsLinksCmd,
		streamsJunctionsCmd, streamsOutletsCmd, streamsPourCmd)
	rootCmd.AddCommand(streamsCmd)
}
