package main

import (
	"fmt"

	"github.com/iti/netana"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var checkCmd = &cli.Command{
	Name:   "check",
	Usage:  "Reads a topology and reports its components and shortest distances",
	Before: before,
	Action: Check,
	Flags: []cli.Flag{
		FlagTopology,
	},
}

// Check builds the topology and prints what the analysis will see of it
func Check(cctx *cli.Context) error {
	td, err := netana.ReadTopoDesc(cctx.String("topology"), []byte{})
	if err != nil {
		return err
	}
	tp, err := td.Build()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"nodes": len(tp.Vertices()), "edges": len(tp.Edges())}).Info("topology built")

	w := cctx.App.Writer
	fmt.Fprintf(w, "topology %s: %d nodes, %d directed edges\n", tp.Name, len(tp.Vertices()), len(tp.Edges()))
	comps := tp.Components()
	if len(comps) > 1 {
		fmt.Fprintf(w, "warning: %d connected components\n", len(comps))
	}
	for _, e := range tp.Edges() {
		fmt.Fprintf(w, "  %s distance %d wavelengths %d\n", tp.EdgeName(e), tp.Distance(e), tp.Capacity(e))
	}
	for _, src := range tp.Vertices() {
		for _, dst := range tp.Vertices() {
			if src == dst {
				continue
			}
			fmt.Fprintf(w, "  %s\n", tp.ShowPath(src, dst))
		}
	}
	return nil
}
