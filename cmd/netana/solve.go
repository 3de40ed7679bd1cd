package main

import (
	"fmt"
	"path"
	"strings"

	"github.com/iti/netana"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var solveCmd = &cli.Command{
	Name:   "solve",
	Usage:  "Runs the analysis of a traffic description over a topology",
	Before: before,
	Action: Solve,
	Flags: []cli.Flag{
		FlagTopology,
		&cli.StringFlag{
			Name:      "traffic",
			Aliases:   []string{"d"},
			Usage:     "the traffic description file",
			Required:  true,
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "the analysis configuration file",
			DefaultText: "built-in defaults",
			TakesFile:   true,
		},
		&cli.StringFlag{
			Name:      "summary",
			Aliases:   []string{"o"},
			Usage:     "write the run summary to this file (yaml or json by extension)",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "loads",
			Usage:     "write the link loads to this csv file",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "trace",
			Usage:     "write a record of every pass to this file (yaml or json by extension)",
			TakesFile: true,
		},
		&cli.IntFlag{
			Name:        "crosscheck",
			Usage:       "compare the admission analysis of the last pass against this many sampled slots per node",
			DefaultText: "no comparison",
		},
	},
}

// Solve reads the descriptions, runs the analysis and writes the requested reports
func Solve(cctx *cli.Context) error {
	td, err := netana.ReadTopoDesc(cctx.String("topology"), []byte{})
	if err != nil {
		return err
	}
	tp, err := td.Build()
	if err != nil {
		return err
	}
	if !tp.Connected() {
		log.WithField("components", len(tp.Components())).Warn("topology is not connected")
	}

	trd, err := netana.ReadTrafficDesc(cctx.String("traffic"), []byte{})
	if err != nil {
		return err
	}
	dl, err := trd.Build(tp)
	if err != nil {
		return err
	}
	tm, err := dl.TrafficMatrix()
	if err != nil {
		return err
	}

	cfg := netana.DefaultAnalysisCfg()
	if cfgFile := cctx.String("config"); cfgFile != "" {
		read, err := netana.ReadAnalysisCfg(cfgFile, []byte{})
		if err != nil {
			return err
		}
		cfg = *read
	}

	an, err := netana.CreateAnalyzer(tp, cfg, log.StandardLogger())
	if err != nil {
		return err
	}

	traceFile := cctx.String("trace")
	trm := netana.CreateTraceManager(experimentName(td, trd), traceFile != "")
	trm.AddNames(tp)
	an.AddObserver(trm.Observer(tp))

	log.WithFields(log.Fields{"topology": tp.Name, "demands": len(dl.Demands), "passes": cfg.Iters}).Info("starting analysis")
	sol, failures := an.Solve(cctx.Context, tm)
	if sol == nil {
		return failures
	}
	if failures != nil {
		if cfg.AbortOnError {
			return failures
		}
		log.WithField("failures", len(netana.NodeErrors(failures))).Warn("analysis completed with node failures")
	}

	sum, err := netana.Summarize(tp, dl, sol, an.Steps(), failures)
	if err != nil {
		return err
	}
	printSummary(cctx, sum)

	if sumFile := cctx.String("summary"); sumFile != "" {
		if err := sum.WriteToFile(sumFile); err != nil {
			return err
		}
	}
	if loadsFile := cctx.String("loads"); loadsFile != "" {
		if err := netana.WriteLinkLoadsCSV(sum.Links, loadsFile); err != nil {
			return err
		}
	}
	if trm.Active() {
		if err := trm.WriteToFile(traceFile); err != nil {
			return err
		}
	}
	if slots := cctx.Int("crosscheck"); slots > 0 {
		return crossCheck(cctx, tp, tm, sol, cfg, slots)
	}
	return nil
}

// experimentName joins the names of the descriptions, falling back on the file names
func experimentName(td *netana.TopoDesc, trd *netana.TrafficDesc) string {
	names := []string{}
	for _, name := range []string{td.Name, trd.Name} {
		if name != "" {
			names = append(names, strings.TrimSuffix(name, path.Ext(name)))
		}
	}
	if len(names) == 0 {
		return "netana"
	}
	return strings.Join(names, "-")
}

func printSummary(cctx *cli.Context, sum *netana.Summary) {
	w := cctx.App.Writer
	fmt.Fprintf(w, "topology %s, %d passes, %d hop computations\n", sum.Topology, sum.Passes, sum.Steps)
	for _, rec := range sum.Demands {
		fmt.Fprintf(w, "  %s -> %s requested %.4f admitted %.4f delivered %.4f\n",
			rec.Src, rec.Dst, rec.Requested, rec.Admitted, rec.Delivered)
	}
	fmt.Fprintf(w, "average link load %.4f\n", sum.AverageLoad)
	for _, failure := range sum.Failures {
		fmt.Fprintf(w, "  failed: %s\n", failure)
	}
}

// crossCheck feeds the transit traffic of the last pass to both the admission
// analysis and a sampled admission, and reports the two ratios per node
func crossCheck(cctx *cli.Context, tp *netana.Topology, tm netana.FPMatrix, sol *netana.Solution, cfg netana.AnalysisCfg, slots int) error {
	itm, err := netana.GenerateITM(sol.Trajectory)
	if err != nil {
		return err
	}
	smp := netana.CreateSampler("crosscheck")
	w := cctx.App.Writer
	for _, j := range tp.Vertices() {
		betas := tm.Column(j)
		if len(betas) == 0 {
			continue
		}
		alphaPrime := 0.0
		for i, rate := range itm.Column(j) {
			if i != j {
				alphaPrime += rate
			}
		}
		transit, err := netana.PoissonOrNone(alphaPrime)
		if err != nil {
			return err
		}
		adm, err := netana.Admit(transit, tp.OutputCapacity(j), betas, cfg.AdmitCutoff)
		if err != nil {
			return err
		}
		sampled, err := smp.SampleAdmission(transit, tp.OutputCapacity(j), betas, slots)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"node": tp.NodeName(j), "analytic": adm.Rho, "sampled": sampled}).Debug("admission crosscheck")
		fmt.Fprintf(w, "  %s rho analytic %.4f sampled %.4f\n", tp.NodeName(j), adm.Rho, sampled)
	}
	return nil
}
