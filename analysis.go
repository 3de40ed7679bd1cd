package netana

// analysis.go drives the analysis.  One pass derives the traffic matrices from a
// window of earlier packet trajectories, analyzes routing at every node, and then
// follows every admitted demand hop by hop toward its destination, recording the
// packets present at each node and crossing each edge.  Solve repeats passes,
// feeding each one the trajectories of the most recent passes.  Convergence is not
// checked; the number of passes is a parameter.

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Solution holds the results of one pass
type Solution struct {
	Pass int

	// Presence and Trajectory are keyed (destination, source) -> hop
	Presence   PresenceMatrix
	Trajectory TrajectoryMatrix

	// ATM and OTM are averaged over the window of earlier passes
	ATM FPMatrix
	OTM FPMatrix
	EPM EdgeProbsMatrix

	// Rho is the admission ratio per node with demands, averaged over the window
	Rho map[int]float64

	// Steps is the number of hop computations the pass performed
	Steps int
}

// PassObserver is called with the solution of every completed pass
type PassObserver func(sol *Solution)

// Analyzer runs the analysis over one network
type Analyzer struct {
	net       Network
	cfg       AnalysisCfg
	logger    logrus.FieldLogger
	observers []PassObserver
	steps     int
}

// CreateAnalyzer is a constructor.  A nil logger selects the logrus standard logger.
func CreateAnalyzer(net Network, cfg AnalysisCfg, logger logrus.FieldLogger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Analyzer{net: net, cfg: cfg, logger: logger}, nil
}

// AddObserver registers a function called after every pass
func (an *Analyzer) AddObserver(obs PassObserver) {
	an.observers = append(an.observers, obs)
}

// Steps is the number of hop computations performed so far
func (an *Analyzer) Steps() int {
	return an.steps
}

// Config returns the parameters of the analyzer
func (an *Analyzer) Config() AnalysisCfg {
	return an.cfg
}

// CheckTraffic verifies every entry of a traffic matrix is a positive rate between
// distinct vertices of the network
func (an *Analyzer) CheckTraffic(tm FPMatrix) error {
	known := make(map[int]bool)
	for _, v := range an.net.Vertices() {
		known[v] = true
	}
	for _, dest := range sortedKeys(tm) {
		for _, src := range sortedKeys(tm[dest]) {
			switch {
			case !known[dest] || !known[src]:
				return fmt.Errorf("demand %d -> %d names an unknown vertex: %w", src, dest, ErrTopology)
			case dest == src:
				return fmt.Errorf("demand %d -> %d loops: %w", src, dest, ErrInvalidParameter)
			case !(tm[dest][src] > 0):
				return fmt.Errorf("demand %d -> %d: %w", src, dest, ErrZeroRate)
			}
		}
	}
	return nil
}

func (an *Analyzer) logNodeErrors(pass int, err error) {
	for _, ne := range NodeErrors(err) {
		an.logger.WithFields(logrus.Fields{"pass": pass, "node": ne.Node, "stage": ne.Stage}).Warn(ne.Err)
	}
}

// Iteration runs one pass.  window holds the trajectory matrices of the passes to
// average over; an empty window stands for a single pass in which nothing moved.
// Node failures are collected and returned with the solution unless the
// configuration asks to abort.
func (an *Analyzer) Iteration(ctx context.Context, pass int, tm FPMatrix, window []TrajectoryMatrix) (*Solution, error) {
	if len(window) == 0 {
		window = []TrajectoryMatrix{{}}
	}

	an.logger.WithField("pass", pass).Debug("generating ITM, ATM and OTM")
	var errs error
	atmSum := make(FPMatrix)
	otmSum := make(FPMatrix)
	rhoSum := make(map[int]float64)
	for _, prior := range window {
		itm, err := GenerateITM(prior)
		errs = multierr.Append(errs, err)
		patm, adms, err := GenerateATM(an.net, tm, itm, an.cfg.AdmitCutoff)
		errs = multierr.Append(errs, err)
		potm, err := GenerateOTM(itm, patm)
		if err != nil {
			return nil, err
		}
		if err := atmSum.AddMatrix(patm); err != nil {
			return nil, err
		}
		if err := otmSum.AddMatrix(potm); err != nil {
			return nil, err
		}
		for j, adm := range adms {
			rhoSum[j] += adm.Rho
		}
	}
	if errs != nil && an.cfg.AbortOnError {
		return nil, errs
	}

	weight := 1.0 / float64(len(window))
	sol := &Solution{Pass: pass, ATM: atmSum.Scaled(weight), OTM: otmSum.Scaled(weight),
		Rho: make(map[int]float64), Presence: make(PresenceMatrix), Trajectory: make(TrajectoryMatrix)}
	for j, rho := range rhoSum {
		sol.Rho[j] = rho * weight
	}

	an.logger.WithField("pass", pass).Debug("generating EPM")
	epm, err := GenerateEPM(an.net, sol.OTM, an.cfg.RouteCutoff, an.cfg.RouteLimit)
	errs = multierr.Append(errs, err)
	if errs != nil && an.cfg.AbortOnError {
		return nil, errs
	}
	sol.EPM = epm

	an.logger.WithFields(logrus.Fields{"pass": pass, "steps": sol.ATM.Len() * an.cfg.HopLimit}).Info("propagating demands")

	bound := an.cfg.Bound()
	for _, dest := range an.net.Vertices() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pass %d: %w", pass, err)
		}
		T := GenerateT(an.net, dest, epm, bound)

		for _, src := range an.net.Vertices() {
			admitted, present := sol.ATM.Get(dest, src)
			if src == dest || !present {
				continue
			}
			if err := an.propagate(sol, T, dest, src, admitted, bound); err != nil {
				errs = multierr.Append(errs, &NodeError{Node: src, Stage: StagePropagate, Err: err})
				if an.cfg.AbortOnError {
					return nil, errs
				}
			}
		}
	}
	an.logNodeErrors(pass, errs)
	return sol, errs
}

// propagate follows the packets of demand (src, dest) for HopLimit hops.  On failure
// nothing of the demand is kept.
func (an *Analyzer) propagate(sol *Solution, T TransMatrix, dest, src int, admitted float64, bound int) error {
	d, err := CreatePoisson(admitted)
	if err != nil {
		return err
	}
	P := NodePolys{src: ConstPoly(bound, d)}
	sol.Presence.Set(dest, src, 0, P)

	for hop := 1; hop <= an.cfg.HopLimit; hop++ {
		nodes, links, err := MakeHop(P, T)
		if err != nil {
			delete(sol.Presence[dest], src)
			delete(sol.Trajectory[dest], src)
			return fmt.Errorf("hop %d toward %d: %w", hop, dest, err)
		}
		sol.Presence.Set(dest, src, hop, nodes)
		sol.Trajectory.Set(dest, src, hop, links)
		P = nodes
		sol.Steps += 1
		an.steps += 1
	}
	return nil
}

// Solve runs the configured number of passes and returns the last solution.  Each
// pass averages over the trajectories of up to Window() preceding passes.  Node
// failures of every pass are returned combined; with AbortOnError the run stops at
// the first.  A TimeLimit in the configuration bounds the run through ctx.
func (an *Analyzer) Solve(ctx context.Context, tm FPMatrix) (*Solution, error) {
	if err := an.CheckTraffic(tm); err != nil {
		return nil, err
	}
	if an.cfg.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, an.cfg.Timeout())
		defer cancel()
	}

	var last *Solution
	var errs error
	window := []TrajectoryMatrix{}
	for pass := 1; pass <= an.cfg.Iters; pass++ {
		an.logger.WithFields(logrus.Fields{"pass": pass, "window": len(window)}).Info("starting pass")
		sol, err := an.Iteration(ctx, pass, tm, window)
		errs = multierr.Append(errs, err)
		if sol == nil {
			return last, errs
		}
		for _, obs := range an.observers {
			obs(sol)
		}

		if len(window) == an.cfg.Window() {
			window = window[1:]
		}
		window = append(window, sol.Trajectory)
		last = sol
	}
	an.logger.WithField("steps", an.steps).Info("analysis complete")
	return last, errs
}
