package netana

// generate.go derives the matrices of one analysis pass.  The input traffic matrix
// (ITM) comes from the packet trajectories of an earlier pass; admission turns the
// demands into the admitted traffic matrix (ATM); the traffic waiting for routing
// (OTM) is the transit part of the ITM plus the ATM; routing analysis of the OTM
// gives the edge probability matrix (EPM), from which a transition matrix is built
// per destination.
//
// The generators keep going when a node fails.  Failures come back as NodeErrors
// combined with multierr, and the returned matrix holds every node that succeeded.

import (
	"fmt"

	"go.uber.org/multierr"
)

// GenerateITM sums, per (destination, arrival node), the mean rate of packets
// crossing the edges into the node, over every hop of every demand in ptm
func GenerateITM(ptm TrajectoryMatrix) (FPMatrix, error) {
	itm := make(FPMatrix)
	var errs error
	for _, dest := range sortedKeys(ptm) {
		for _, src := range sortedKeys(ptm[dest]) {
			pt := ptm[dest][src]
			for _, hop := range sortedKeys(pt) {
				for _, e := range sortedEdges(pt[hop]) {
					rate := MeanOf(pt[hop][e])
					if rate == 0 {
						continue
					}
					if err := itm.Add(dest, e.To, rate); err != nil {
						errs = multierr.Append(errs, &NodeError{Node: e.To, Stage: StageInput, Err: err})
					}
				}
			}
		}
	}
	return itm, errs
}

// GenerateATM runs the admission analysis at every node.  The transit traffic at j
// is the ITM traffic arriving at j for other destinations; the demands are the
// traffic matrix entries sourced at j.  Only nonzero admitted rates are stored.
// The Admission record of every node that has demands is returned alongside.
func GenerateATM(net Network, tm, itm FPMatrix, cutoff float64) (FPMatrix, map[int]*Admission, error) {
	atm := make(FPMatrix)
	adms := make(map[int]*Admission)
	var errs error

	for _, j := range net.Vertices() {
		alphaPrime := 0.0
		col := itm.Column(j)
		for _, i := range sortedKeys(col) {
			if i != j {
				alphaPrime += col[i]
			}
		}
		betas := tm.Column(j)
		if len(betas) == 0 {
			continue
		}

		transit, err := PoissonOrNone(alphaPrime)
		if err != nil {
			errs = multierr.Append(errs, &NodeError{Node: j, Stage: StageAdmission, Err: err})
			continue
		}
		adm, err := Admit(transit, net.OutputCapacity(j), betas, cutoff)
		if err != nil {
			errs = multierr.Append(errs, &NodeError{Node: j, Stage: StageAdmission, Err: err})
			continue
		}
		adms[j] = adm
		for _, i := range sortedKeys(adm.Rates) {
			if adm.Rates[i] == 0 {
				continue
			}
			if err := atm.Set(i, j, adm.Rates[i]); err != nil {
				errs = multierr.Append(errs, &NodeError{Node: j, Stage: StageAdmission, Err: err})
			}
		}
	}
	return atm, adms, errs
}

// GenerateOTM forms the traffic requesting routing at each node: the ITM entries of
// packets not yet at their destination, plus the admitted traffic
func GenerateOTM(itm, atm FPMatrix) (FPMatrix, error) {
	otm := make(FPMatrix)
	for _, i := range sortedKeys(itm) {
		for _, j := range sortedKeys(itm[i]) {
			if i != j {
				if err := otm.Set(i, j, itm[i][j]); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, i := range sortedKeys(atm) {
		for _, j := range sortedKeys(atm[i]) {
			if i == j {
				return nil, fmt.Errorf("admitted traffic from %d to itself: %w", j, ErrInvalidParameter)
			}
			if err := otm.Add(i, j, atm[i][j]); err != nil {
				return nil, err
			}
		}
	}
	return otm, nil
}

// GenerateEPM runs the routing analysis at every node, modelling the packets waiting
// for each destination as a Poisson count with the OTM rate
func GenerateEPM(net Network, otm FPMatrix, cutoff float64, limit int) (EdgeProbsMatrix, error) {
	epm := make(EdgeProbsMatrix)
	var errs error

	for _, j := range net.Vertices() {
		col := otm.Column(j)
		if len(col) == 0 {
			continue
		}
		input := make(map[int]Distribution, len(col))
		var nodeErr error
		for _, i := range sortedKeys(col) {
			if i == j {
				nodeErr = fmt.Errorf("traffic at %d waiting to reach itself: %w", j, ErrInvalidParameter)
				break
			}
			d, err := CreatePoisson(col[i])
			if err != nil {
				nodeErr = err
				break
			}
			input[i] = d
		}
		if nodeErr != nil {
			errs = multierr.Append(errs, &NodeError{Node: j, Stage: StageRouting, Err: nodeErr})
			continue
		}

		probs, err := RouteAna(net, j, input, cutoff, limit)
		if err != nil {
			errs = multierr.Append(errs, &NodeError{Node: j, Stage: StageRouting, Err: err})
			continue
		}
		for dest, ep := range probs {
			epm.Set(dest, j, ep)
		}
	}
	return epm, errs
}

// GenerateT builds the transition matrix toward dest.  The entry (e.To, e.From) for
// every edge e with a nonzero routing probability p is p*x^distance(e).  Packets at
// dest have arrived, so no column is built for dest and they leave the walk.
func GenerateT(net Network, dest int, epm EdgeProbsMatrix, bound int) TransMatrix {
	T := make(TransMatrix)
	row, present := epm[dest]
	if !present {
		return T
	}
	for _, j := range sortedKeys(row) {
		if j == dest {
			continue
		}
		for _, e := range sortedEdges(row[j]) {
			prob := row[j][e]
			if prob == 0 {
				continue
			}
			T.Set(e.To, j, MonoPoly(bound, prob, net.Distance(e)))
		}
	}
	return T
}
