package netana

// route.go estimates how packets waiting at a node are spread over its outgoing
// edges.  For one concrete arrangement (packet count per destination) routing is
// deterministic: destinations are served in a fixed priority order, and each packet
// takes the first preferred edge that still has a free wavelength, or is dropped.
// RouteAna integrates that over the joint distribution of the counts.

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// DefaultRouteLimit caps the arrangements RouteAna enumerates at one node
const DefaultRouteLimit = 1000

// EdgeProbs maps an edge to the probability a packet takes it
type EdgeProbs map[Edge]float64

// EdgeProbsMap holds EdgeProbs per destination
type EdgeProbsMap map[int]EdgeProbs

// EdgeCountMap holds, per destination, the number of packets routed onto each edge
type EdgeCountMap map[int]map[Edge]int

// Scale multiplies every probability by c
func (ep EdgeProbs) Scale(c float64) {
	for e := range ep {
		ep[e] *= c
	}
}

// Accumulate adds o into ep
func (ep EdgeProbs) Accumulate(o EdgeProbs) {
	for e, p := range o {
		ep[e] += p
	}
}

// Sum adds up the probabilities
func (ep EdgeProbs) Sum() float64 {
	sum := 0.0
	for _, p := range ep {
		sum += p
	}
	return sum
}

// Scale multiplies every probability of every destination by c
func (epm EdgeProbsMap) Scale(c float64) {
	for _, ep := range epm {
		ep.Scale(c)
	}
}

// Accumulate adds o into epm, destination by destination
func (epm EdgeProbsMap) Accumulate(o EdgeProbsMap) {
	for dest, ep := range o {
		_, present := epm[dest]
		if !present {
			epm[dest] = make(EdgeProbs)
		}
		epm[dest].Accumulate(ep)
	}
}

// RoutingOrder sorts destinations into the order their packets are routed at j.
// Reachable destinations come first, the one whose most preferred edge is shorter
// ahead, then the lower class, then the lower id.  Unreachable destinations follow
// in id order.
func RoutingOrder(net Network, j int, dests []int) []int {
	order := make([]int, len(dests))
	copy(order, dests)

	frontDist := func(pf Prefs) int {
		return net.Distance(Edge{From: j, To: pf.Neighbors[0]})
	}
	before := func(a, b int) bool {
		pa := net.Prefs(j, a)
		pb := net.Prefs(j, b)
		switch {
		case !pa.Reachable() && !pb.Reachable():
			return a < b
		case pa.Reachable() != pb.Reachable():
			return pa.Reachable()
		}
		da, db := frontDist(pa), frontDist(pb)
		if da != db {
			return da < db
		}
		if pa.Class != pb.Class {
			return pa.Class < pb.Class
		}
		return a < b
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case before(a, b):
			return -1
		case before(b, a):
			return 1
		}
		return 0
	})
	return order
}

// RouteArr routes one arrangement of packets waiting at j.  arr maps each destination
// to its packet count.  Each packet takes the first of its preferred edges with a
// free wavelength; a packet finding none is dropped.
func RouteArr(net Network, j int, arr map[int]int) (EdgeCountMap, error) {
	avail := make(map[Edge]int)
	for _, e := range net.OutEdges(j) {
		avail[e] = net.Capacity(e)
	}

	count := make(EdgeCountMap)
	for _, dest := range RoutingOrder(net, j, sortedKeys(arr)) {
		np := arr[dest]
		if np < 0 {
			return nil, fmt.Errorf("%d packets to %d: %w", np, dest, ErrInvalidParameter)
		}
		if np > 0 && dest == j {
			return nil, fmt.Errorf("packets at %d routed to themselves: %w", j, ErrInvalidParameter)
		}
		prefs := net.Prefs(j, dest).Preferred()
		for ; np > 0; np-- {
			for _, nbr := range prefs {
				e := Edge{From: j, To: nbr}
				left, present := avail[e]
				if !present {
					return nil, fmt.Errorf("preferred edge %s does not leave %d: %w", e, j, ErrTopology)
				}
				if left > 0 {
					avail[e] = left - 1
					_, present := count[dest]
					if !present {
						count[dest] = make(map[Edge]int)
					}
					count[dest][e] += 1
					break
				}
			}
		}
	}
	return count, nil
}

// ArrRouteProb converts the counts of RouteArr into the fraction of each destination's
// packets that take each edge
func ArrRouteProb(net Network, j int, arr map[int]int) (EdgeProbsMap, error) {
	count, err := RouteArr(net, j, arr)
	if err != nil {
		return nil, err
	}
	probs := make(EdgeProbsMap)
	for dest, edges := range count {
		probs[dest] = make(EdgeProbs)
		for e, c := range edges {
			probs[dest][e] = float64(c) / float64(arr[dest])
		}
	}
	return probs, nil
}

// RouteAna computes the probability that a packet waiting at j for destination d
// takes each outgoing edge.  mus gives the distribution of waiting packets per
// destination.  Arrangements are enumerated in decreasing probability until the
// cutoff is met or limit arrangements have been seen; each contributes its routing
// fractions weighted by its probability and packet count.  A limit of 0 or less
// means no limit, in which case cutoff must be positive.
func RouteAna(net Network, j int, mus map[int]Distribution, cutoff float64, limit int) (EdgeProbsMap, error) {
	if limit <= 0 && !(cutoff > 0) {
		return nil, fmt.Errorf("routing cutoff %v with no arrangement limit: %w", cutoff, ErrInvalidParameter)
	}
	dests := sortedKeys(mus)
	distros := make([]Distribution, len(dests))
	for idx, dest := range dests {
		distros[idx] = mus[dest]
	}

	q := CreateArrQueue(distros)
	if err := q.SetCutoff(cutoff); err != nil {
		return nil, err
	}

	// aggr[d] accumulates probability times packet count for destination d
	aggr := make(map[int]float64)
	probs := make(EdgeProbsMap)

	for seen := 0; limit <= 0 || seen < limit; seen++ {
		marr, prob, ok := q.FindNext()
		if !ok {
			break
		}
		vals, err := q.Values(marr)
		if err != nil {
			return nil, err
		}
		arr := make(map[int]int)
		for idx, dest := range dests {
			if vals[idx] > 0 {
				aggr[dest] += prob * float64(vals[idx])
				arr[dest] = vals[idx]
			}
		}

		arrProbs, err := ArrRouteProb(net, j, arr)
		if err != nil {
			return nil, err
		}
		for dest, ep := range arrProbs {
			ep.Scale(prob * float64(arr[dest]))
		}
		probs.Accumulate(arrProbs)
	}
	if err := q.Err(); err != nil {
		return nil, err
	}

	for dest, ep := range probs {
		ep.Scale(1.0 / aggr[dest])
	}
	return probs, nil
}
