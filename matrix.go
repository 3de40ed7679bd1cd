package netana

// matrix.go holds the sparse matrices exchanged by the steps of an analysis pass.
// A missing entry means no traffic.  Rates of exactly zero are never stored, so
// "not found" and "computed as zero" cannot be confused.

import (
	"fmt"
	"math"
)

// FPMatrix maps (destination, node) to a rate.  The traffic matrix, keyed by
// (destination, source), is an FPMatrix.
type FPMatrix map[int]map[int]float64

// Get returns the rate at (i, j), and false if there is none
func (m FPMatrix) Get(i, j int) (float64, bool) {
	row, present := m[i]
	if !present {
		return 0, false
	}
	rate, present := row[j]
	return rate, present
}

// Exists is true if (i, j) carries a rate
func (m FPMatrix) Exists(i, j int) bool {
	_, present := m.Get(i, j)
	return present
}

// Set stores a rate at (i, j).  Zero, negative and non-finite rates are refused.
func (m FPMatrix) Set(i, j int, rate float64) error {
	if !(rate > 0) || math.IsInf(rate, 1) {
		return fmt.Errorf("rate %v at (%d, %d): %w", rate, i, j, ErrZeroRate)
	}
	_, present := m[i]
	if !present {
		m[i] = make(map[int]float64)
	}
	m[i][j] = rate
	return nil
}

// Add adds rate to the entry at (i, j)
func (m FPMatrix) Add(i, j int, rate float64) error {
	old, _ := m.Get(i, j)
	return m.Set(i, j, old+rate)
}

// AddMatrix adds every entry of o into m
func (m FPMatrix) AddMatrix(o FPMatrix) error {
	for _, i := range sortedKeys(o) {
		for _, j := range sortedKeys(o[i]) {
			if err := m.Add(i, j, o[i][j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Scaled returns a copy of m with every rate multiplied by c, which must be positive
func (m FPMatrix) Scaled(c float64) FPMatrix {
	sm := make(FPMatrix)
	for i, row := range m {
		sm[i] = make(map[int]float64, len(row))
		for j, rate := range row {
			sm[i][j] = rate * c
		}
	}
	return sm
}

// Column returns the rates at node j, keyed by destination
func (m FPMatrix) Column(j int) map[int]float64 {
	col := make(map[int]float64)
	for i, row := range m {
		rate, present := row[j]
		if present {
			col[i] = rate
		}
	}
	return col
}

// Len is the number of stored entries
func (m FPMatrix) Len() int {
	n := 0
	for _, row := range m {
		n += len(row)
	}
	return n
}

// TransMatrix is the transition matrix toward one destination.  Entry (target, source)
// is p*x^d for an edge of length d from source to target taken with probability p.
type TransMatrix map[int]map[int]FloatPoly

// Set stores the polynomial at (target, source)
func (tm TransMatrix) Set(target, source int, p FloatPoly) {
	_, present := tm[target]
	if !present {
		tm[target] = make(map[int]FloatPoly)
	}
	tm[target][source] = p
}

// EdgeProbsMatrix maps (destination, node) to the routing probabilities of the
// edges leaving the node
type EdgeProbsMatrix map[int]map[int]EdgeProbs

// Set stores the routing probabilities at (dest, j)
func (epm EdgeProbsMatrix) Set(dest, j int, ep EdgeProbs) {
	_, present := epm[dest]
	if !present {
		epm[dest] = make(map[int]EdgeProbs)
	}
	epm[dest][j] = ep
}

// Get returns the routing probabilities at (dest, j)
func (epm EdgeProbsMatrix) Get(dest, j int) (EdgeProbs, bool) {
	row, present := epm[dest]
	if !present {
		return nil, false
	}
	ep, present := row[j]
	return ep, present
}

// NodePolys maps a node to a distance polynomial
type NodePolys map[int]DistPoly

// EdgePolys maps an edge to a distance polynomial
type EdgePolys map[Edge]DistPoly

// PacketPresence describes, per hop, the packets of one demand present at each node
type PacketPresence map[int]NodePolys

// PacketTrajectory describes, per hop, the packets of one demand crossing each edge
type PacketTrajectory map[int]EdgePolys

// PresenceMatrix maps (destination, source) to the packet presence of that demand
type PresenceMatrix map[int]map[int]PacketPresence

// TrajectoryMatrix maps (destination, source) to the packet trajectory of that demand
type TrajectoryMatrix map[int]map[int]PacketTrajectory

// Get returns the packet presence of demand (dest, src)
func (ppm PresenceMatrix) Get(dest, src int) (PacketPresence, bool) {
	row, present := ppm[dest]
	if !present {
		return nil, false
	}
	pp, present := row[src]
	return pp, present
}

// Set stores the packet presence of a demand at one hop
func (ppm PresenceMatrix) Set(dest, src, hop int, nodes NodePolys) {
	_, present := ppm[dest]
	if !present {
		ppm[dest] = make(map[int]PacketPresence)
	}
	_, present = ppm[dest][src]
	if !present {
		ppm[dest][src] = make(PacketPresence)
	}
	ppm[dest][src][hop] = nodes
}

// Get returns the packet trajectory of demand (dest, src)
func (ptm TrajectoryMatrix) Get(dest, src int) (PacketTrajectory, bool) {
	row, present := ptm[dest]
	if !present {
		return nil, false
	}
	pt, present := row[src]
	return pt, present
}

// Set stores the packet trajectory of a demand at one hop
func (ptm TrajectoryMatrix) Set(dest, src, hop int, links EdgePolys) {
	_, present := ptm[dest]
	if !present {
		ptm[dest] = make(map[int]PacketTrajectory)
	}
	_, present = ptm[dest][src]
	if !present {
		ptm[dest][src] = make(PacketTrajectory)
	}
	ptm[dest][src][hop] = links
}

// sortedEdges returns the keys of an edge-keyed map, ordered by source then target
func sortedEdges[V any](m map[Edge]V) []Edge {
	edges := make([]Edge, 0, len(m))
	for e := range m {
		edges = append(edges, e)
	}
	sortEdges(edges)
	return edges
}
