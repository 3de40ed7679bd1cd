package netana

// hop.go advances the packets of one demand by one hop.  With v the vector of
// per-node distance polynomials and T the transition matrix toward the demand's
// destination, the next vector is T*v computed in the truncated polynomial ring.
// The polynomial crossing each edge is recorded on the way.

import (
	"fmt"
)

// MakeHop returns the per-node polynomials after one hop and the polynomial that
// crossed each edge.  Terms pushed past the distance bound vanish in the product,
// which is how packets that travelled too far are dropped.
func MakeHop(v NodePolys, T TransMatrix) (NodePolys, EdgePolys, error) {
	nodes := make(NodePolys)
	links := make(EdgePolys)

	for _, i := range sortedKeys(T) {
		for _, j := range sortedKeys(T[i]) {
			pp, present := v[j]
			if !present {
				continue
			}
			overLink, err := MulFloatDist(T[i][j], pp)
			if err != nil {
				return nil, nil, fmt.Errorf("edge (%d, %d): %w", j, i, err)
			}
			if overLink.Empty() {
				continue
			}
			if err := AddDistInto(nodes, i, overLink); err != nil {
				return nil, nil, fmt.Errorf("node %d: %w", i, err)
			}
			if err := AddDistInto(links, Edge{From: j, To: i}, overLink); err != nil {
				return nil, nil, fmt.Errorf("edge (%d, %d): %w", j, i, err)
			}
		}
	}
	return nodes, links, nil
}
