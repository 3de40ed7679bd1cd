package netana

// tabular.go holds the explicit table behind a Tabular distribution.  A table is
// never changed after construction; inserting a pair builds a new table, which is
// what lets Distribution values be copied freely.

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type table struct {
	// explicit mass by value, value 0 excluded
	explicit map[int]float64

	// every pair with positive mass, the inferred value 0 included, in rank order
	ranked []ProbPair
}

func emptyTable() *table {
	return &table{explicit: make(map[int]float64), ranked: []ProbPair{{Prob: 1, Value: 0}}}
}

// buildTable forms the rank order from explicit masses, inferring the mass of 0
func buildTable(explicit map[int]float64) (*table, error) {
	tab := &table{explicit: explicit}
	sum := 0.0
	for v, p := range explicit {
		sum += p
		tab.ranked = append(tab.ranked, ProbPair{Prob: p, Value: v})
	}
	if sum > 1+massTolerance {
		return nil, fmt.Errorf("explicit mass %v: %w", sum, ErrMassExceeded)
	}
	if rem := 1 - sum; rem > 0 {
		tab.ranked = append(tab.ranked, ProbPair{Prob: rem, Value: 0})
	}
	slices.SortFunc(tab.ranked, func(a, b ProbPair) int {
		if pairBefore(a, b) {
			return -1
		}
		if pairBefore(b, a) {
			return 1
		}
		return 0
	})
	return tab, nil
}

func (tab *table) insert(pp ProbPair) (*table, error) {
	if pp.Value < 0 || !(pp.Prob > 0) || pp.Prob > 1 {
		return nil, fmt.Errorf("pair (%v, %d): %w", pp.Prob, pp.Value, ErrInvalidParameter)
	}
	_, present := tab.explicit[pp.Value]
	if present || pp.Value == 0 {
		return nil, fmt.Errorf("value %d: %w", pp.Value, ErrDuplicateValue)
	}
	explicit := maps.Clone(tab.explicit)
	explicit[pp.Value] = pp.Prob
	return buildTable(explicit)
}

func (tab *table) prob(v int) float64 {
	for _, pp := range tab.ranked {
		if pp.Value == v {
			return pp.Prob
		}
	}
	return 0
}

func (tab *table) mean() float64 {
	avg := 0.0
	for _, pp := range tab.ranked {
		avg += pp.Prob * float64(pp.Value)
	}
	return avg
}

// convolve returns the table of the sum of two independent variables.  Mass landing
// on 0 is left to the remainder rule.
func (tab *table) convolve(other *table) (*table, error) {
	explicit := make(map[int]float64)
	for _, a := range tab.ranked {
		for _, b := range other.ranked {
			v := a.Value + b.Value
			if v == 0 {
				continue
			}
			explicit[v] += a.Prob * b.Prob
		}
	}
	return buildTable(explicit)
}
