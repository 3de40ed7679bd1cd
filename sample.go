package netana

// sample.go draws packet counts from Distributions and builds tabular distributions
// from observed counts.  It supports Monte Carlo cross-checks of the analytical
// admission model: each node draws its transit and demand counts per time slot and
// admits what the free slots allow.

import (
	"fmt"
	"math"

	"github.com/iti/rngstream"
)

// Sampler draws counts using its own random number stream
type Sampler struct {
	rngstrm *rngstream.RngStream
}

// CreateSampler is a constructor.  Streams with distinct names are independent.
func CreateSampler(name string) *Sampler {
	return &Sampler{rngstrm: rngstream.New(name)}
}

// Draw returns one sample of d
func (smp *Sampler) Draw(d Distribution) int {
	return sampleCount(smp.rngstrm.RandU01(), d)
}

// sampleCount inverts the cumulative distribution of d at u01
func sampleCount(u01 float64, d Distribution) int {
	switch d.kind {
	case Poisson:
		// walk the cdf outward from the mode; exp(-λ) underflows for large λ
		k := poissonMode(d.lambda)
		pk := poissonPMF(k, d.lambda)
		cdf := poissonCDF(k, d.lambda)
		if u01 <= cdf {
			for k > 0 && cdf-pk >= u01 {
				cdf -= pk
				pk *= float64(k) / d.lambda
				k -= 1
			}
			return k
		}
		for cdf < u01 && pk > 0 {
			k += 1
			pk *= d.lambda / float64(k)
			cdf += pk
		}
		return k
	case Geometric:
		if d.p == 1 {
			return 1
		}
		return max(1, int(math.Ceil(math.Log(1-u01)/math.Log(1-d.p))))
	case Tabular:
		cdf := 0.0
		for _, pp := range d.tab.ranked {
			cdf += pp.Prob
			if u01 < cdf {
				return pp.Value
			}
		}
		return d.tab.ranked[len(d.tab.ranked)-1].Value
	}
	return 0
}

// EmpiricalTabular converts a map of value -> number of observations into a
// tabular distribution
func EmpiricalTabular(counts map[int]int) (Distribution, error) {
	total := 0
	for v, n := range counts {
		if v < 0 || n < 0 {
			return Distribution{}, fmt.Errorf("observation %d x %d: %w", v, n, ErrInvalidParameter)
		}
		total += n
	}
	d := CreateTabular()
	if total == 0 {
		return d, nil
	}

	explicit := make(map[int]float64)
	for v, n := range counts {
		if v == 0 || n == 0 {
			continue
		}
		explicit[v] = float64(n) / float64(total)
	}
	tab, err := buildTable(explicit)
	if err != nil {
		return Distribution{}, err
	}
	d.tab = tab
	return d, nil
}

// SampleAdmission estimates the admission ratio of a node by simulating slots time slots.
// Each slot draws the transit count and the aggregate demand count, and admits
// min(max(v - transit, 0), demand) packets.  The ratio of admitted to offered
// packets is returned, 0 when nothing was offered.
func (smp *Sampler) SampleAdmission(transit Distribution, v int, betas map[int]float64, slots int) (float64, error) {
	demand, err := PoissonOrNone(sumRates(betas))
	if err != nil {
		return 0, err
	}
	offered, admitted := 0, 0
	for slot := 0; slot < slots; slot++ {
		a := smp.Draw(transit)
		b := smp.Draw(demand)
		offered += b
		admitted += min(max(v-a, 0), b)
	}
	if offered == 0 {
		return 0, nil
	}
	return float64(admitted) / float64(offered), nil
}

// SampleCounts draws slots samples of d and tallies them by value
func (smp *Sampler) SampleCounts(d Distribution, slots int) map[int]int {
	counts := make(map[int]int)
	for slot := 0; slot < slots; slot++ {
		counts[smp.Draw(d)] += 1
	}
	return counts
}
