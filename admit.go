package netana

// admit.go estimates how much new traffic a node admits.  Packets in transit take
// output slots first; the demands originating at the node compete for what is left.
// The demands are aggregated into one Poisson count for the search, since only the
// pair (transit count, demand count) decides how many slots are free, and the
// resulting admission ratio applies to every demand alike.

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

// ErrZeroRate is returned when a rate that must be positive is zero or negative
var ErrZeroRate = errors.New("rate must be positive")

// Admission is the outcome of the admission analysis at one node
type Admission struct {
	// Rho is the fraction of offered packets that are admitted
	Rho float64

	// Offered and Admitted are the expected packet counts per slot
	Offered  float64
	Admitted float64

	// Rates maps each destination to its admitted rate
	Rates map[int]float64

	// Arrangements counts the joint outcomes enumerated
	Arrangements int
}

func sumRates(rates map[int]float64) float64 {
	keys := sortedKeys(rates)
	sum := 0.0
	for _, k := range keys {
		sum += rates[k]
	}
	return sum
}

// sortedKeys returns the keys of an int-keyed map in ascending order
func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Admit runs the admission analysis.  transit is the distribution of packets in transit
// at the node, capacity the number of output slots, betas the demand rate per
// destination.  cutoff is the relative probability at which the search stops; it
// must be positive since the demand count is unbounded.
func Admit(transit Distribution, capacity int, betas map[int]float64, cutoff float64) (*Admission, error) {
	if !(cutoff > 0) {
		return nil, fmt.Errorf("admission cutoff %v: %w", cutoff, ErrInvalidParameter)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("capacity %d: %w", capacity, ErrInvalidParameter)
	}
	for _, dest := range sortedKeys(betas) {
		if !(betas[dest] > 0) {
			return nil, fmt.Errorf("demand to %d: %w", dest, ErrZeroRate)
		}
	}

	demand, err := PoissonOrNone(sumRates(betas))
	if err != nil {
		return nil, err
	}

	distros := []Distribution{transit, demand}
	q := CreateArrQueue(distros)
	if err := q.SetCutoff(cutoff); err != nil {
		return nil, err
	}

	adm := &Admission{Rates: make(map[int]float64)}
	for {
		arr, prob, ok := q.FindNext()
		if !ok {
			break
		}
		vals, err := q.Values(arr)
		if err != nil {
			return nil, err
		}
		a, b := vals[0], vals[1]
		slots := max(capacity-a, 0)
		adm.Admitted += float64(min(slots, b)) * prob
		adm.Offered += float64(b) * prob
		adm.Arrangements += 1
	}
	if err := q.Err(); err != nil {
		return nil, err
	}

	if adm.Offered > 0 {
		adm.Rho = adm.Admitted / adm.Offered
	}
	for dest, rate := range betas {
		adm.Rates[dest] = rate * adm.Rho
	}
	return adm, nil
}

// AdmitAna returns the admitted rate per destination
func AdmitAna(transit Distribution, capacity int, betas map[int]float64, cutoff float64) (map[int]float64, error) {
	adm, err := Admit(transit, capacity, betas, cutoff)
	if err != nil {
		return nil, err
	}
	return adm.Rates, nil
}

// AdmitAnaDistro returns the Poisson distribution of admitted packets per destination.
// Destinations admitting nothing get NoMass.
func AdmitAnaDistro(transit Distribution, capacity int, betas map[int]float64, cutoff float64) (map[int]Distribution, error) {
	rates, err := AdmitAna(transit, capacity, betas, cutoff)
	if err != nil {
		return nil, err
	}
	distros := make(map[int]Distribution, len(rates))
	for dest, rate := range rates {
		d, err := PoissonOrNone(rate)
		if err != nil {
			return nil, err
		}
		distros[dest] = d
	}
	return distros, nil
}
