package netana

// distro.go holds the Distribution type, a probability mass function over the
// non-negative integers.  A Distribution is a tagged value: its Kind selects one of
// four representations (no mass, Poisson, geometric, tabular) and every operation
// dispatches on that tag.

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"
)

// Kind identifies the representation of a Distribution
type Kind int

const (
	NoMass Kind = iota
	Poisson
	Geometric
	Tabular
)

var kindToStr map[Kind]string = map[Kind]string{NoMass: "nomass", Poisson: "poisson",
	Geometric: "geometric", Tabular: "tabular"}

func (k Kind) String() string {
	str, present := kindToStr[k]
	if !present {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return str
}

// massTolerance is the slack allowed when checking that explicit mass does not exceed 1
const massTolerance = 1e-9

// tabulateCutoff bounds the listing of unbounded distributions in Tabulate, relative to the mode
const tabulateCutoff = 1e-4

var (
	// ErrOutOfRange is returned when a rank beyond the support of a distribution is requested
	ErrOutOfRange = errors.New("rank beyond the support of the distribution")

	// ErrDuplicateValue is returned when a tabular distribution already holds the value inserted
	ErrDuplicateValue = errors.New("value already present in tabular distribution")

	// ErrMassExceeded is returned when explicit mass in a tabular distribution would exceed 1
	ErrMassExceeded = errors.New("explicit probability mass exceeds 1")

	// ErrUnsupportedCombination is returned when two representations have no summation rule
	ErrUnsupportedCombination = errors.New("unsupported combination of distributions")

	// ErrUnsupportedScale is returned when a representation cannot be thinned by a non-unit probability
	ErrUnsupportedScale = errors.New("unsupported scaling of distribution")

	// ErrInvalidParameter is returned when a constructor or operation gets an out-of-domain argument
	ErrInvalidParameter = errors.New("invalid distribution parameter")

	// ErrNotTabular is returned when a table operation is applied to a closed-form distribution
	ErrNotTabular = errors.New("operation requires a tabular distribution")
)

// ProbPair couples a value with its probability
type ProbPair struct {
	Prob  float64 `json:"prob" yaml:"prob"`
	Value int     `json:"value" yaml:"value"`
}

// pairBefore orders pairs by probability descending, ties by value ascending
func pairBefore(a, b ProbPair) bool {
	if a.Prob != b.Prob {
		return a.Prob > b.Prob
	}
	return a.Value < b.Value
}

// Distribution is a probability mass function over integers >= 0.
// The zero value is the point mass at 0 (NoMass).  Distributions are values;
// copying one yields an independent distribution.
type Distribution struct {
	kind   Kind
	lambda float64       // Poisson mean
	p      float64       // Geometric success probability
	ranks  *poissonRanks // lazily extended rank order of a Poisson distribution
	tab    *table        // Tabular representation, never mutated once shared
}

// NoDistro returns the point mass at value 0
func NoDistro() Distribution {
	return Distribution{kind: NoMass}
}

// CreatePoisson is a constructor for a Poisson distribution of mean lambda
func CreatePoisson(lambda float64) (Distribution, error) {
	if !(lambda > 0) || math.IsInf(lambda, 0) {
		return Distribution{}, fmt.Errorf("poisson mean %v: %w", lambda, ErrInvalidParameter)
	}
	return Distribution{kind: Poisson, lambda: lambda, ranks: createPoissonRanks(lambda)}, nil
}

// PoissonOrNone returns Poisson(rate), or NoMass if rate is zero
func PoissonOrNone(rate float64) (Distribution, error) {
	if rate == 0 {
		return NoDistro(), nil
	}
	return CreatePoisson(rate)
}

// CreateGeometric is a constructor for the geometric distribution on 1,2,... with
// success probability p
func CreateGeometric(p float64) (Distribution, error) {
	if !(p > 0) || p > 1 {
		return Distribution{}, fmt.Errorf("geometric probability %v: %w", p, ErrInvalidParameter)
	}
	return Distribution{kind: Geometric, p: p}, nil
}

// CreateTabular returns an empty tabular distribution, all of whose mass is at 0
func CreateTabular() Distribution {
	return Distribution{kind: Tabular, tab: emptyTable()}
}

// Kind reports the representation
func (d Distribution) Kind() Kind {
	return d.kind
}

// IsNoMass is true for the point mass at 0
func (d Distribution) IsNoMass() bool {
	return d.kind == NoMass
}

// Lambda returns the Poisson mean, and 0 for other kinds
func (d Distribution) Lambda() float64 {
	if d.kind != Poisson {
		return 0
	}
	return d.lambda
}

// Mean returns the expected value
func (d Distribution) Mean() float64 {
	switch d.kind {
	case Poisson:
		return d.lambda
	case Geometric:
		return 1.0 / d.p
	case Tabular:
		return d.tab.mean()
	}
	return 0
}

// ExistsKth is true if the distribution has a k-th most probable value (k counts from 0)
func (d Distribution) ExistsKth(k int) bool {
	if k < 0 {
		return false
	}
	switch d.kind {
	case NoMass:
		return k == 0
	case Poisson:
		return true
	case Geometric:
		// p == 1 puts all of the mass on value 1
		return d.p < 1 || k == 0
	case Tabular:
		return k < len(d.tab.ranked)
	}
	return false
}

// Kth returns the k-th most probable (probability, value) pair. Pairs are ordered
// by probability descending, ties by value ascending.
func (d Distribution) Kth(k int) (ProbPair, error) {
	if !d.ExistsKth(k) {
		return ProbPair{}, fmt.Errorf("rank %d of %s: %w", k, d.kind, ErrOutOfRange)
	}
	switch d.kind {
	case Poisson:
		return d.ranks.kth(k), nil
	case Geometric:
		// the geometric pmf decreases strictly in the value
		return ProbPair{Prob: d.Prob(k + 1), Value: k + 1}, nil
	case Tabular:
		return d.tab.ranked[k], nil
	}
	return ProbPair{Prob: 1, Value: 0}, nil
}

// Prob returns the probability of value v
func (d Distribution) Prob(v int) float64 {
	if v < 0 {
		return 0
	}
	switch d.kind {
	case NoMass:
		if v == 0 {
			return 1
		}
		return 0
	case Poisson:
		return poissonPMF(v, d.lambda)
	case Geometric:
		if v < 1 {
			return 0
		}
		return d.p * math.Pow(1-d.p, float64(v-1))
	case Tabular:
		return d.tab.prob(v)
	}
	return 0
}

// Combine returns the distribution of the sum of independent variables drawn from d and o.
// Poisson plus Poisson is Poisson with the summed mean, tabular plus tabular is the
// convolution, and NoMass is the identity.  Every other pairing is refused with
// ErrUnsupportedCombination.
func (d Distribution) Combine(o Distribution) (Distribution, error) {
	switch {
	case d.kind == NoMass:
		return o, nil
	case o.kind == NoMass:
		return d, nil
	case d.kind == Poisson && o.kind == Poisson:
		return CreatePoisson(d.lambda + o.lambda)
	case d.kind == Tabular && o.kind == Tabular:
		tab, err := d.tab.convolve(o.tab)
		if err != nil {
			return Distribution{}, err
		}
		return Distribution{kind: Tabular, tab: tab}, nil
	}
	return Distribution{}, fmt.Errorf("%s + %s: %w", d.kind, o.kind, ErrUnsupportedCombination)
}

// Scale returns the distribution of the count that survives independent Bernoulli(p) thinning.
// A unit p leaves any distribution unchanged.  Poisson(λ) thins to Poisson(pλ), and to NoMass
// when p is zero.  Other kinds have no thinning rule and report ErrUnsupportedScale.
func (d Distribution) Scale(p float64) (Distribution, error) {
	if !(p >= 0) || p > 1+massTolerance {
		return Distribution{}, fmt.Errorf("thinning probability %v: %w", p, ErrInvalidParameter)
	}
	if p >= 1 {
		return d, nil
	}
	if d.kind == Poisson {
		return PoissonOrNone(p * d.lambda)
	}
	return Distribution{}, fmt.Errorf("scale %s by %v: %w", d.kind, p, ErrUnsupportedScale)
}

// SetProb adds an explicit (probability, value) pair to a tabular distribution.
// The mass at value 0 is always the remainder 1 - Σ explicit, so value 0 cannot be set.
func (d *Distribution) SetProb(pp ProbPair) error {
	if d.kind != Tabular {
		return fmt.Errorf("set value %d on %s: %w", pp.Value, d.kind, ErrNotTabular)
	}
	tab, err := d.tab.insert(pp)
	if err != nil {
		return err
	}
	d.tab = tab
	return nil
}

// Equal compares kind and parameters
func (d Distribution) Equal(o Distribution) bool {
	if d.kind != o.kind {
		return false
	}
	switch d.kind {
	case Poisson:
		return d.lambda == o.lambda
	case Geometric:
		return d.p == o.p
	case Tabular:
		return slices.Equal(d.tab.ranked, o.tab.ranked)
	}
	return true
}

func (d Distribution) String() string {
	switch d.kind {
	case Poisson:
		return fmt.Sprintf("poisson(%g)", d.lambda)
	case Geometric:
		return fmt.Sprintf("geometric(%g)", d.p)
	case Tabular:
		return fmt.Sprintf("tabular(%g)", d.Mean())
	}
	return "nomass"
}

// Tabulate lists value/probability lines for values 0 up to the largest listed value.
// Unbounded supports stop once the probability falls to tabulateCutoff of the mode.
func (d Distribution) Tabulate() string {
	vals := make(map[int]float64)
	first, _ := d.Kth(0)
	vals[first.Value] = first.Prob
	vMax := first.Value
	for k := 1; d.ExistsKth(k); k++ {
		pr, _ := d.Kth(k)
		if d.kind != Tabular && !(pr.Prob/first.Prob > tabulateCutoff) {
			break
		}
		vals[pr.Value] = pr.Prob
		vMax = max(vMax, pr.Value)
	}

	var sb strings.Builder
	for v := 0; v <= vMax; v++ {
		fmt.Fprintf(&sb, "%d %g\n", v, vals[v])
	}
	return sb.String()
}
