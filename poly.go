package netana

// poly.go implements polynomials truncated at a bound S: no term with exponent S or
// higher is ever stored, and products simply discard such terms.  With Distribution
// coefficients a polynomial describes packet counts broken down by distance
// travelled, so truncation is what removes packets that have gone too far.

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

var (
	// ErrBoundUnset is returned when a polynomial is used without a degree bound
	ErrBoundUnset = errors.New("polynomial degree bound not set")

	// ErrBoundMismatch is returned when polynomials with different bounds are combined
	ErrBoundMismatch = errors.New("polynomial degree bounds differ")
)

// Poly is a sparse polynomial whose exponents lie in [0, bound).
// The zero value has no bound and refuses arithmetic.  Poly has reference semantics
// for its terms; use Clone before mutating a shared polynomial.
type Poly[T any] struct {
	bound int
	terms map[int]T
}

// DistPoly is the distance polynomial: coefficient e is the distribution of the
// number of packets that have travelled distance e
type DistPoly = Poly[Distribution]

// FloatPoly carries probabilities, e.g. the entries of a transition matrix
type FloatPoly = Poly[float64]

// CountPoly counts packets by distance
type CountPoly = Poly[int]

// Number is the set of coefficient types with native arithmetic
type Number interface {
	constraints.Integer | constraints.Float
}

// CreatePoly is a constructor for the empty polynomial with the given bound
func CreatePoly[T any](bound int) Poly[T] {
	return Poly[T]{bound: bound, terms: make(map[int]T)}
}

// MonoPoly returns the polynomial c*x^exp, which is empty if exp is out of bounds
func MonoPoly[T any](bound int, c T, exp int) Poly[T] {
	p := CreatePoly[T](bound)
	p.SetCoef(exp, c)
	return p
}

// ConstPoly returns the polynomial whose only term is c at exponent 0
func ConstPoly[T any](bound int, c T) Poly[T] {
	return MonoPoly(bound, c, 0)
}

// Bound returns S, one more than the largest exponent the polynomial can hold
func (p Poly[T]) Bound() int {
	return p.bound
}

// Coef returns the coefficient at exponent e, and false if there is no such term
func (p Poly[T]) Coef(e int) (T, bool) {
	c, present := p.terms[e]
	return c, present
}

// SetCoef stores c at exponent e.  Exponents outside [0, bound) are dropped without
// complaint; only a missing bound is an error.
func (p *Poly[T]) SetCoef(e int, c T) error {
	if p.bound <= 0 {
		return ErrBoundUnset
	}
	if e < 0 || e >= p.bound {
		return nil
	}
	if p.terms == nil {
		p.terms = make(map[int]T)
	}
	p.terms[e] = c
	return nil
}

// Exponents lists the stored exponents in ascending order
func (p Poly[T]) Exponents() []int {
	exps := make([]int, 0, len(p.terms))
	for e := range p.terms {
		exps = append(exps, e)
	}
	slices.Sort(exps)
	return exps
}

// Len is the number of stored terms
func (p Poly[T]) Len() int {
	return len(p.terms)
}

// Empty is true when no term is stored
func (p Poly[T]) Empty() bool {
	return len(p.terms) == 0
}

// Clone returns a polynomial with its own copy of the terms
func (p Poly[T]) Clone() Poly[T] {
	cp := Poly[T]{bound: p.bound, terms: make(map[int]T, len(p.terms))}
	for e, c := range p.terms {
		cp.terms[e] = c
	}
	return cp
}

func (p Poly[T]) String() string {
	if p.Empty() {
		return "0"
	}
	exps := p.Exponents()
	strs := make([]string, 0, len(exps))
	for idx := len(exps) - 1; idx > -1; idx-- {
		e := exps[idx]
		if e == 0 {
			strs = append(strs, fmt.Sprintf("%v", p.terms[e]))
		} else {
			strs = append(strs, fmt.Sprintf("%v*x^%d", p.terms[e], e))
		}
	}
	return strings.Join(strs, " + ")
}

func checkBounds(p, q int) error {
	if p <= 0 || q <= 0 {
		return ErrBoundUnset
	}
	if p != q {
		return fmt.Errorf("%d and %d: %w", p, q, ErrBoundMismatch)
	}
	return nil
}

// AddFrom adds q into p term by term, using add to sum coefficients at a shared exponent
func (p *Poly[T]) AddFrom(q Poly[T], add func(T, T) (T, error)) error {
	if err := checkBounds(p.bound, q.bound); err != nil {
		return err
	}
	if p.terms == nil {
		p.terms = make(map[int]T)
	}
	for _, e := range q.Exponents() {
		c := q.terms[e]
		old, present := p.terms[e]
		if present {
			var err error
			c, err = add(old, c)
			if err != nil {
				return fmt.Errorf("exponent %d: %w", e, err)
			}
		}
		p.terms[e] = c
	}
	return nil
}

// AddPolys returns p + q
func AddPolys[T any](p, q Poly[T], add func(T, T) (T, error)) (Poly[T], error) {
	sum := p.Clone()
	if err := sum.AddFrom(q, add); err != nil {
		return Poly[T]{}, err
	}
	return sum, nil
}

// MulPolys returns p * q truncated at the common bound: the coefficient at e < S is
// Σ_{i+j=e} mul(p[i], q[j]), accumulated with add.
func MulPolys[A, B any](p Poly[A], q Poly[B], mul func(A, B) (B, error), add func(B, B) (B, error)) (Poly[B], error) {
	if err := checkBounds(p.bound, q.bound); err != nil {
		return Poly[B]{}, err
	}
	prod := CreatePoly[B](q.bound)
	for _, i := range p.Exponents() {
		for _, j := range q.Exponents() {
			e := i + j
			if e >= prod.bound {
				// q's exponents ascend, so the rest are out of bounds too
				break
			}
			c, err := mul(p.terms[i], q.terms[j])
			if err != nil {
				return Poly[B]{}, fmt.Errorf("exponents %d and %d: %w", i, j, err)
			}
			old, present := prod.terms[e]
			if present {
				c, err = add(old, c)
				if err != nil {
					return Poly[B]{}, fmt.Errorf("exponent %d: %w", e, err)
				}
			}
			prod.terms[e] = c
		}
	}
	return prod, nil
}

func addNum[N Number](a, b N) (N, error) {
	return a + b, nil
}

func mulNum[N Number](a, b N) (N, error) {
	return a * b, nil
}

// AddNumPolys adds polynomials with numeric coefficients
func AddNumPolys[N Number](p, q Poly[N]) (Poly[N], error) {
	return AddPolys(p, q, addNum[N])
}

// MulNumPolys multiplies polynomials with numeric coefficients
func MulNumPolys[N Number](p, q Poly[N]) (Poly[N], error) {
	return MulPolys(p, q, mulNum[N], addNum[N])
}

// SumNum adds up all coefficients
func SumNum[N Number](p Poly[N]) N {
	var sum N
	for _, c := range p.terms {
		sum += c
	}
	return sum
}

func combineDist(a, b Distribution) (Distribution, error) {
	return a.Combine(b)
}

func scaleDist(prob float64, d Distribution) (Distribution, error) {
	return d.Scale(prob)
}

// AddDistPolys adds distance polynomials, combining distributions at shared exponents
func AddDistPolys(p, q DistPoly) (DistPoly, error) {
	return AddPolys(p, q, combineDist)
}

// AddDistInto adds q into the polynomial held at key k of m, creating the entry if needed
func AddDistInto[K comparable](m map[K]DistPoly, k K, q DistPoly) error {
	p, present := m[k]
	if !present {
		m[k] = q.Clone()
		return nil
	}
	if err := p.AddFrom(q, combineDist); err != nil {
		return err
	}
	m[k] = p
	return nil
}

// MulFloatDist multiplies a probability polynomial by a distance polynomial.  The
// product of a probability and a distribution is the thinned distribution.
func MulFloatDist(p FloatPoly, q DistPoly) (DistPoly, error) {
	return MulPolys(p, q, scaleDist, combineDist)
}

// SumDist collapses a distance polynomial into the distribution of the total count,
// combining coefficients in exponent order
func SumDist(p DistPoly) (Distribution, error) {
	sum := NoDistro()
	for _, e := range p.Exponents() {
		var err error
		sum, err = sum.Combine(p.terms[e])
		if err != nil {
			return Distribution{}, fmt.Errorf("exponent %d: %w", e, err)
		}
	}
	return sum, nil
}

// MeanOf returns the mean of the total count described by p.  By linearity it is
// the sum of the coefficient means, defined even when SumDist is not.
func MeanOf(p DistPoly) float64 {
	mean := 0.0
	for _, c := range p.terms {
		mean += c.Mean()
	}
	return mean
}
