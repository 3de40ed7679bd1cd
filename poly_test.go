package netana

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolyCoefficients(t *testing.T) {
	p := CreatePoly[int](4)
	require.True(t, p.Empty())
	require.Equal(t, "0", p.String())

	require.NoError(t, p.SetCoef(0, 2))
	require.NoError(t, p.SetCoef(3, 5))
	require.NoError(t, p.SetCoef(4, 7))
	require.NoError(t, p.SetCoef(-1, 7))
	require.Equal(t, []int{0, 3}, p.Exponents())
	require.Equal(t, "5*x^3 + 2", p.String())

	c, present := p.Coef(3)
	require.True(t, present)
	require.Equal(t, 5, c)
	_, present = p.Coef(1)
	require.False(t, present)

	var unset Poly[int]
	require.ErrorIs(t, unset.SetCoef(0, 1), ErrBoundUnset)
}

func TestPolyClone(t *testing.T) {
	p := MonoPoly(5, 1.5, 2)
	shared := p
	cp := p.Clone()
	require.NoError(t, shared.SetCoef(1, 0.5))
	require.Equal(t, 2, p.Len())
	require.Equal(t, 1, cp.Len())
}

func TestPolyBounds(t *testing.T) {
	p := ConstPoly(3, 1)
	q := ConstPoly(4, 1)
	_, err := AddNumPolys(p, q)
	require.ErrorIs(t, err, ErrBoundMismatch)
	_, err = MulNumPolys(p, q)
	require.ErrorIs(t, err, ErrBoundMismatch)
	_, err = AddNumPolys(p, Poly[int]{})
	require.ErrorIs(t, err, ErrBoundUnset)
}

func TestPolyArithmetic(t *testing.T) {
	p := CreatePoly[int](10)
	require.NoError(t, p.SetCoef(0, 1))
	require.NoError(t, p.SetCoef(1, 2))
	q := CreatePoly[int](10)
	require.NoError(t, q.SetCoef(1, 3))
	require.NoError(t, q.SetCoef(2, 1))

	sum, err := AddNumPolys(p, q)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, sum.Exponents())
	c, _ := sum.Coef(1)
	require.Equal(t, 5, c)
	require.Equal(t, 7, SumNum(sum))

	// operands are left alone
	c, _ = p.Coef(1)
	require.Equal(t, 2, c)

	// (1 + 2x)(3x + x^2) = 3x + 7x^2 + 2x^3
	prod, err := MulNumPolys(p, q)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, prod.Exponents())
	for e, want := range map[int]int{1: 3, 2: 7, 3: 2} {
		c, _ := prod.Coef(e)
		require.Equal(t, want, c, "exponent %d", e)
	}
}

func TestPolyTruncation(t *testing.T) {
	const bound = 5
	p := CreatePoly[float64](bound)
	q := CreatePoly[float64](bound)
	for e := 0; e < bound; e++ {
		require.NoError(t, p.SetCoef(e, 1))
		require.NoError(t, q.SetCoef(e, 1))
	}

	prod, err := MulNumPolys(p, q)
	require.NoError(t, err)
	for _, e := range prod.Exponents() {
		require.Less(t, e, bound)
		c, _ := prod.Coef(e)
		require.Equal(t, float64(e+1), c)
	}
	require.Equal(t, bound, prod.Len())
}

func TestDistPolyOperations(t *testing.T) {
	const bound = 6
	p2, err := CreatePoisson(2)
	require.NoError(t, err)
	p1, err := CreatePoisson(1)
	require.NoError(t, err)

	a := MonoPoly(bound, p2, 1)
	b := MonoPoly(bound, p1, 1)
	require.NoError(t, b.SetCoef(3, p1))

	sum, err := AddDistPolys(a, b)
	require.NoError(t, err)
	d, present := sum.Coef(1)
	require.True(t, present)
	require.InDelta(t, 3.0, d.Lambda(), 1e-12)
	require.InDelta(t, 4.0, MeanOf(sum), 1e-12)

	total, err := SumDist(sum)
	require.NoError(t, err)
	require.InDelta(t, 4.0, total.Lambda(), 1e-12)

	// moving half of the packets a distance of 3 drops those that pass the bound
	move := MonoPoly(bound, 0.5, 3)
	moved, err := MulFloatDist(move, sum)
	require.NoError(t, err)
	require.Equal(t, []int{4}, moved.Exponents())
	d, _ = moved.Coef(4)
	require.InDelta(t, 1.5, d.Lambda(), 1e-12)

	m := make(map[int]DistPoly)
	require.NoError(t, AddDistInto(m, 7, a))
	require.NoError(t, AddDistInto(m, 7, a))
	d, _ = m[7].Coef(1)
	require.InDelta(t, 4.0, d.Lambda(), 1e-12)
	d, _ = a.Coef(1)
	require.InDelta(t, 2.0, d.Lambda(), 1e-12)
}

func TestDistPolyUnsupported(t *testing.T) {
	g, err := CreateGeometric(0.5)
	require.NoError(t, err)
	p, err := CreatePoisson(1)
	require.NoError(t, err)

	a := ConstPoly(4, g)
	b := ConstPoly(4, p)
	_, err = AddDistPolys(a, b)
	require.ErrorIs(t, err, ErrUnsupportedCombination)

	_, err = MulFloatDist(ConstPoly(4, 0.5), a)
	require.ErrorIs(t, err, ErrUnsupportedScale)

	require.InDelta(t, 2.0, MeanOf(a), 1e-12)
}
