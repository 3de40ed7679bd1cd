package netana

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleCountInversion(t *testing.T) {
	d := tabularOf(t, ProbPair{Prob: 0.5, Value: 2}, ProbPair{Prob: 0.2, Value: 7})
	// ranked: (0.5,2) (0.3,0) (0.2,7)
	require.Equal(t, 2, sampleCount(0.1, d))
	require.Equal(t, 0, sampleCount(0.6, d))
	require.Equal(t, 7, sampleCount(0.95, d))

	require.Equal(t, 0, sampleCount(0.7, NoDistro()))

	g, err := CreateGeometric(0.5)
	require.NoError(t, err)
	require.Equal(t, 1, sampleCount(0.25, g))
	require.Equal(t, 2, sampleCount(0.7, g))

	p, err := CreatePoisson(1)
	require.NoError(t, err)
	require.Equal(t, 0, sampleCount(0.2, p))
	require.Equal(t, 1, sampleCount(0.5, p))
}

func TestSamplerMatchesMean(t *testing.T) {
	smp := CreateSampler("mean")
	p, err := CreatePoisson(2.5)
	require.NoError(t, err)

	counts := smp.SampleCounts(p, 40000)
	emp, err := EmpiricalTabular(counts)
	require.NoError(t, err)
	require.Equal(t, Tabular, emp.Kind())
	require.InDelta(t, 2.5, emp.Mean(), 0.05)
	require.InDelta(t, p.Prob(2), emp.Prob(2), 0.02)
}

func TestEmpiricalTabular(t *testing.T) {
	d, err := EmpiricalTabular(map[int]int{0: 2, 1: 6, 4: 2})
	require.NoError(t, err)
	require.InDelta(t, 0.2, d.Prob(0), 1e-12)
	require.InDelta(t, 0.6, d.Prob(1), 1e-12)
	require.InDelta(t, 1.4, d.Mean(), 1e-12)

	empty, err := EmpiricalTabular(map[int]int{})
	require.NoError(t, err)
	require.Equal(t, 1.0, empty.Prob(0))

	_, err = EmpiricalTabular(map[int]int{-1: 3})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSamplerLargePoisson(t *testing.T) {
	p, err := CreatePoisson(800)
	require.NoError(t, err)

	require.InDelta(t, 800, sampleCount(0.5, p), 2)
	require.Less(t, sampleCount(1e-6, p), 800)
	require.Greater(t, sampleCount(1-1e-6, p), 800)

	smp := CreateSampler("large")
	total := 0
	const draws = 2000
	for i := 0; i < draws; i++ {
		total += smp.Draw(p)
	}
	require.InDelta(t, 800, float64(total)/draws, 5)
}
