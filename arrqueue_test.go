package netana

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tabularOf(t *testing.T, pairs ...ProbPair) Distribution {
	t.Helper()
	d := CreateTabular()
	for _, pp := range pairs {
		require.NoError(t, d.SetProb(pp))
	}
	return d
}

func TestArrQueueExhaustsFiniteSupport(t *testing.T) {
	a := tabularOf(t, ProbPair{Prob: 0.5, Value: 1}, ProbPair{Prob: 0.2, Value: 2})
	b := tabularOf(t, ProbPair{Prob: 0.6, Value: 3})
	g, err := CreateGeometric(1)
	require.NoError(t, err)

	q := CreateArrQueue([]Distribution{a, b, g, NoDistro()})
	require.NoError(t, q.SetCutoff(0))

	seen := make(map[string]bool)
	total := 0.0
	prev := 2.0
	for {
		arr, prob, err := q.Next()
		if err != nil {
			require.ErrorIs(t, err, ErrQueueExhausted)
			break
		}
		require.LessOrEqual(t, prob, prev)
		require.False(t, seen[arr.key()], "arrangement %v returned twice", arr)
		seen[arr.key()] = true
		total += prob
		prev = prob
	}
	// 3 values of a, 2 of b, 1 of g and 1 of NoMass
	require.Len(t, seen, 6)
	require.InDelta(t, 1.0, total, 1e-12)
	require.NoError(t, q.Err())

	_, _, err = q.Next()
	require.ErrorIs(t, err, ErrQueueExhausted)
}

func TestArrQueueOrderAndCutoff(t *testing.T) {
	p, err := CreatePoisson(2.5)
	require.NoError(t, err)
	r, err := CreatePoisson(0.7)
	require.NoError(t, err)

	q := CreateArrQueue([]Distribution{p, r})
	require.Equal(t, DefaultCutoff, q.Cutoff())
	require.Equal(t, 1, q.Size())

	first, prob, ok := q.FindNext()
	require.True(t, ok)
	require.Equal(t, Arrangement{0, 0}, first)
	require.Equal(t, q.MaxProb(), prob)
	require.ErrorContains(t, q.SetCutoff(0.5), "after the search started")

	n := 1
	prev := prob
	for {
		arr, prob, ok := q.FindNext()
		if !ok {
			break
		}
		require.LessOrEqual(t, prob, prev)
		require.False(t, q.Below(prob))
		vals, err := q.Values(arr)
		require.NoError(t, err)
		require.InDelta(t, p.Prob(vals[0])*r.Prob(vals[1]), prob, 1e-15)
		prev = prob
		n += 1
	}
	require.Greater(t, n, 5)
	require.NoError(t, q.Err())
}

func TestArrQueueEqualProbabilities(t *testing.T) {
	a := tabularOf(t, ProbPair{Prob: 0.5, Value: 1})
	q := CreateArrQueue([]Distribution{a, a})
	require.NoError(t, q.SetCutoff(0))

	want := []Arrangement{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	for _, w := range want {
		arr, prob, ok := q.FindNext()
		require.True(t, ok)
		require.Equal(t, w, arr)
		require.InDelta(t, 0.25, prob, 1e-15)
	}
	_, _, ok := q.FindNext()
	require.False(t, ok)
}

func TestArrQueueInvalid(t *testing.T) {
	q := CreateArrQueue([]Distribution{NoDistro()})
	require.ErrorIs(t, q.SetCutoff(1.5), ErrInvalidParameter)
	require.ErrorIs(t, q.SetCutoff(-0.1), ErrInvalidParameter)

	_, err := q.Prob(Arrangement{0, 0})
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = q.Values(Arrangement{1})
	require.ErrorIs(t, err, ErrOutOfRange)
}
