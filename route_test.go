package netana

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouteArrDropsWithoutSecondary(t *testing.T) {
	// the detour a-c-b costs 10, more than twice the direct link, so it is never used
	tp := buildTopology(t, []string{"a", "b", "c"}, []LinkDesc{
		{A: "a", B: "b", Distance: 1, Wavelengths: 1},
		{A: "a", B: "c", Distance: 5, Wavelengths: 4},
		{A: "c", B: "b", Distance: 5, Wavelengths: 4},
	})
	require.Equal(t, []int{1}, tp.Prefs(0, 1).Preferred())

	count, err := RouteArr(tp, 0, map[int]int{1: 1})
	require.NoError(t, err)
	require.Equal(t, EdgeCountMap{1: {{From: 0, To: 1}: 1}}, count)

	count, err = RouteArr(tp, 0, map[int]int{1: 3})
	require.NoError(t, err)
	require.Equal(t, EdgeCountMap{1: {{From: 0, To: 1}: 1}}, count)

	probs, err := ArrRouteProb(tp, 0, map[int]int{1: 3})
	require.NoError(t, err)
	require.InDelta(t, 1.0/3, probs[1][Edge{From: 0, To: 1}], 1e-15)
	require.InDelta(t, 1.0/3, probs[1].Sum(), 1e-15)
}

func TestRouteArrUsesPreferredClass(t *testing.T) {
	tp := buildTopology(t, []string{"a", "b", "c"}, []LinkDesc{
		{A: "a", B: "b", Distance: 2, Wavelengths: 1},
		{A: "a", B: "c", Distance: 1, Wavelengths: 1},
		{A: "c", B: "b", Distance: 2, Wavelengths: 1},
	})

	// packets for c go first: their front edge is shorter.  They take (a,c), and the
	// packets for b find only (a,b) free.
	count, err := RouteArr(tp, 0, map[int]int{1: 2, 2: 1})
	require.NoError(t, err)
	require.Equal(t, map[Edge]int{{From: 0, To: 2}: 1}, count[2])
	require.Equal(t, map[Edge]int{{From: 0, To: 1}: 1}, count[1])

	count, err = RouteArr(tp, 0, map[int]int{1: 3})
	require.NoError(t, err)
	require.Equal(t, map[Edge]int{{From: 0, To: 1}: 1, {From: 0, To: 2}: 1}, count[1])

	_, err = RouteArr(tp, 0, map[int]int{0: 1})
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = RouteArr(tp, 0, map[int]int{1: -1})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestRoutingOrder(t *testing.T) {
	tp := buildTopology(t, []string{"a", "b", "c", "d"}, []LinkDesc{
		{A: "a", B: "b", Distance: 2, Wavelengths: 1},
		{A: "a", B: "c", Distance: 1, Wavelengths: 1},
		{A: "c", B: "b", Distance: 2, Wavelengths: 1},
	})
	require.Equal(t, []int{2, 1, 3}, RoutingOrder(tp, 0, []int{3, 1, 2}))

	// unreachable destinations get no edge
	count, err := RouteArr(tp, 0, map[int]int{3: 2})
	require.NoError(t, err)
	require.Empty(t, count)
}

func TestRouteAna(t *testing.T) {
	tp := buildTopology(t, []string{"a", "b"}, []LinkDesc{
		{A: "a", B: "b", Distance: 1, Wavelengths: 1},
	})
	mu, err := CreatePoisson(0.5)
	require.NoError(t, err)

	probs, err := RouteAna(tp, 0, map[int]Distribution{1: mu}, 1e-6, DefaultRouteLimit)
	require.NoError(t, err)
	// E[min(N,1)] / E[N] for N ~ Poisson(0.5)
	want := (1 - math.Exp(-0.5)) / 0.5
	require.InDelta(t, want, probs[1][Edge{From: 0, To: 1}], 1e-4)

	// the first arrangement has no packets, so a limit of one yields nothing
	probs, err = RouteAna(tp, 0, map[int]Distribution{1: mu}, 1e-6, 1)
	require.NoError(t, err)
	require.Empty(t, probs)

	// without a limit the cutoff alone has to end the search
	_, err = RouteAna(tp, 0, map[int]Distribution{1: mu}, 0, 0)
	require.ErrorIs(t, err, ErrInvalidParameter)
	probs, err = RouteAna(tp, 0, map[int]Distribution{1: mu}, 1e-6, 0)
	require.NoError(t, err)
	require.InDelta(t, want, probs[1][Edge{From: 0, To: 1}], 1e-4)
	probs, err = RouteAna(tp, 0, map[int]Distribution{1: mu}, 0, 50)
	require.NoError(t, err)
	require.InDelta(t, want, probs[1][Edge{From: 0, To: 1}], 1e-4)
}

func TestRouteAnaAmpleCapacity(t *testing.T) {
	tp := buildTopology(t, []string{"a", "b", "c"}, []LinkDesc{
		{A: "a", B: "b", Distance: 1, Wavelengths: 50},
		{A: "a", B: "c", Distance: 1, Wavelengths: 50},
	})
	mb, err := CreatePoisson(1.2)
	require.NoError(t, err)
	mc, err := CreatePoisson(0.4)
	require.NoError(t, err)

	probs, err := RouteAna(tp, 0, map[int]Distribution{1: mb, 2: mc}, DefaultCutoff, DefaultRouteLimit)
	require.NoError(t, err)
	require.InDelta(t, 1.0, probs[1][Edge{From: 0, To: 1}], 1e-12)
	require.InDelta(t, 1.0, probs[2][Edge{From: 0, To: 2}], 1e-12)
	_, present := probs[1][Edge{From: 0, To: 2}]
	require.False(t, present)
}

func TestEdgeProbsMap(t *testing.T) {
	e1 := Edge{From: 0, To: 1}
	e2 := Edge{From: 0, To: 2}
	epm := EdgeProbsMap{1: {e1: 0.5}}
	epm.Accumulate(EdgeProbsMap{1: {e1: 0.25, e2: 0.25}, 2: {e2: 1}})
	epm.Scale(2)
	require.Equal(t, 1.5, epm[1][e1])
	require.Equal(t, 0.5, epm[1][e2])
	require.Equal(t, 2.0, epm[2][e2])
	require.Equal(t, 2.0, epm[1].Sum())
}
