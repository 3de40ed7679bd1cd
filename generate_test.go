package netana

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// misroutedNet sends every packet waiting at node 0 to a neighbour it has no edge to
type misroutedNet struct {
	*Topology
}

func (mn misroutedNet) Prefs(j, dest int) Prefs {
	if j == 0 {
		return Prefs{Dest: dest, Class: 1, Neighbors: []int{7}}
	}
	return mn.Topology.Prefs(j, dest)
}

func chainTopology(t *testing.T) *Topology {
	return buildTopology(t, []string{"a", "b", "c"}, []LinkDesc{
		{A: "a", B: "b", Distance: 1, Wavelengths: 2},
		{A: "b", B: "c", Distance: 1, Wavelengths: 2},
	})
}

func TestGenerateITM(t *testing.T) {
	const bound = 5
	p1, err := CreatePoisson(1)
	require.NoError(t, err)
	p08, err := CreatePoisson(0.8)
	require.NoError(t, err)

	ptm := make(TrajectoryMatrix)
	ptm.Set(2, 0, 1, EdgePolys{{From: 0, To: 1}: MonoPoly(bound, p1, 1)})
	ptm.Set(2, 0, 2, EdgePolys{{From: 1, To: 2}: MonoPoly(bound, p08, 2)})

	itm, err := GenerateITM(ptm)
	require.NoError(t, err)
	require.Equal(t, 2, itm.Len())
	rate, _ := itm.Get(2, 1)
	require.InDelta(t, 1.0, rate, 1e-12)
	rate, _ = itm.Get(2, 2)
	require.InDelta(t, 0.8, rate, 1e-12)

	otm, err := GenerateOTM(itm, FPMatrix{2: {0: 1.5}})
	require.NoError(t, err)
	require.Equal(t, FPMatrix{2: {1: 1, 0: 1.5}}, otm)

	_, err = GenerateOTM(itm, FPMatrix{1: {1: 1}})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestGenerateATM(t *testing.T) {
	tp := chainTopology(t)
	tm := FPMatrix{2: {0: 1}}
	itm := FPMatrix{2: {0: 0.5}, 0: {0: 3}}

	atm, adms, err := GenerateATM(tp, tm, itm, DefaultCutoff)
	require.NoError(t, err)
	require.Len(t, adms, 1)
	adm := adms[0]
	require.Greater(t, adm.Rho, 0.0)
	require.Less(t, adm.Rho, 1.0)
	rate, present := atm.Get(2, 0)
	require.True(t, present)
	require.Equal(t, adm.Rates[2], rate)

	// the transit traffic is Poisson(0.5); traffic already at its destination does not count
	transit, err := CreatePoisson(0.5)
	require.NoError(t, err)
	want, err := Admit(transit, 2, map[int]float64{2: 1}, DefaultCutoff)
	require.NoError(t, err)
	require.Equal(t, want.Rho, adm.Rho)
}

func TestGenerateEPMCollectsNodeErrors(t *testing.T) {
	net := misroutedNet{chainTopology(t)}
	otm := FPMatrix{2: {0: 1, 1: 0.5}}

	epm, err := GenerateEPM(net, otm, DefaultCutoff, DefaultRouteLimit)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTopology)

	nes := NodeErrors(err)
	require.Len(t, nes, 1)
	require.Equal(t, 0, nes[0].Node)
	require.Equal(t, StageRouting, nes[0].Stage)

	_, present := epm.Get(2, 0)
	require.False(t, present)
	ep, present := epm.Get(2, 1)
	require.True(t, present)
	require.Greater(t, ep[Edge{From: 1, To: 2}], 0.9)
	require.LessOrEqual(t, ep.Sum(), 1.0)
}

func TestGenerateT(t *testing.T) {
	tp := chainTopology(t)
	epm := make(EdgeProbsMatrix)
	epm.Set(2, 1, EdgeProbs{{From: 1, To: 2}: 0.9})
	epm.Set(2, 0, EdgeProbs{{From: 0, To: 1}: 1})
	epm.Set(2, 2, EdgeProbs{{From: 2, To: 1}: 1})

	T := GenerateT(tp, 2, epm, 5)
	require.Len(t, T, 2)
	c, present := T[2][1].Coef(1)
	require.True(t, present)
	require.Equal(t, 0.9, c)
	_, present = T[1][0]
	require.True(t, present)
	_, present = T[1][2]
	require.False(t, present)

	require.Empty(t, GenerateT(tp, 0, epm, 5))
}

func TestMakeHop(t *testing.T) {
	const bound = 5
	p1, err := CreatePoisson(1)
	require.NoError(t, err)

	T := make(TransMatrix)
	T.Set(1, 0, MonoPoly(bound, 1.0, 2))
	T.Set(2, 1, MonoPoly(bound, 0.5, 3))

	v := NodePolys{0: ConstPoly(bound, p1)}
	nodes, links, err := MakeHop(v, T)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	d, present := nodes[1].Coef(2)
	require.True(t, present)
	require.True(t, d.Equal(p1))
	require.Contains(t, links, Edge{From: 0, To: 1})

	// the next hop would carry the packets to distance 5, past the bound
	nodes, links, err = MakeHop(nodes, T)
	require.NoError(t, err)
	require.Empty(t, nodes)
	require.Empty(t, links)

	g, err := CreateGeometric(0.5)
	require.NoError(t, err)
	T.Set(1, 0, MonoPoly(bound, 0.5, 1))
	_, _, err = MakeHop(NodePolys{0: ConstPoly(bound, g)}, T)
	require.ErrorIs(t, err, ErrUnsupportedScale)
}
