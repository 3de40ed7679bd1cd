package netana

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func twoNodeTopology(t *testing.T) *Topology {
	return buildTopology(t, []string{"a", "b"}, []LinkDesc{
		{A: "a", B: "b", Distance: 1, Wavelengths: 5},
	})
}

func twoNodeConfig() AnalysisCfg {
	cfg := DefaultAnalysisCfg()
	cfg.HopLimit = 3
	cfg.DistLimit = 10
	cfg.Iters = 2
	return cfg
}

func TestSolveTwoNodes(t *testing.T) {
	tp := twoNodeTopology(t)
	tm := FPMatrix{}
	require.NoError(t, tm.Set(1, 0, 2))

	an, err := CreateAnalyzer(tp, twoNodeConfig(), quietLogger())
	require.NoError(t, err)
	passes := 0
	an.AddObserver(func(sol *Solution) { passes += 1 })

	sol, err := an.Solve(context.Background(), tm)
	require.NoError(t, err)
	require.Equal(t, 2, passes)
	require.Equal(t, 2, sol.Pass)

	admitted, present := sol.ATM.Get(1, 0)
	require.True(t, present)
	require.InDelta(t, 2.0, admitted, 0.05)
	require.Less(t, admitted, 2.0)
	require.InDelta(t, admitted/2, sol.Rho[0], 1e-12)

	pt, present := sol.Trajectory.Get(1, 0)
	require.True(t, present)
	e := Edge{From: 0, To: 1}
	require.Equal(t, []Edge{e}, sortedEdges(pt[1]))
	require.Empty(t, pt[2])
	require.Empty(t, pt[3])

	crossed, present := pt[1][e].Coef(1)
	require.True(t, present)
	require.Equal(t, Poisson, crossed.Kind())
	require.LessOrEqual(t, crossed.Lambda(), admitted)
	require.InDelta(t, admitted, crossed.Lambda(), 0.05)

	pp, present := sol.Presence.Get(1, 0)
	require.True(t, present)
	require.Len(t, pp, 4)
	require.Contains(t, pp[0], 0)
	require.Contains(t, pp[1], 1)

	require.Equal(t, 2*3, an.Steps())
	require.Equal(t, 3, sol.Steps)
}

func TestIterationEmptyWindow(t *testing.T) {
	tp := twoNodeTopology(t)
	tm := FPMatrix{}
	require.NoError(t, tm.Set(1, 0, 2))

	an, err := CreateAnalyzer(tp, twoNodeConfig(), quietLogger())
	require.NoError(t, err)

	first, err := an.Iteration(context.Background(), 1, tm, nil)
	require.NoError(t, err)
	second, err := an.Iteration(context.Background(), 2, tm, []TrajectoryMatrix{{}})
	require.NoError(t, err)
	require.Equal(t, first.ATM, second.ATM)
	require.Equal(t, first.OTM, second.OTM)
}

func TestSolveRejectsTraffic(t *testing.T) {
	tp := twoNodeTopology(t)
	an, err := CreateAnalyzer(tp, twoNodeConfig(), quietLogger())
	require.NoError(t, err)

	tm := FPMatrix{}
	require.NoError(t, tm.Set(5, 0, 1))
	_, err = an.Solve(context.Background(), tm)
	require.ErrorIs(t, err, ErrTopology)

	tm = FPMatrix{0: {0: 1}}
	_, err = an.Solve(context.Background(), tm)
	require.ErrorIs(t, err, ErrInvalidParameter)

	tm = FPMatrix{1: {0: 0}}
	_, err = an.Solve(context.Background(), tm)
	require.ErrorIs(t, err, ErrZeroRate)
}

func TestSolveCancelled(t *testing.T) {
	tp := twoNodeTopology(t)
	tm := FPMatrix{}
	require.NoError(t, tm.Set(1, 0, 2))
	an, err := CreateAnalyzer(tp, twoNodeConfig(), quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sol, err := an.Solve(ctx, tm)
	require.Nil(t, sol)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCreateAnalyzerValidates(t *testing.T) {
	cfg := DefaultAnalysisCfg()
	cfg.HopLimit = 0
	_, err := CreateAnalyzer(twoNodeTopology(t), cfg, nil)
	require.ErrorIs(t, err, ErrConfig)

	an, err := CreateAnalyzer(twoNodeTopology(t), DefaultAnalysisCfg(), nil)
	require.NoError(t, err)
	require.Equal(t, DefaultAnalysisCfg(), an.Config())
}
