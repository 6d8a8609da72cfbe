package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constantWindow builds days of identical daily returns per strategy.
func constantWindow(days int, returns ...float64) [][]float64 {
	window := make([][]float64, days)
	for d := range window {
		row := make([]float64, len(returns))
		copy(row, returns)
		window[d] = row
	}
	return window
}

func assertWeightsSumTo(t *testing.T, weights []float64, want float64) {
	t.Helper()
	var sum float64
	for _, w := range weights {
		require.GreaterOrEqual(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, want, sum, 1e-9)
}

func TestNewPolicy_KnowsEveryRegisteredName(t *testing.T) {
	for _, name := range PolicyNames() {
		policy, err := NewPolicy(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, policy.Name())
	}

	_, err := NewPolicy("martingale")
	assert.Error(t, err)
}

func TestPolicies_BootstrapEqualWeightsOnShortWindow(t *testing.T) {
	window := constantWindow(3, 0.01, -0.02, 0.005)

	for _, name := range PolicyNames() {
		policy, err := NewPolicy(name)
		require.NoError(t, err)

		weights := policy.ComputeWeights(window, 10)

		require.Len(t, weights, 3, name)
		for _, w := range weights {
			assert.InDelta(t, 1.0/3.0, w, 1e-9, name)
		}
	}
}

func TestMomentumPolicy_ExcludesLosersAndNormalizes(t *testing.T) {
	// Strategy cumulative returns: positive, negative, strongly positive.
	window := constantWindow(10, 0.01, -0.01, 0.02)

	weights := MomentumPolicy{}.ComputeWeights(window, 10)

	require.Len(t, weights, 3)
	assert.Zero(t, weights[1])
	assert.Greater(t, weights[2], weights[0])
	assertWeightsSumTo(t, weights, 1.0)
}

func TestMomentumPolicy_AllLosersGoesToCash(t *testing.T) {
	window := constantWindow(10, -0.01, -0.02)

	weights := MomentumPolicy{}.ComputeWeights(window, 10)

	assertWeightsSumTo(t, weights, 0.0)
}

func TestMomentumPolicy_MinMaxRangeIncludesZeroedLosers(t *testing.T) {
	// The min-max range spans the zeroed loser, so the weaker winner
	// keeps a nonzero min-max score and both winners get weight.
	window := constantWindow(10, 0.01, -0.01, 0.02)

	weights := MomentumPolicy{}.ComputeWeights(window, 10)

	assert.Greater(t, weights[0], 0.0)
}

func TestSharpeMomentumPolicy_PrefersSteadierReturns(t *testing.T) {
	// Both strategies average +0.5% per day, but the second alternates
	// wildly, so its Sharpe ratio is lower.
	window := make([][]float64, 10)
	for d := range window {
		first, second := 0.006, 0.05
		if d%2 == 1 {
			first, second = 0.004, -0.04
		}
		window[d] = []float64{first, second}
	}

	weights := SharpeMomentumPolicy{}.ComputeWeights(window, 10)

	require.Len(t, weights, 2)
	assert.Greater(t, weights[0], weights[1])
	assertWeightsSumTo(t, weights, 1.0)
}

func TestTopNRankingPolicy_EqualWeightsTheBestN(t *testing.T) {
	window := constantWindow(10, 0.01, 0.03, -0.01, 0.02)

	weights := TopNRankingPolicy{N: 2}.ComputeWeights(window, 10)

	require.Len(t, weights, 4)
	assert.InDelta(t, 0.5, weights[1], 1e-9)
	assert.InDelta(t, 0.5, weights[3], 1e-9)
	assert.Zero(t, weights[0])
	assert.Zero(t, weights[2])
}

func TestTopNRankingPolicy_HoldsFewerWhenWinnersAreScarce(t *testing.T) {
	window := constantWindow(10, 0.01, -0.02, -0.03)

	weights := TopNRankingPolicy{N: 5}.ComputeWeights(window, 10)

	assert.InDelta(t, 1.0, weights[0], 1e-9)
	assertWeightsSumTo(t, weights, 1.0)
}

func TestEqualExcludeLosingPolicy_SplitsAcrossWinners(t *testing.T) {
	window := constantWindow(10, 0.01, -0.01, 0.02, 0.005)

	weights := EqualExcludeLosingPolicy{}.ComputeWeights(window, 10)

	require.Len(t, weights, 4)
	assert.InDelta(t, 1.0/3.0, weights[0], 1e-9)
	assert.Zero(t, weights[1])
	assert.InDelta(t, 1.0/3.0, weights[2], 1e-9)
	assert.InDelta(t, 1.0/3.0, weights[3], 1e-9)
}

func TestRiskParityPolicy_WeightsInverselyToVolatility(t *testing.T) {
	// Same positive cumulative return, different volatility: the calmer
	// strategy earns the larger weight.
	window := make([][]float64, 10)
	for d := range window {
		calm, noisy := 0.006, 0.03
		if d%2 == 1 {
			calm, noisy = 0.004, -0.018
		}
		window[d] = []float64{calm, noisy}
	}

	weights := RiskParityPolicy{}.ComputeWeights(window, 10)

	require.Len(t, weights, 2)
	assert.Greater(t, weights[0], weights[1])
	assert.Greater(t, weights[1], 0.0)
	assertWeightsSumTo(t, weights, 1.0)
}

func TestRiskParityPolicy_ExcludesZeroVolatilityStrategies(t *testing.T) {
	// Constant returns have zero volatility and cannot be inverse-vol
	// weighted; the variable winner takes the full allocation.
	window := make([][]float64, 10)
	for d := range window {
		variable := 0.02
		if d%2 == 1 {
			variable = 0.01
		}
		window[d] = []float64{0.01, variable}
	}

	weights := RiskParityPolicy{}.ComputeWeights(window, 10)

	assert.Zero(t, weights[0])
	assert.InDelta(t, 1.0, weights[1], 1e-9)
}
