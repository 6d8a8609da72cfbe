package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateLinearity_PerfectUpwardLine(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 5 + 2*float64(i)
	}

	m := CalculateLinearity(values)

	assert.InDelta(t, 1.0, m.RSquared, 1e-9)
	assert.InDelta(t, 1.0, m.Correlation, 1e-9)
	assert.InDelta(t, 1.0, m.LinearityScore, 1e-9)
	assert.InDelta(t, 2.0, m.Slope, 1e-9)
	assert.InDelta(t, 0.0, m.ResidualStd, 1e-9)
}

func TestCalculateLinearity_DownwardLineScoresZero(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 100 - 3*float64(i)
	}

	m := CalculateLinearity(values)

	// Perfect fit, but the negative correlation zeroes the score.
	assert.InDelta(t, 1.0, m.RSquared, 1e-9)
	assert.InDelta(t, -1.0, m.Correlation, 1e-9)
	assert.InDelta(t, 0.0, m.LinearityScore, 1e-9)
}

func TestCalculateLinearity_TooFewPoints(t *testing.T) {
	m := CalculateLinearity([]float64{1, 2, 3})

	assert.Zero(t, m.RSquared)
	assert.Zero(t, m.LinearityScore)
	assert.Zero(t, m.Slope)
	assert.True(t, math.IsInf(m.ResidualStd, 1))
}

func TestCalculateLinearity_ConstantSeries(t *testing.T) {
	values := make([]float64, 15)
	for i := range values {
		values[i] = 7.0
	}

	m := CalculateLinearity(values)

	assert.Zero(t, m.LinearityScore)
	assert.Zero(t, m.Slope)
}

func TestCalculateLinearity_NoisyLineBelowPerfect(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = float64(i)
		if i%2 == 0 {
			values[i] += 3
		}
	}

	m := CalculateLinearity(values)

	assert.Greater(t, m.LinearityScore, 0.5)
	assert.Less(t, m.LinearityScore, 1.0)
}
