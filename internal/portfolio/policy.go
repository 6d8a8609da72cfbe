package portfolio

import (
	"fmt"
	"math"
)

// AllocationPolicy computes portfolio weights from the trailing window
// of daily strategy returns. The caller supplies exactly the most
// recent lookback days (or less, early in the history); policies must
// not look further back or forward. Returned weights are non-negative
// and sum to 1, or to 0 when no strategy qualifies (full cash).
type AllocationPolicy interface {
	Name() string
	ComputeWeights(window [][]float64, lookback int) []float64
}

// Policy names accepted by NewPolicy.
const (
	PolicyMomentum           = "momentum"
	PolicySharpeMomentum     = "sharpe_momentum"
	PolicyTopNRanking        = "top_n_ranking"
	PolicyEqualExcludeLosing = "equal"
	PolicyRiskParity         = "risk_parity"
)

// DefaultTopN is how many strategies the top-N ranking policy holds.
const DefaultTopN = 5

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// NewPolicy returns the allocation policy registered under name.
func NewPolicy(name string) (AllocationPolicy, error) {
	switch name {
	case PolicyMomentum:
		return MomentumPolicy{}, nil
	case PolicySharpeMomentum:
		return SharpeMomentumPolicy{}, nil
	case PolicyTopNRanking:
		return TopNRankingPolicy{N: DefaultTopN}, nil
	case PolicyEqualExcludeLosing:
		return EqualExcludeLosingPolicy{}, nil
	case PolicyRiskParity:
		return RiskParityPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown allocation policy %q", name)
	}
}

// PolicyNames lists every registered policy, in sweep order.
func PolicyNames() []string {
	return []string{
		PolicyMomentum,
		PolicySharpeMomentum,
		PolicyTopNRanking,
		PolicyEqualExcludeLosing,
		PolicyRiskParity,
	}
}

// MomentumPolicy weights strategies by min-max normalized cumulative
// lookback return, excluding anything at or below zero.
type MomentumPolicy struct{}

func (MomentumPolicy) Name() string { return PolicyMomentum }

func (MomentumPolicy) ComputeWeights(window [][]float64, lookback int) []float64 {
	nAssets := assetCount(window)
	if len(window) < lookback {
		return equalWeights(nAssets)
	}

	scores := cumulativeReturns(window, nAssets)
	return normalizedPositiveWeights(scores, positiveMask(scores))
}

// SharpeMomentumPolicy applies the momentum exclusion and normalization
// but scores strategies by annualized Sharpe ratio of their lookback
// daily returns (risk-free rate 0) instead of raw cumulative return.
type SharpeMomentumPolicy struct{}

func (SharpeMomentumPolicy) Name() string { return PolicySharpeMomentum }

func (SharpeMomentumPolicy) ComputeWeights(window [][]float64, lookback int) []float64 {
	nAssets := assetCount(window)
	if len(window) < lookback {
		return equalWeights(nAssets)
	}

	scores := make([]float64, nAssets)
	for i := 0; i < nAssets; i++ {
		mean, std := meanStd(column(window, i))
		if std > 0 {
			scores[i] = (mean * tradingDaysPerYear) / (std * math.Sqrt(tradingDaysPerYear))
		}
	}
	return normalizedPositiveWeights(scores, positiveMask(scores))
}

// TopNRankingPolicy equal-weights the N best strategies by cumulative
// lookback return, considering only strictly positive performers.
type TopNRankingPolicy struct {
	N int
}

func (TopNRankingPolicy) Name() string { return PolicyTopNRanking }

func (p TopNRankingPolicy) ComputeWeights(window [][]float64, lookback int) []float64 {
	nAssets := assetCount(window)
	if len(window) < lookback {
		return equalWeights(nAssets)
	}

	n := p.N
	if n <= 0 {
		n = DefaultTopN
	}

	scores := cumulativeReturns(window, nAssets)
	mask := positiveMask(scores)
	if !anyTrue(mask) {
		return make([]float64, nAssets)
	}

	// Rank descending by cumulative return and keep the positive top N.
	order := argsortDescending(scores)
	var top []int
	for _, idx := range order {
		if mask[idx] && len(top) < n {
			top = append(top, idx)
		}
	}

	weights := make([]float64, nAssets)
	if len(top) == 0 {
		return weights
	}
	w := 1.0 / float64(len(top))
	for _, idx := range top {
		weights[idx] = w
	}
	return weights
}

// EqualExcludeLosingPolicy equal-weights every strategy whose
// cumulative lookback return is positive.
type EqualExcludeLosingPolicy struct{}

func (EqualExcludeLosingPolicy) Name() string { return PolicyEqualExcludeLosing }

func (EqualExcludeLosingPolicy) ComputeWeights(window [][]float64, lookback int) []float64 {
	nAssets := assetCount(window)
	if len(window) < lookback {
		return equalWeights(nAssets)
	}

	scores := cumulativeReturns(window, nAssets)
	mask := positiveMask(scores)

	nProfitable := 0
	for _, ok := range mask {
		if ok {
			nProfitable++
		}
	}

	weights := make([]float64, nAssets)
	if nProfitable == 0 {
		return weights
	}
	for i, ok := range mask {
		if ok {
			weights[i] = 1.0 / float64(nProfitable)
		}
	}
	return weights
}

// RiskParityPolicy weights profitable strategies inversely to their
// lookback return volatility. Zero-volatility or losing strategies are
// excluded.
type RiskParityPolicy struct{}

func (RiskParityPolicy) Name() string { return PolicyRiskParity }

func (RiskParityPolicy) ComputeWeights(window [][]float64, lookback int) []float64 {
	nAssets := assetCount(window)
	if len(window) < lookback {
		return equalWeights(nAssets)
	}

	scores := cumulativeReturns(window, nAssets)
	mask := positiveMask(scores)
	if !anyTrue(mask) {
		return make([]float64, nAssets)
	}

	invVol := make([]float64, nAssets)
	var total float64
	for i := 0; i < nAssets; i++ {
		if !mask[i] {
			continue
		}
		_, std := meanStd(column(window, i))
		if std > 0 {
			invVol[i] = 1.0 / std
			total += invVol[i]
		}
	}

	weights := make([]float64, nAssets)
	if total <= 0 {
		return weights
	}
	for i := range weights {
		weights[i] = invVol[i] / total
	}
	return weights
}

// normalizeScores min-max normalizes scores to [0, 1]. All-equal input
// collapses to equal weights.
func normalizeScores(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}
	minV, maxV := scores[0], scores[0]
	for _, v := range scores[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	out := make([]float64, len(scores))
	if maxV == minV {
		for i := range out {
			out[i] = 1.0 / float64(len(scores))
		}
		return out
	}
	for i, v := range scores {
		out[i] = (v - minV) / (maxV - minV)
	}
	return out
}

// normalizedPositiveWeights zeroes excluded strategies, min-max
// normalizes the remainder (the zeroed entries still participate in
// the min-max range) and rescales to sum 1. All strategies excluded
// yields the all-zero vector.
func normalizedPositiveWeights(scores []float64, mask []bool) []float64 {
	n := len(scores)
	if !anyTrue(mask) {
		return make([]float64, n)
	}

	filtered := make([]float64, n)
	for i, v := range scores {
		if mask[i] {
			filtered[i] = v
		}
	}

	weights := normalizeScores(filtered)
	for i := range weights {
		if !mask[i] {
			weights[i] = 0
		}
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	if total > 0 {
		for i := range weights {
			weights[i] /= total
		}
	}
	return weights
}

func equalWeights(n int) []float64 {
	weights := make([]float64, n)
	if n == 0 {
		return weights
	}
	w := 1.0 / float64(n)
	for i := range weights {
		weights[i] = w
	}
	return weights
}

func assetCount(window [][]float64) int {
	if len(window) == 0 {
		return 0
	}
	return len(window[0])
}

func column(window [][]float64, i int) []float64 {
	out := make([]float64, len(window))
	for d, row := range window {
		out[d] = row[i]
	}
	return out
}

// cumulativeReturns compounds each strategy's daily returns over the
// window: prod(1 + r) - 1.
func cumulativeReturns(window [][]float64, nAssets int) []float64 {
	out := make([]float64, nAssets)
	for i := 0; i < nAssets; i++ {
		cum := 1.0
		for _, row := range window {
			cum *= 1 + row[i]
		}
		out[i] = cum - 1
	}
	return out
}

func positiveMask(scores []float64) []bool {
	mask := make([]bool, len(scores))
	for i, v := range scores {
		mask[i] = v > 0
	}
	return mask
}

func anyTrue(mask []bool) bool {
	for _, ok := range mask {
		if ok {
			return true
		}
	}
	return false
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// argsortDescending returns the indices that sort scores descending,
// ties broken by original index for determinism.
func argsortDescending(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	// Insertion sort keeps this dependency-free and stable for the
	// small vectors involved.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && scores[order[j]] > scores[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}
