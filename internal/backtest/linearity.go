package backtest

import "math"

// MinLinearityPoints is the shortest series the scorer accepts; shorter
// input yields the degenerate all-zero result.
const MinLinearityPoints = 10

// LinearityMetrics describes how closely an equity or value curve
// follows a straight upward line. LinearityScore is R² weighted by the
// positive part of the Pearson correlation, so it lives in [0, 1] and
// is zero for downward-trending curves.
type LinearityMetrics struct {
	RSquared       float64
	Correlation    float64
	LinearityScore float64
	Slope          float64
	ResidualStd    float64 // stddev of residuals normalized by the mean value
}

// CalculateLinearity fits an ordinary-least-squares line of the values
// against their index and scores the fit. Series shorter than
// MinLinearityPoints return a degenerate result with infinite residual
// deviation.
func CalculateLinearity(values []float64) LinearityMetrics {
	n := len(values)
	if n < MinLinearityPoints {
		return LinearityMetrics{ResidualStd: math.Inf(1)}
	}

	fn := float64(n)
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}

	meanX := sumX / fn
	meanY := sumY / fn
	varX := sumXX/fn - meanX*meanX
	varY := sumYY/fn - meanY*meanY
	covXY := sumXY/fn - meanX*meanY

	slope := 0.0
	if varX > 0 {
		slope = covXY / varX
	}
	intercept := meanY - slope*meanX

	// R² of the fit and stddev of the residuals around it.
	var ssRes float64
	for i, y := range values {
		pred := intercept + slope*float64(i)
		ssRes += (y - pred) * (y - pred)
	}
	ssTot := varY * fn

	rSquared := 0.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}

	correlation := 0.0
	if varX > 0 && varY > 0 {
		correlation = covXY / math.Sqrt(varX*varY)
	}

	residualStd := math.Inf(1)
	if meanY != 0 {
		residualStd = math.Sqrt(ssRes/fn) / meanY
	}

	return LinearityMetrics{
		RSquared:       rSquared,
		Correlation:    correlation,
		LinearityScore: rSquared * math.Max(0, correlation),
		Slope:          slope,
		ResidualStd:    residualStd,
	}
}
