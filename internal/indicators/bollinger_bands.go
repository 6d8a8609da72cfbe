package indicators

import (
	"math"
	"time"

	"github.com/edocame/bollinger-backtest/pkg/types"
)

// BandSeries holds a banded bar series as parallel slices, the layout
// the backtest engine scans. Rows in the warmup region of the rolling
// window carry NaN bands until Dropna is applied.
type BandSeries struct {
	Timestamps []time.Time
	Bid        []float64
	Ask        []float64
	Mid        []float64
	Upper      []float64
	Middle     []float64
	Lower      []float64
}

// Len returns the number of rows in the series.
func (s *BandSeries) Len() int {
	return len(s.Mid)
}

// BollingerBands computes the upper, middle and lower bands over the mid
// price of the given bars: rolling mean ± stdDevMultiplier x rolling
// standard deviation over window bars. The standard deviation is the
// sample deviation (ddof=1). The first window-1 rows have NaN bands.
func BollingerBands(bars []types.Bar, window int, stdDevMultiplier float64) *BandSeries {
	n := len(bars)
	s := &BandSeries{
		Timestamps: make([]time.Time, n),
		Bid:        make([]float64, n),
		Ask:        make([]float64, n),
		Mid:        make([]float64, n),
		Upper:      make([]float64, n),
		Middle:     make([]float64, n),
		Lower:      make([]float64, n),
	}

	for i, bar := range bars {
		s.Timestamps[i] = bar.Timestamp
		s.Bid[i] = bar.Bid
		s.Ask[i] = bar.Ask
		s.Mid[i] = bar.Mid
	}

	// Rolling mean and sample std over the mid price, tracked with
	// running sums so the sweep over large windows stays O(n).
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		sum += s.Mid[i]
		sumSq += s.Mid[i] * s.Mid[i]
		if i >= window {
			old := s.Mid[i-window]
			sum -= old
			sumSq -= old * old
		}

		if i < window-1 || window < 2 {
			s.Upper[i] = math.NaN()
			s.Middle[i] = math.NaN()
			s.Lower[i] = math.NaN()
			continue
		}

		mean := sum / float64(window)
		// Sample variance; guard against negative values from
		// floating point cancellation.
		variance := (sumSq - sum*sum/float64(window)) / float64(window-1)
		if variance < 0 {
			variance = 0
		}
		std := math.Sqrt(variance)

		s.Middle[i] = mean
		s.Upper[i] = mean + stdDevMultiplier*std
		s.Lower[i] = mean - stdDevMultiplier*std
	}

	return s
}

// Dropna returns a copy of the series with every row that carries a NaN
// in any price or band column removed.
func (s *BandSeries) Dropna() *BandSeries {
	out := &BandSeries{}
	for i := 0; i < s.Len(); i++ {
		if math.IsNaN(s.Bid[i]) || math.IsNaN(s.Ask[i]) || math.IsNaN(s.Mid[i]) ||
			math.IsNaN(s.Upper[i]) || math.IsNaN(s.Middle[i]) || math.IsNaN(s.Lower[i]) {
			continue
		}
		out.Timestamps = append(out.Timestamps, s.Timestamps[i])
		out.Bid = append(out.Bid, s.Bid[i])
		out.Ask = append(out.Ask, s.Ask[i])
		out.Mid = append(out.Mid, s.Mid[i])
		out.Upper = append(out.Upper, s.Upper[i])
		out.Middle = append(out.Middle, s.Middle[i])
		out.Lower = append(out.Lower, s.Lower[i])
	}
	return out
}

// SMA computes a simple moving average with NaN for the warmup region.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i < window-1 || window < 1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}
