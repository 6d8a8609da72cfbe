package backtest

import (
	"github.com/edocame/bollinger-backtest/pkg/types"
)

// Summary aggregates a trade list into scalar statistics. It is always
// recomputed in full from the trade list, never updated incrementally.
type Summary struct {
	TotalTrades   int
	TotalPnL      float64
	AverageTrade  float64
	WinRate       float64 // percent of trades with positive PnL
	WinningTrades int
	LosingTrades  int
	BestTrade     float64
	WorstTrade    float64
	MaxDrawdown   float64 // pips below the running cumulative peak, >= 0
}

// Summarize computes the performance summary for a trade list. An empty
// list yields the zero summary, not an error.
func Summarize(trades []types.Trade) Summary {
	if len(trades) == 0 {
		return Summary{}
	}

	s := Summary{
		TotalTrades: len(trades),
		BestTrade:   trades[0].PnL,
		WorstTrade:  trades[0].PnL,
	}

	for _, t := range trades {
		s.TotalPnL += t.PnL
		if t.PnL > 0 {
			s.WinningTrades++
		} else if t.PnL < 0 {
			s.LosingTrades++
		}
		if t.PnL > s.BestTrade {
			s.BestTrade = t.PnL
		}
		if t.PnL < s.WorstTrade {
			s.WorstTrade = t.PnL
		}
	}

	s.AverageTrade = s.TotalPnL / float64(s.TotalTrades)
	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100

	// Drawdown at t is the distance of the cumulative PnL below its
	// running maximum; the summary keeps the worst such distance.
	var cumulative, runningMax float64
	first := true
	for _, t := range trades {
		cumulative += t.PnL
		if first || cumulative > runningMax {
			runningMax = cumulative
		}
		first = false
		if dd := runningMax - cumulative; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
	}

	return s
}

// EquityCurve returns the cumulative PnL after each trade, the series
// the linearity scorer ranks candidates by.
func EquityCurve(trades []types.Trade) []float64 {
	curve := make([]float64, len(trades))
	var cumulative float64
	for i, t := range trades {
		cumulative += t.PnL
		curve[i] = cumulative
	}
	return curve
}
