package types

import "time"

// Bar is one fixed-interval bid/ask price observation.
type Bar struct {
	Timestamp time.Time
	Bid       float64
	Ask       float64
	Mid       float64
}

// Trade is an immutable round trip produced by the backtest engine.
// PnL is expressed in pips (price difference x 10000). Direction is
// +1 for long, -1 for short. Entry and exit indices refer to rows of
// the banded series the trade was produced from; EntryIndex is always
// strictly less than ExitIndex because of the one-bar execution lag.
type Trade struct {
	PnL        float64
	Direction  int
	EntryIndex int
	ExitIndex  int
	EntryTime  time.Time
	ExitTime   time.Time
	Period     int // walk-forward period tag, 0 outside walk-forward runs
}

// BalanceSeries is a dated equity series for one strategy, as exported
// by a trading terminal. Dates are ascending and unique.
type BalanceSeries struct {
	Dates    []time.Time
	Balances []float64
}
