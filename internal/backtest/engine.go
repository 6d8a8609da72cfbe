package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/edocame/bollinger-backtest/internal/errors"
	"github.com/edocame/bollinger-backtest/internal/indicators"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

const (
	// PnL is reported in pips: price difference x 10000.
	PipFactor = 10000.0

	// DefaultFridayCloseRows is how many trailing rows of each Friday
	// present in the data are flagged for forced closure. The window is
	// row-count based, not clock based: with one-minute bars and no
	// gaps it covers the last 15 minutes of the Friday session.
	DefaultFridayCloseRows = 15

	// MinUsableRows is the smallest banded series the engine accepts.
	MinUsableRows = 3
)

// Position values for the per-bar state machine. Exactly one position
// exists per instrument at any bar.
const (
	positionFlat  = 0
	positionLong  = 1
	positionShort = -1
)

// BacktestEngine runs the Bollinger mean-reversion state machine over a
// banded bar series and collects the resulting trades:
//   - enter long when the mid price crosses below the lower band,
//     buying at the next bar's ask
//   - exit long when the mid price crosses above the middle band,
//     selling at the next bar's bid
//   - short entries and exits are symmetric on the upper band
//   - open positions are force-closed during the trailing Friday
//     window and at the end of the data
type BacktestEngine struct {
	series      *indicators.BandSeries
	fridayClose []bool
	trades      []types.Trade
	summary     Summary
}

// EngineOption configures a BacktestEngine.
type EngineOption func(*BacktestEngine)

// WithFridayClose overrides the Friday forced-closure flags. The slice
// must be as long as the series; nil disables Friday closure entirely.
func WithFridayClose(flags []bool) EngineOption {
	return func(e *BacktestEngine) {
		e.fridayClose = flags
	}
}

// NewBacktestEngine validates the banded series and prepares an engine.
// Rows with NaN in any required column must already be dropped; fewer
// than MinUsableRows remaining is a validation error. Friday flags are
// derived from the series timestamps unless overridden.
func NewBacktestEngine(series *indicators.BandSeries, opts ...EngineOption) (*BacktestEngine, error) {
	if series == nil {
		return nil, errors.NewValidationError("engine", "new", "banded series is nil")
	}
	n := series.Len()
	if len(series.Bid) != n || len(series.Ask) != n || len(series.Mid) != n ||
		len(series.Upper) != n || len(series.Middle) != n || len(series.Lower) != n {
		return nil, errors.NewValidationError("engine", "new", "series columns have mismatched lengths")
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(series.Bid[i]) || math.IsNaN(series.Ask[i]) ||
			math.IsNaN(series.Mid[i]) || math.IsNaN(series.Upper[i]) ||
			math.IsNaN(series.Middle[i]) || math.IsNaN(series.Lower[i]) {
			return nil, errors.NewValidationError("engine", "new",
				fmt.Sprintf("series contains missing values at row %d; call Dropna first", i))
		}
	}
	if n < MinUsableRows {
		return nil, errors.NewValidationError("engine", "new",
			fmt.Sprintf("not enough data to run backtest: need at least %d rows, got %d", MinUsableRows, n))
	}

	e := &BacktestEngine{
		series:      series,
		fridayClose: FridayCloseFlags(series.Timestamps, DefaultFridayCloseRows),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fridayClose != nil && len(e.fridayClose) != n {
		return nil, errors.NewValidationError("engine", "new", "friday close flags do not match series length")
	}
	return e, nil
}

// Run executes the scan and returns the ordered trade list. The loop is
// strictly sequential: each bar's state depends on the previous bar.
func (e *BacktestEngine) Run() []types.Trade {
	s := e.series
	n := s.Len()

	trades := make([]types.Trade, 0)
	position := positionFlat
	entryIdx := -1
	entryPrice := 0.0

	for i := 1; i < n-1; i++ {
		inFridayClose := e.fridayClose != nil && e.fridayClose[i]

		// Force close any open position inside the Friday window, at
		// this bar's own price, and skip entry logic for the bar.
		if inFridayClose && position != positionFlat {
			if position == positionLong {
				pnl := (s.Bid[i] - entryPrice) * PipFactor
				trades = append(trades, e.newTrade(pnl, positionLong, entryIdx, i))
			} else {
				pnl := (entryPrice - s.Ask[i]) * PipFactor
				trades = append(trades, e.newTrade(pnl, positionShort, entryIdx, i))
			}
			position = positionFlat
			entryIdx = -1
			entryPrice = 0.0
			continue
		}

		if position == positionFlat && !inFridayClose {
			// Long entry: mid crosses below the lower band. Execution
			// lags one bar: buy at the next bar's ask.
			if s.Mid[i-1] > s.Lower[i-1] && s.Mid[i] < s.Lower[i] {
				position = positionLong
				entryIdx = i + 1
				entryPrice = s.Ask[entryIdx]
			} else if s.Mid[i-1] < s.Upper[i-1] && s.Mid[i] > s.Upper[i] {
				// Short entry: mid crosses above the upper band, sell
				// at the next bar's bid.
				position = positionShort
				entryIdx = i + 1
				entryPrice = s.Bid[entryIdx]
			}
		} else if position == positionLong {
			// Exit long: mid crosses above the middle band (mean
			// reversion), sell at the next bar's bid.
			if s.Mid[i-1] < s.Middle[i-1] && s.Mid[i] > s.Middle[i] {
				exitIdx := i + 1
				pnl := (s.Bid[exitIdx] - entryPrice) * PipFactor
				trades = append(trades, e.newTrade(pnl, positionLong, entryIdx, exitIdx))
				position = positionFlat
				entryIdx = -1
				entryPrice = 0.0
			}
		} else if position == positionShort {
			// Exit short: mid crosses below the middle band, buy at
			// the next bar's ask.
			if s.Mid[i-1] > s.Middle[i-1] && s.Mid[i] < s.Middle[i] {
				exitIdx := i + 1
				pnl := (entryPrice - s.Ask[exitIdx]) * PipFactor
				trades = append(trades, e.newTrade(pnl, positionShort, entryIdx, exitIdx))
				position = positionFlat
				entryIdx = -1
				entryPrice = 0.0
			}
		}
	}

	// Force close anything still open at the last available price.
	if position == positionLong {
		pnl := (s.Bid[n-1] - entryPrice) * PipFactor
		trades = append(trades, e.newTrade(pnl, positionLong, entryIdx, n-1))
	} else if position == positionShort {
		pnl := (entryPrice - s.Ask[n-1]) * PipFactor
		trades = append(trades, e.newTrade(pnl, positionShort, entryIdx, n-1))
	}

	e.trades = trades
	e.summary = Summarize(trades)
	return trades
}

// Trades returns the trade list from the last Run.
func (e *BacktestEngine) Trades() []types.Trade {
	return e.trades
}

// Summary returns the performance summary from the last Run.
func (e *BacktestEngine) Summary() Summary {
	return e.summary
}

func (e *BacktestEngine) newTrade(pnl float64, direction, entryIdx, exitIdx int) types.Trade {
	t := types.Trade{
		PnL:        pnl,
		Direction:  direction,
		EntryIndex: entryIdx,
		ExitIndex:  exitIdx,
	}
	ts := e.series.Timestamps
	if len(ts) > 0 {
		t.EntryTime = ts[clampIndex(entryIdx, len(ts))]
		t.ExitTime = ts[clampIndex(exitIdx, len(ts))]
	}
	return t
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// FridayCloseFlags marks the trailing rows of every Friday present in
// the data. For each calendar date that is a Friday, the last rows
// rows get a true flag. Gaps in the data shrink the window to whatever
// rows physically exist, matching the row-count definition used by the
// engine. A nil or empty timestamp slice yields nil (no Friday closure).
func FridayCloseFlags(timestamps []time.Time, rows int) []bool {
	if len(timestamps) == 0 || rows <= 0 {
		return nil
	}

	flags := make([]bool, len(timestamps))

	// Walk runs of identical calendar dates; timestamps are ascending
	// so each Friday's rows are contiguous.
	start := 0
	for i := 1; i <= len(timestamps); i++ {
		if i < len(timestamps) && sameDay(timestamps[i], timestamps[start]) {
			continue
		}
		if timestamps[start].Weekday() == time.Friday {
			from := i - rows
			if from < start {
				from = start
			}
			for j := from; j < i; j++ {
				flags[j] = true
			}
		}
		start = i
	}
	return flags
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
