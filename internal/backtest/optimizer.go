package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/edocame/bollinger-backtest/internal/errors"
	"github.com/edocame/bollinger-backtest/internal/indicators"
	"github.com/edocame/bollinger-backtest/internal/monitoring"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

// Score selects the ranking criterion for a parameter sweep.
type Score string

const (
	// ScoreTotalPnL ranks candidates by total PnL in pips.
	ScoreTotalPnL Score = "total_pnl"
	// ScoreLinearity ranks candidates by the linearity of their
	// cumulative PnL curve.
	ScoreLinearity Score = "linearity"
)

// DefaultMinRows is the usable-row threshold below which a candidate is
// rejected with a zero score instead of being backtested.
const DefaultMinRows = 100

// Candidate is one (window, stdDevMultiplier) parameter combination.
type Candidate struct {
	Window int
	StdDev float64
}

// CandidateResult is the small per-candidate record workers report.
type CandidateResult struct {
	Window         int
	StdDev         float64
	TotalTrades    int
	TotalPnL       float64
	WinRate        float64
	MaxDrawdown    float64
	LinearityScore float64
	Duration       time.Duration
	Err            error // contained evaluation failure, scores stay zero
}

// ScoreValue returns the value the sweep ranks this result by.
func (r CandidateResult) ScoreValue(by Score) float64 {
	if by == ScoreLinearity {
		return r.LinearityScore
	}
	return r.TotalPnL
}

// GridConfig describes a parameter sweep. Window bounds are inclusive;
// the std-dev range is swept start..stop inclusive in step increments.
type GridConfig struct {
	WindowStart int
	WindowStop  int
	WindowStep  int
	StdStart    float64
	StdStop     float64
	StdStep     float64
	MinRows     int   // zero means DefaultMinRows
	Workers     int   // zero means one per core
	ScoreBy     Score // empty means ScoreTotalPnL
}

// Candidates expands the grid into the full combination list, windows
// outer and std-devs inner, the order results are reported in.
func (c GridConfig) Candidates() []Candidate {
	var out []Candidate
	for w := c.WindowStart; w <= c.WindowStop; w += c.WindowStep {
		// A small epsilon keeps the stop value inside the sweep when
		// the step does not divide the range exactly.
		for s := c.StdStart; s <= c.StdStop+c.StdStep/1e6; s += c.StdStep {
			out = append(out, Candidate{Window: w, StdDev: s})
		}
	}
	return out
}

func (c GridConfig) minRows() int {
	if c.MinRows <= 0 {
		return DefaultMinRows
	}
	return c.MinRows
}

func (c GridConfig) scoreBy() Score {
	if c.ScoreBy == "" {
		return ScoreTotalPnL
	}
	return c.ScoreBy
}

// Optimize sweeps the parameter grid over the given bars, evaluating
// candidates on a bounded worker pool, and returns one result row per
// candidate sorted descending by the configured score. Candidate
// evaluations are independent; collection order is fixed by candidate
// order and the sort is stable, so reruns produce identical output.
func Optimize(bars []types.Bar, cfg GridConfig) ([]CandidateResult, error) {
	if cfg.WindowStep <= 0 || cfg.StdStep <= 0 {
		return nil, errors.NewValidationError("optimizer", "optimize", "grid steps must be positive")
	}
	candidates := cfg.Candidates()
	if len(candidates) == 0 {
		return nil, errors.NewValidationError("optimizer", "optimize", "empty parameter grid")
	}

	pool := NewWorkerPool(cfg.Workers, len(candidates))
	pool.Start()

	go func() {
		for _, cand := range candidates {
			job := CandidateJob{
				Candidate: cand,
				Bars:      bars,
				MinRows:   cfg.minRows(),
				ScoreBy:   cfg.scoreBy(),
			}
			if err := pool.SubmitJob(job); err != nil {
				return
			}
		}
	}()

	byCandidate := make(map[Candidate]CandidateResult, len(candidates))
	for i := 0; i < len(candidates); i++ {
		res := <-pool.GetResults()
		monitoring.RecordCandidate(res.Err != nil)
		byCandidate[Candidate{Window: res.Window, StdDev: res.StdDev}] = res
	}
	pool.Stop()

	// Reassemble in candidate order before the stable sort so ranking
	// is deterministic regardless of worker scheduling.
	results := make([]CandidateResult, 0, len(candidates))
	for _, cand := range candidates {
		results = append(results, byCandidate[cand])
	}

	scoreBy := cfg.scoreBy()
	sort.SliceStable(results, func(i, j int) bool {
		// Rejected candidates carry zero scores and sort on those, so a
		// reject can outrank a clean candidate that lost money.
		return results[i].ScoreValue(scoreBy) > results[j].ScoreValue(scoreBy)
	})
	return results, nil
}

// runCandidate computes bands for one candidate, drops warmup rows and
// runs the state machine. Too few usable rows yields an
// insufficient-data error that rejects the candidate.
func runCandidate(bars []types.Bar, cand Candidate, minRows int) ([]types.Trade, Summary, error) {
	series := indicators.BollingerBands(bars, cand.Window, cand.StdDev).Dropna()
	if series.Len() <= minRows {
		return nil, Summary{}, errors.NewInsufficientDataError("optimizer", "bands",
			fmt.Sprintf("only %d usable rows after indicator warmup, need more than %d", series.Len(), minRows))
	}

	engine, err := NewBacktestEngine(series)
	if err != nil {
		return nil, Summary{}, err
	}
	trades := engine.Run()
	return trades, engine.Summary(), nil
}
