package backtest

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/edocame/bollinger-backtest/internal/errors"
	"github.com/edocame/bollinger-backtest/internal/monitoring"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

// WorkerPool distributes candidate evaluations across a bounded set of
// goroutines. Every worker reads the same immutable bar slice; only the
// candidate parameters go in and a small result record comes out, never
// full trade lists.
type WorkerPool struct {
	workerCount int
	jobQueue    chan CandidateJob
	resultQueue chan CandidateResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// CandidateJob is a single parameter combination to evaluate.
type CandidateJob struct {
	Candidate Candidate
	Bars      []types.Bar // read-only view over the shared price table
	MinRows   int
	ScoreBy   Score
}

// NewWorkerPool creates a pool with the given number of workers; zero
// or negative means one worker per available core.
func NewWorkerPool(workerCount, jobBufferSize int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workerCount: workerCount,
		jobQueue:    make(chan CandidateJob, jobBufferSize),
		resultQueue: make(chan CandidateResult, jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop drains the pool gracefully.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// SubmitJob submits a candidate evaluation to the pool.
func (wp *WorkerPool) SubmitJob(job CandidateJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// GetResults returns the channel completed evaluations arrive on.
func (wp *WorkerPool) GetResults() <-chan CandidateResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := evaluateCandidate(job)

			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

// evaluateCandidate runs one backtest for one parameter combination. A
// panic or error inside the evaluation is contained and converted to a
// zero result so a single bad candidate never aborts the sweep.
func evaluateCandidate(job CandidateJob) (result CandidateResult) {
	start := time.Now()
	result = CandidateResult{
		Window: job.Candidate.Window,
		StdDev: job.Candidate.StdDev,
	}

	defer func() {
		if r := recover(); r != nil {
			result = CandidateResult{
				Window: job.Candidate.Window,
				StdDev: job.Candidate.StdDev,
				Err:    errors.NewComputationError("optimizer", "evaluate", recoveredError(r)),
			}
		}
		result.Duration = time.Since(start)
		monitoring.ObserveCandidateDuration(result.Duration.Seconds())
	}()

	trades, summary, err := runCandidate(job.Bars, job.Candidate, job.MinRows)
	if err != nil {
		// Rejected candidates keep their error and a zero score, but
		// never abort the sweep.
		result.Err = err
		return result
	}

	result.TotalTrades = summary.TotalTrades
	result.TotalPnL = summary.TotalPnL
	result.WinRate = summary.WinRate
	result.MaxDrawdown = summary.MaxDrawdown
	if job.ScoreBy == ScoreLinearity {
		result.LinearityScore = CalculateLinearity(EquityCurve(trades)).LinearityScore
	}
	return result
}

type recoveredPanic struct {
	value interface{}
}

func (p recoveredPanic) Error() string {
	return "panic during candidate evaluation"
}

func recoveredError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return recoveredPanic{value: r}
}
