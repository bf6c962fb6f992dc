// Package bench times repeated execution of a convolution plan.
package bench

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/born-ml/convbench/internal/plan"
	"github.com/born-ml/convbench/internal/tensor"
)

// Result is the measurement of one Run.
type Result struct {
	Iterations int
	Warmup     time.Duration // warm-up pass, not part of Total
	Total      time.Duration // all timed passes
}

// Average returns the mean duration of one timed pass.
func (r Result) Average() time.Duration {
	if r.Iterations == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Iterations)
}

// AverageMillis returns the mean pass latency in milliseconds.
func (r Result) AverageMillis() float64 {
	if r.Iterations == 0 {
		return 0
	}
	return float64(r.Total) / float64(time.Millisecond) / float64(r.Iterations)
}

// String formats the result as the benchmark's report line.
func (r Result) String() string {
	return fmt.Sprintf("Use time: %g ms per iteration.", r.AverageMillis())
}

// Runner executes plans with a warm-up pass followed by timed passes.
// The zero value is ready to use.
type Runner struct {
	Logger *slog.Logger
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Run executes p with a default Runner.
func Run(p *plan.Plan, iterations int) (Result, error) {
	var r Runner
	return r.Run(p, iterations)
}

// Run executes every step of p once as an untimed warm-up, then times
// iterations full passes. The clock stops only after the backend reports
// all queued work finished.
func (r *Runner) Run(p *plan.Plan, iterations int) (Result, error) {
	if p == nil || p.Len() == 0 {
		return Result{}, tensor.ErrEmptyPlan
	}
	if iterations < 1 {
		return Result{}, fmt.Errorf("%w: got %d", tensor.ErrInvalidIterations, iterations)
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	warmStart := now()
	if err := p.Execute(); err != nil {
		return Result{}, fmt.Errorf("warm-up: %w", err)
	}
	if err := wait(p.Backend); err != nil {
		return Result{}, fmt.Errorf("warm-up: %w", err)
	}
	warmup := now().Sub(warmStart)
	logger.Debug("warm-up finished", "backend", p.Backend.Name(), "steps", p.Len(), "duration", warmup)

	start := now()
	for i := 0; i < iterations; i++ {
		if err := p.Execute(); err != nil {
			return Result{}, fmt.Errorf("iteration %d: %w", i, err)
		}
	}
	if err := wait(p.Backend); err != nil {
		return Result{}, err
	}
	total := now().Sub(start)
	if total < 0 {
		total = 0
	}

	res := Result{Iterations: iterations, Warmup: warmup, Total: total}
	logger.Debug("benchmark finished", "iterations", iterations, "total", total, "avg_ms", res.AverageMillis())
	return res, nil
}

func wait(b tensor.Backend) error {
	if err := b.Wait(); err != nil {
		return fmt.Errorf("%w: wait: %w", tensor.ErrBackendExecution, err)
	}
	return nil
}
