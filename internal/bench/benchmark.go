package bench

import (
	"context"
	"log/slog"
	"strings"

	"github.com/born-ml/convbench/internal/plan"
	"github.com/born-ml/convbench/internal/tensor"
)

// Benchmark allocates the buffers described by cfg, builds the plan on b and
// times cfg.Iterations passes. A nil logger discards output.
func Benchmark(b tensor.Backend, cfg Config, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t, err := cfg.NewTensors()
	if err != nil {
		return Result{}, err
	}

	opts := []plan.Option{plan.WithLogger(logger)}
	if cfg.PrepackWeights {
		opts = append(opts, plan.WithPrepackedWeights())
	}
	p, err := plan.Build(b, cfg.Params(), t.Src, t.Weights, t.Bias, t.Dst, opts...)
	if err != nil {
		return Result{}, err
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		logger.Debug("plan built", "backend", b.Name(), "steps", p.Len(), "plan", strings.TrimSpace(p.Describe()))
	}

	runner := Runner{Logger: logger}
	return runner.Run(p, cfg.Iterations)
}
