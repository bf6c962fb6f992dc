// Package main provides the convbench CLI: it times one convolution on the
// selected backend and prints the average latency per iteration.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/born-ml/convbench/backend/cpu"
	"github.com/born-ml/convbench/backend/webgpu"
	"github.com/born-ml/convbench/bench"
	"github.com/born-ml/convbench/tensor"
)

const version = "v0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cfg := bench.DefaultConfig()

	fs := flag.NewFlagSet("convbench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	device := fs.String("device", "reference", "Target device: reference (cpu) or accelerated (gpu)")
	algo := fs.String("algo", "auto", "Convolution algorithm: auto, direct, winograd")
	layout := fs.String("layout", "nchw", "User tensor layout: nchw, nhwc, nchw8c")
	dtype := fs.String("dtype", "f32", "Element type: f32, f16, f64")
	verbose := fs.Bool("v", false, "Verbose output")
	showVersion := fs.Bool("version", false, "Show version")
	noBias := fs.Bool("no-bias", false, "Run the convolution without bias")
	fs.IntVar(&cfg.Iterations, "iters", cfg.Iterations, "Number of timed iterations")
	fs.IntVar(&cfg.Batch, "batch", cfg.Batch, "Batch size")
	fs.IntVar(&cfg.InChannels, "ic", cfg.InChannels, "Input channels")
	fs.IntVar(&cfg.InHeight, "ih", cfg.InHeight, "Input height")
	fs.IntVar(&cfg.InWidth, "iw", cfg.InWidth, "Input width")
	fs.IntVar(&cfg.OutChannels, "oc", cfg.OutChannels, "Output channels")
	fs.IntVar(&cfg.KernelHeight, "kh", cfg.KernelHeight, "Kernel height")
	fs.IntVar(&cfg.KernelWidth, "kw", cfg.KernelWidth, "Kernel width")
	fs.IntVar(&cfg.Stride, "stride", cfg.Stride, "Stride (both axes)")
	fs.IntVar(&cfg.Padding, "pad", cfg.Padding, "Padding (all sides)")
	fs.BoolVar(&cfg.PrepackWeights, "prepack", cfg.PrepackWeights, "Reorder weights once instead of every iteration")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for input data")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintf(stdout, "convbench %s\n", version)
		return 0
	}
	// A bare positional engine kind, as in "convbench gpu".
	if fs.NArg() > 0 {
		*device = fs.Arg(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var err error
	if cfg.Algorithm, err = tensor.ParseAlgorithm(*algo); err != nil {
		logger.Error("invalid flag", "flag", "algo", "err", err)
		return 2
	}
	if cfg.Layout, err = tensor.ParseLayout(*layout); err == nil {
		_, err = bench.WeightsLayoutFor(cfg.Layout)
	}
	if err != nil {
		logger.Error("invalid flag", "flag", "layout", "err", err)
		return 2
	}
	if cfg.DType, err = tensor.ParseDataType(*dtype); err != nil {
		logger.Error("invalid flag", "flag", "dtype", "err", err)
		return 2
	}
	cfg.Bias = !*noBias

	res, err := benchmark(*device, cfg, logger)
	if err != nil {
		logger.Error("benchmark failed", "device", *device, "err", err)
		return 1
	}
	fmt.Fprintln(stdout, res.String())
	return 0
}

// benchmark opens the named device and runs cfg on it.
func benchmark(device string, cfg bench.Config, logger *slog.Logger) (bench.Result, error) {
	backend, release, err := openBackend(device)
	if err != nil {
		return bench.Result{}, err
	}
	defer release()
	return bench.Benchmark(backend, cfg, logger)
}

// openBackend maps a device kind to a backend and its release function.
func openBackend(device string) (tensor.Backend, func(), error) {
	switch strings.ToLower(device) {
	case "reference", "cpu":
		return cpu.New(), func() {}, nil
	case "accelerated", "gpu", "webgpu":
		b, err := webgpu.New()
		if err != nil {
			return nil, nil, err
		}
		return b, b.Release, nil
	default:
		return nil, nil, errors.New("unknown device kind " + device + " (want reference or accelerated)")
	}
}
