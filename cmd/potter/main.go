package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uamyangel/potter/internal/config"
	"github.com/uamyangel/potter/internal/deviceio"
	"github.com/uamyangel/potter/internal/driver"
	"github.com/uamyangel/potter/internal/inspector"
	"github.com/uamyangel/potter/internal/logger"
	zapfactory "github.com/uamyangel/potter/internal/logger/zap"
	"github.com/uamyangel/potter/internal/netlistio"
	"github.com/uamyangel/potter/internal/routeerr"
	"github.com/uamyangel/potter/internal/rrg"
	"github.com/uamyangel/potter/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		input       string
		output      string
		device      string
		threads     int
		runtimeFrst bool
		configPath  string
		logLevel    string
		shell       bool
	)

	flag.StringVar(&input, "input", "", "input physical netlist path")
	flag.StringVar(&input, "i", "", "input physical netlist path (shorthand)")
	flag.StringVar(&output, "output", "", "output routed netlist path")
	flag.StringVar(&output, "o", "", "output routed netlist path (shorthand)")
	flag.StringVar(&device, "device", "xcvu3p.device", "device archive path")
	flag.StringVar(&device, "d", "xcvu3p.device", "device archive path (shorthand)")
	flag.IntVar(&threads, "thread", 32, "worker thread count")
	flag.IntVar(&threads, "t", 32, "worker thread count (shorthand)")
	flag.BoolVar(&runtimeFrst, "runtime_first", false, "use the runtime-first scheduling strategy")
	flag.BoolVar(&runtimeFrst, "r", false, "use the runtime-first scheduling strategy (shorthand)")
	flag.StringVar(&configPath, "config", "", "path to YAML configuration file")
	flag.StringVar(&logLevel, "log-level", "", "override logger.level from configuration")
	flag.BoolVar(&shell, "shell", false, "drop into the inspector REPL after routing")
	flag.Usage = usage
	flag.Parse()

	if input == "" || output == "" {
		fmt.Fprintln(os.Stderr, "potter: -i/--input and -o/--output are required")
		usage()
		return 1
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "potter: %v\n", err)
		return 1
	}
	cfg.ApplyEnvOverrides()
	cfg.Engine.Threads = threads
	cfg.Engine.RuntimeFirst = runtimeFrst
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	if err := cfg.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "potter: invalid configuration: %v\n", err)
		return 1
	}

	var lgr logger.Logger
	if cfg.Logger.Active {
		zapLog, err := zapfactory.New(cfg.Logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "potter: failed to initialize logger: %v\n", err)
			return 1
		}
		defer func() { _ = zapLog.Sync() }()
		lgr = zapfactory.NewZapAdapter(zapLog)
	} else {
		lgr = &logger.NopLogger{}
	}
	lgr = lgr.Named("potter")
	cfg.LogConfig(lgr)

	shutdown := telemetry.InitTracer(cfg.Telemetry, "potter", baseName(input))
	defer func() { _ = shutdown(context.Background()) }()

	dev, err := deviceio.LoadText(device)
	if err != nil {
		lgr.Error("failed to load device", logger.F("err", err))
		return 2
	}
	graph, err := rrg.Build(dev.Nodes(), dev.Edges(), dev.Layout())
	if err != nil {
		lgr.Error("failed to build routing resource graph", logger.F("err", err))
		return 2
	}
	lgr.Info("device loaded", logger.F("nodes", graph.Len()))

	specs, err := netlistio.LoadText(input)
	if err != nil {
		lgr.Error("failed to load netlist", logger.F("err", err))
		return 2
	}
	nets, conns := netlistio.Build(graph, specs)
	lgr.Info("netlist loaded", logger.F("nets", len(nets)), logger.F("conns", len(conns)))

	eng := driver.New(graph, nets, conns,
		driver.WithLogger(lgr.Named("driver")),
		driver.WithConfig(cfg.Engine),
		driver.WithRuntimeFirst(cfg.Engine.RuntimeFirst),
		driver.WithThreads(cfg.Engine.Threads),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	res, runErr := eng.Run(ctx)
	lgr.Info("routing finished",
		logger.F("iterations", res.Iterations),
		logger.F("converged", res.Converged),
		logger.F("overused", res.OverusedNodes),
		logger.F("failed", res.FailedConns),
		logger.F("directFailures", res.DirectFailures),
		logger.F("elapsed", time.Since(start).String()))

	if err := netlistio.WriteText(output, nets, conns); err != nil {
		lgr.Error("failed to write routed netlist", logger.F("err", err))
		return 2
	}

	if shell {
		inspector.New(graph, nets, conns, lgr).Run()
	}

	if runErr != nil {
		var convErr *routeerr.ConvergenceFailure
		if errors.As(runErr, &convErr) {
			lgr.Warn("routing did not converge; best-effort result written", logger.F("err", convErr.Error()))
			return 3
		}
		lgr.Error("routing aborted", logger.F("err", runErr.Error()))
		return 2
	}
	return 0
}

func usage() {
	fmt.Fprintf(os.Stderr, `potter: parallel negotiated-congestion FPGA router

Usage:
  potter -i <input> -o <output> [flags]

Flags:
  -i, --input string       input physical netlist path (required)
  -o, --output string      output routed netlist path (required)
  -d, --device string      device archive path (default "xcvu3p.device")
  -t, --thread int         worker thread count (default 32)
  -r, --runtime_first      use the runtime-first scheduling strategy
      --config string      path to YAML configuration file
      --log-level string   override logger.level from configuration
      --shell              drop into the inspector REPL after routing
  -h, --help                show this help
`)
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
