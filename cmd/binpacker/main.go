package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/binpacker/internal/application"
	"github.com/eugenenazirov/binpacker/internal/config"
	"github.com/eugenenazirov/binpacker/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("binpacker", "Bin packer - assigns sized items to fixed-capacity bins")
	kingpinApp.HelpFlag.Short('h')

	serveCmd := kingpinApp.Command("serve", "Run the HTTP packing service").Default()
	configFile := serveCmd.Flag("config", "Path to YAML configuration file").String()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	serveCapacity := serveCmd.Flag("capacity", "Default bin capacity").Uint64()
	serveStrategy := serveCmd.Flag("strategy", "Default packing strategy (next-fit, ffd, mffd)").String()
	maxItems := serveCmd.Flag("max-items", "Maximum items accepted per pack request").Int()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	noMetrics := serveCmd.Flag("no-metrics", "Disable the Prometheus /metrics endpoint").Bool()

	packCmd := kingpinApp.Command("pack", "Pack item sizes and print the resulting bins")
	packOpts := packOptions{}
	packCmd.Flag("strategy", "Packing strategy (next-fit, ffd, mffd)").Short('s').Default("mffd").StringVar(&packOpts.strategy)
	packCmd.Flag("capacity", "Bin capacity").Short('c').Default("100").Uint64Var(&packOpts.capacity)
	packCmd.Flag("sizes", "Comma-separated item sizes").StringVar(&packOpts.sizes)
	packCmd.Flag("file", "YAML file with items and/or sizes ('-' reads stdin)").Short('f').StringVar(&packOpts.file)
	packCmd.Flag("output", "Output format").Short('o').Default(formatText).EnumVar(&packOpts.format, formatText, formatYAML, formatJSON)
	packCmd.Flag("verbose", "Log diagnostics to stderr").Short('v').BoolVar(&packOpts.verbose)

	compareCmd := kingpinApp.Command("compare", "Pack a random workload with every strategy and compare the results")
	compareOpts := compareOptions{}
	compareCmd.Flag("count", "Number of random items").Default("1000").IntVar(&compareOpts.count)
	compareCmd.Flag("min", "Smallest item size").Default("1").Uint64Var(&compareOpts.minSize)
	compareCmd.Flag("max", "Largest item size").Default("100").Uint64Var(&compareOpts.maxSize)
	compareCmd.Flag("capacity", "Bin capacity").Short('c').Default("100").Uint64Var(&compareOpts.capacity)
	compareCmd.Flag("seed", "Random seed (0 picks one)").Int64Var(&compareOpts.seed)
	compareCmd.Flag("output", "Output format").Short('o').Default(formatText).EnumVar(&compareOpts.format, formatText, formatYAML, formatJSON)
	compareCmd.Flag("verbose", "Log diagnostics to stderr").Short('v').BoolVar(&compareOpts.verbose)

	switch kingpin.MustParse(kingpinApp.Parse(os.Args[1:])) {
	case packCmd.FullCommand():
		os.Exit(runCLI(packOpts.verbose, func(logger *zap.Logger) error {
			return runPack(packOpts, os.Stdin, os.Stdout, logger)
		}))
	case compareCmd.FullCommand():
		os.Exit(runCLI(compareOpts.verbose, func(logger *zap.Logger) error {
			return runCompare(compareOpts, os.Stdout, logger)
		}))
	default:
		overrides := &config.CLIOverrides{
			ConfigFile:     *configFile,
			DisableMetrics: *noMetrics,
		}
		if *port != "" {
			overrides.Port = port
		}
		if *serveCapacity > 0 {
			overrides.Capacity = serveCapacity
		}
		if *serveStrategy != "" {
			overrides.Strategy = serveStrategy
		}
		if *maxItems > 0 {
			overrides.MaxItems = maxItems
		}
		if *rateLimitRPSFlag >= 0 {
			overrides.RateLimitRPS = rateLimitRPSFlag
		}
		if *rateLimitBurstFlag >= 0 {
			overrides.RateLimitBurst = rateLimitBurstFlag
		}
		serve(overrides)
	}
}

func runCLI(verbose bool, run func(*zap.Logger) error) int {
	logger, err := logging.NewConsole(verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(logger); err != nil {
		fmt.Fprintf(os.Stderr, "binpacker: %v\n", err)
		return 1
	}
	return 0
}

func serve(overrides *config.CLIOverrides) {
	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	logger.Info("packing defaults",
		zap.Uint64("capacity", cfg.Capacity),
		zap.String("strategy", cfg.Strategy.String()),
		zap.Bool("metrics", cfg.EnableMetrics),
	)

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
