package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	ppprom "github.com/hackebrot/go-green-scheduler/pkg/observability/prometheus"
	"github.com/hackebrot/go-green-scheduler/pkg/scheduler"
)

// shutdownTimeout bounds how long the metrics server may take to drain.
const shutdownTimeout = 5 * time.Second

// config holds the global flags shared by every scenario.
type config struct {
	quantum     int
	tick        time.Duration
	signalTimer bool
	virtual     bool
	stackSize   int
	metricsAddr string
	linger      time.Duration
}

// configFrom reads the global flags into a config.
func configFrom(c *cli.Context) config {
	return config{
		quantum:     c.Int("quantum"),
		tick:        c.Duration("tick"),
		signalTimer: c.Bool("signal-timer"),
		virtual:     c.Bool("virtual"),
		stackSize:   c.Int("stack-size"),
		metricsAddr: c.String("metrics-addr"),
		linger:      c.Duration("linger"),
	}
}

// newApp builds the ppos command line application.
func newApp() *cli.App {
	return &cli.App{
		Name:  "ppos",
		Usage: "run demo workloads on the green thread scheduler",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "quantum",
				Value:   scheduler.DefaultQuantum,
				Usage:   "ticks a task runs before it is preempted",
				EnvVars: []string{"PPOS_QUANTUM"},
			},
			&cli.DurationFlag{
				Name:    "tick",
				Value:   scheduler.DefaultTickInterval,
				Usage:   "tick interval",
				EnvVars: []string{"PPOS_TICK"},
			},
			&cli.BoolFlag{
				Name:    "signal-timer",
				Usage:   "drive ticks from an interval timer signal instead of a ticker goroutine",
				EnvVars: []string{"PPOS_SIGNAL_TIMER"},
			},
			&cli.BoolFlag{
				Name:    "virtual",
				Usage:   "use the virtual clock: time only passes while every task is blocked",
				EnvVars: []string{"PPOS_VIRTUAL"},
			},
			&cli.IntFlag{
				Name:    "stack-size",
				Value:   scheduler.DefaultStackSize,
				Usage:   "stack buffer size per task in bytes",
				EnvVars: []string{"PPOS_STACK_SIZE"},
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "serve Prometheus metrics on this address, e.g. :9090",
				EnvVars: []string{"PPOS_METRICS_ADDR"},
			},
			&cli.DurationFlag{
				Name:    "linger",
				Usage:   "keep serving metrics this long after the scenario finishes",
				EnvVars: []string{"PPOS_LINGER"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "log format: text or json",
				EnvVars: []string{"PPOS_LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level: debug, info, warn or error",
				EnvVars: []string{"PPOS_LOG_LEVEL"},
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			priorityCommand(),
			preemptCommand(),
			sleepCommand(),
			joinCommand(),
			fibCommand(),
		},
	}
}

// main runs the application until it finishes or receives SIGINT or SIGTERM.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("received shutdown signal")
		cancel()
	}()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		slog.Error("ppos failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging installs the default slog logger from the log flags.
func setupLogging(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return cli.Exit(fmt.Sprintf("invalid log level %q", c.String("log-level")), 1)
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch c.String("log-format") {
	case "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return cli.Exit(fmt.Sprintf("invalid log format %q", c.String("log-format")), 1)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

// scenarioAction adapts a scenario built from the command's flags into a cli action.
func scenarioAction(build func(c *cli.Context) scenario) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := run(c.Context, configFrom(c), build(c)); err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		return nil
	}
}

// run executes the scenario and, when configured, serves metrics alongside it.
func run(ctx context.Context, cfg config, sc scenario) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metrics scheduler.Metrics = &scheduler.NilMetrics{}
	var srv *http.Server
	if cfg.metricsAddr != "" {
		reg := prom.NewRegistry()
		exporter, err := ppprom.NewMetricsExporter("ppos", reg, ppprom.ExporterOptions{})
		if err != nil {
			return fmt.Errorf("create metrics exporter: %w", err)
		}
		metrics = exporter

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv = &http.Server{
			Addr:              cfg.metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: shutdownTimeout,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if srv != nil {
		g.Go(func() error {
			slog.Info("serving metrics", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			return srv.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		defer cancel()
		if err := execute(gctx, cfg, sc, metrics); err != nil {
			return err
		}
		if srv != nil && cfg.linger > 0 {
			select {
			case <-gctx.Done():
			case <-time.After(cfg.linger):
			}
		}
		return nil
	})

	return g.Wait()
}

// execute runs one scenario on a fresh System. The calling goroutine becomes
// the bootstrap task.
func execute(ctx context.Context, cfg config, sc scenario, metrics scheduler.Metrics) error {
	opts := []scheduler.Option{
		scheduler.WithQuantum(cfg.quantum),
		scheduler.WithStackSize(cfg.stackSize),
		scheduler.WithLogger(slog.Default()),
		scheduler.WithMetrics(metrics),
	}
	switch {
	case cfg.virtual:
		opts = append(opts, scheduler.WithTickSource(nil))
	case cfg.signalTimer:
		src, err := signalTicker(cfg.tick)
		if err != nil {
			return err
		}
		opts = append(opts, scheduler.WithTickSource(src))
	default:
		opts = append(opts, scheduler.WithTickSource(scheduler.IntervalTicker{Interval: cfg.tick}))
	}

	sys, err := scheduler.New(opts...)
	if err != nil {
		return fmt.Errorf("initialize scheduler: %w", err)
	}

	ids, err := sc(ctx, sys)
	sys.Exit(0)
	if err != nil {
		return err
	}
	return processResults(sys, ids)
}
