package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/therealutkarshpriyadarshi/vfx/internal/cache"
	"github.com/therealutkarshpriyadarshi/vfx/internal/config"
	"github.com/therealutkarshpriyadarshi/vfx/internal/engine"
	"github.com/therealutkarshpriyadarshi/vfx/internal/logging"
	"github.com/therealutkarshpriyadarshi/vfx/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vfx/internal/storage"
	"github.com/therealutkarshpriyadarshi/vfx/internal/tracing"
)

const usage = `Usage: vfx <command> [flags]

Commands:
  apply    apply an effect to one video
  batch    apply an effect to many videos
  info     print video metadata
  effects  list the effect catalog

Run 'vfx <command> -h' for command flags.
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	commands := map[string]func(context.Context, []string, io.Writer, io.Writer) error{
		"apply":   runApply,
		"batch":   runBatch,
		"info":    runInfo,
		"effects": runEffects,
	}

	cmd, ok := commands[args[0]]
	if !ok {
		if args[0] != "-h" && args[0] != "--help" && args[0] != "help" {
			fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		}
		fmt.Fprint(stderr, usage)
		return 2
	}

	if err := cmd(ctx, args[1:], stdout, stderr); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(stderr, "vfx %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

// app holds the process-wide collaborators built from configuration
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	engine  *engine.Engine
	store   *storage.Storage
	closers []func()
}

type appOptions struct {
	configPath string
	publish    bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	tracer, err := tracing.Setup(cfg.Tracing.Enabled, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		logger.ErrorWithErr("Tracing disabled", err)
	} else {
		a.closers = append(a.closers, func() { tracer.Close() })
	}

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := srv.Start(); err != nil {
				logger.ErrorWithErr("Metrics server stopped", err)
			}
		}()
		a.closers = append(a.closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		})
	}

	// Explicit nil keeps the interface empty when Redis is off
	var probeCache engine.ProbeCache
	if cfg.Redis.Enabled {
		c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.ErrorWithErr("Probe cache disabled", err)
		} else {
			probeCache = c
			a.closers = append(a.closers, func() { c.Close() })
		}
	}

	if opts.publish {
		if !cfg.Storage.Enabled {
			a.Close()
			return nil, errors.New("-publish requires storage.enabled in the configuration")
		}
		store, err := storage.New(ctx, cfg.Storage, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = store
	}

	a.engine = engine.NewFromConfig(cfg, logger, probeCache)
	return a, nil
}

// Close releases everything in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
