package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/atoms/internal/config"
	"github.com/vango-dev/atoms/internal/errors"
	"github.com/vango-dev/atoms/pkg/atom"
	"github.com/vango-dev/atoms/pkg/devtools"
	"github.com/vango-dev/atoms/pkg/middleware"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		addr    string
		tick    time.Duration
		latency time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo graph over the devtools API",
		Long: `Start the devtools server over a demo atom graph.

The graph holds a clock that ticks on an interval, a temperature with a
writable Fahrenheit view, an async forecast and a todo list.

Endpoints:
  GET  /atoms, /atoms/{name}, /snapshot, /metrics, /healthz
  POST /atoms/{name}   write a value
  GET  /ws/{name}      stream a value over WebSocket

Examples:
  atoms serve
  atoms serve --addr=:7070 --tick=500ms
  curl -X POST localhost:7070/atoms/celsius -d 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := cfg.Logger(os.Stderr)
			success(cmd.OutOrStdout(), "devtools on http://%s", cfg.Addr)
			return runServe(ctx, cfg, logger, tick, latency)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().DurationVar(&tick, "tick", time.Second, "Clock tick interval")
	cmd.Flags().DurationVar(&latency, "latency", 300*time.Millisecond, "Forecast resolution latency")

	return cmd
}

// newStore creates a store with the observers the configuration enables.
// The returned registry holds the store's metrics.
func newStore(cfg *config.Config, logger *slog.Logger) (*atom.Store, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	opts := []atom.Option{
		atom.WithLogger(logger),
		atom.WithObserver(middleware.Logging(logger, slog.LevelDebug)),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, atom.WithObserver(middleware.NewMetrics(
			middleware.WithRegistry(reg),
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithPerAtom(cfg.Metrics.PerAtom),
		)))
	}
	if cfg.Tracing.Enabled {
		opts = append(opts, atom.WithObserver(middleware.NewTracing(
			middleware.WithTracerName(cfg.Tracing.TracerName),
		)))
	}
	return atom.NewStore(opts...), reg
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, tick, latency time.Duration) error {
	store, reg := newStore(cfg, logger)
	defer store.Close()

	g := newGraph(latency)
	registry := devtools.NewRegistry()
	if err := g.register(registry); err != nil {
		return err
	}

	opts := []devtools.Option{devtools.WithLogger(logger), devtools.WithGatherer(reg)}
	if len(cfg.Devtools.AllowedOrigins) > 0 {
		opts = append(opts, devtools.WithAllowedOrigins(cfg.Devtools.AllowedOrigins...))
	}
	srv := devtools.NewServer(store, registry, opts...)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := srv.Run(ctx, cfg.Addr); err != nil {
			return errors.New("A203").Wrap(err)
		}
		return nil
	})
	group.Go(func() error {
		return runClock(ctx, store, g.Clock, tick)
	})
	return group.Wait()
}

// runClock advances clock every interval until ctx ends.
func runClock(ctx context.Context, store *atom.Store, clock *atom.Atom[int], interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := atom.Update(store, clock, func(n int) int { return n + 1 }); err != nil {
				return err
			}
		}
	}
}
