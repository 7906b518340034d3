package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/rparkin1/wealthNavigator-sub000/internal/api"
	"github.com/rparkin1/wealthNavigator-sub000/internal/config"
	"github.com/rparkin1/wealthNavigator-sub000/internal/engine"
	"github.com/rparkin1/wealthNavigator-sub000/internal/goalstore"
	"github.com/rparkin1/wealthNavigator-sub000/internal/metrics"
	"github.com/rparkin1/wealthNavigator-sub000/internal/snapshot"
	"github.com/rparkin1/wealthNavigator-sub000/internal/store"
	"github.com/rparkin1/wealthNavigator-sub000/internal/telemetry"
	"github.com/rparkin1/wealthNavigator-sub000/internal/ui"
)

func serveCmd() *cobra.Command {
	var flagAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dependency HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if flagAddr != "" {
				cfg.Server.Addr = flagAddr
			}
			logger := newLogger(cfg.Log, true)
			ui.PrintBanner(os.Stderr, "Goal dependency scheduling service "+version)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	tp, shutdownTracing, err := telemetry.Setup(cfg.Tracing, "goalgraph", version, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	edges, err := store.Open(ctx, store.Config{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer edges.Close()

	goals, err := goalSource(cfg.Goals)
	if err != nil {
		return err
	}

	cache, err := engine.NewCache(int64(cfg.Cache.MaxEntries))
	if err != nil {
		return err
	}
	defer cache.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := engine.New(goals, edges, engine.Options{
		HorizonMonths:     cfg.Engine.HorizonMonths,
		ConditionalAsHard: cfg.Engine.ConditionalAsHard,
		Timeout:           cfg.Engine.Timeout,
	},
		engine.WithCache(cache),
		engine.WithLogger(logger),
		engine.WithMetrics(m),
		engine.WithTracer(tp),
	)

	router := api.NewRouter(svc, api.RouterConfig{
		Logger:         logger,
		Metrics:        m,
		Gatherer:       reg,
		TracerProvider: tp,
	})
	logger.Info("goalgraph ready",
		"store", edges.Backend(),
		"goals_source", cfg.Goals.Source,
		"cache_entries", cfg.Cache.MaxEntries,
		"horizon_months", cfg.Engine.HorizonMonths,
	)
	return api.Serve(ctx, cfg.Server, router, logger)
}

// goalSource returns the goal records the engine reads from.
func goalSource(cfg config.GoalsConfig) (goalstore.Source, error) {
	switch cfg.Source {
	case "http":
		return goalstore.NewClient(cfg.URL, cfg.Timeout), nil
	case "file":
		s, err := snapshot.Load(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("load goals: %w", err)
		}
		return goalstore.NewStatic(s.Goals), nil
	}
	return nil, fmt.Errorf("unknown goals source %q", cfg.Source)
}
