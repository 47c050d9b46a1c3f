package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/manthysbr/modelpilot/internal/adapters/duckdb"
	"github.com/manthysbr/modelpilot/internal/adapters/runner"
	appconfig "github.com/manthysbr/modelpilot/internal/config"
	"github.com/manthysbr/modelpilot/internal/core/domain"
	"github.com/manthysbr/modelpilot/internal/core/ports"
	"github.com/manthysbr/modelpilot/internal/core/services"
	"github.com/manthysbr/modelpilot/pkg/kernel"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, the auto-switch loop and the config watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(parent context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Handle signals
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sig:
			bootLogger.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	secret, err := appconfig.LoadSecretKey()
	if err != nil {
		return err
	}
	path := appconfig.ResolvePath(configPath)
	store, err := appconfig.NewStore(bootLogger, path, secret)
	if err != nil {
		return err
	}
	cfg := store.Get()

	logger := appconfig.NewLogger(cfg.Log, os.Stdout)
	logger.Info("starting modelpilot kernel", "version", version, "config", path, "resources", len(cfg.Resources))

	eventBus := services.NewEventBus(logger)
	ids := services.UUIDGenerator{}

	opts := []services.EngineOption{
		services.WithPolicy(cfg.Policy),
		services.WithRanking(cfg.Ranking),
		services.WithEventBus(eventBus),
		services.WithIDGenerator(ids),
	}
	if cfg.Telemetry.DuckDB {
		repo, err := duckdb.NewRepository("")
		if err != nil {
			return fmt.Errorf("failed to open telemetry mirror: %w", err)
		}
		defer repo.Close()
		opts = append(opts, services.WithTelemetry(repo))
		logger.Info("telemetry mirror enabled", "backend", "duckdb")
	}

	engine := services.NewEngine(logger, cfg.Resources, opts...)
	defer engine.Flush()

	selectInitialResource(logger, engine)

	// Hot reload: the catalog and thresholds follow the file
	store.OnChange(func(next *domain.AppConfig) {
		engine.ReplaceCatalog(next.Resources)
		engine.SetPolicy(next.Policy)
		if _, ok := engine.CurrentResource(); !ok {
			selectInitialResource(logger, engine)
		}
	})

	executor := services.NewTaskExecutor(logger, engine, newTaskRunner(logger, cfg.Executor), ids, eventBus, cfg.Executor)

	apiServer, err := kernel.NewServer(logger, engine, executor, eventBus, store)
	if err != nil {
		return err
	}

	// CORS Configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           c.Handler(apiServer.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Config watcher
	g.Go(func() error {
		return store.Watch(gCtx)
	})

	// 2. Queued task execution
	g.Go(func() error {
		return executor.Run(gCtx)
	})

	// 3. Auto-switch policy loop
	if cfg.Policy.Enabled {
		loop := services.NewAutoSwitchLoop(logger, engine, cfg.Policy.Interval)
		g.Go(func() error {
			return loop.Run(gCtx)
		})
	} else {
		logger.Info("auto-switch loop disabled")
	}

	// 4. API server
	g.Go(func() error {
		logger.Info("starting api server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	// 5. Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// selectInitialResource makes the best balanced resource current so tasks can run
// before anyone switches by hand.
func selectInitialResource(logger *slog.Logger, engine *services.Engine) {
	best, ok := engine.SelectBest(domain.SelectionCriteria{Priority: domain.PriorityBalanced})
	if !ok {
		logger.Warn("no resource qualifies for initial selection")
		return
	}
	if engine.SwitchToAs(domain.ActorSystem, best.ResourceID, "startup", "best balanced resource") {
		logger.Info("initial resource selected", "resource_id", best.ResourceID, "score", best.Score)
	}
}

func newTaskRunner(logger *slog.Logger, cfg domain.ExecutorConfig) ports.TaskRunner {
	switch cfg.Runner {
	case domain.RunnerHTTP:
		logger.Info("task runner", "kind", cfg.Runner, "endpoint", cfg.Endpoint)
		return runner.NewHTTPRunner(cfg.Endpoint, cfg.Token, cfg.Timeout)
	default:
		logger.Info("task runner", "kind", domain.RunnerSimulated, "jitter", cfg.Jitter)
		sim := runner.NewSimulator(time.Now().UnixNano(), cfg.Jitter, cfg.Simulate)
		for _, d := range cfg.Degrade {
			logger.Info("simulated degradation", "resource_id", d.ResourceID, "factor", d.Factor)
			sim.Degrade(d.ResourceID, d.Factor)
		}
		return sim
	}
}
