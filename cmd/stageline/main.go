package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	corecfg "github.com/stageline-lab/stageline/internal/core/config"
	"github.com/stageline-lab/stageline/internal/core/storage/postgres"
	"github.com/stageline-lab/stageline/internal/crm"
	"github.com/stageline-lab/stageline/internal/migrations"
	"github.com/stageline-lab/stageline/internal/pipeline"
	"github.com/stageline-lab/stageline/internal/server"
	"github.com/stageline-lab/stageline/internal/staleness"
)

func main() {
	configPath := flag.String("config", "stageline.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	// 2. Initialize Storage (PostgreSQL)
	store, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// 2.1. Run Database Migrations
	if err := migrations.Run(store.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 3. Initialize the rule engine and orchestration service
	engine := crm.NewEngine()
	svc := pipeline.NewService(store, engine)

	// 4. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), store.DB(), cfg.Server.Mode)
	svc.RegisterRoutes(srv.Engine)

	// 5. Start Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Sweeper.Enabled {
		interval, err := cfg.Sweeper.SweepInterval()
		if err != nil {
			slog.Error("Invalid sweeper interval", "value", cfg.Sweeper.Interval, "error", err)
			os.Exit(1)
		}
		sweeper := staleness.NewSweeper(interval, store)
		g.Go(func() error {
			return sweeper.Start(gctx)
		})
	} else {
		slog.Info("Stale-demo sweeper disabled by config")
	}

	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
