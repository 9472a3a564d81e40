package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benjamincozon/shopassist/internal/agent"
	"github.com/benjamincozon/shopassist/internal/api"
	"github.com/benjamincozon/shopassist/internal/catalog"
	"github.com/benjamincozon/shopassist/internal/config"
	"github.com/benjamincozon/shopassist/internal/db"
	"github.com/benjamincozon/shopassist/internal/insight"
	"github.com/zeromicro/go-zero/core/logx"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logx.MustSetup(cfg.LogConf())
	defer logx.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catalog
	source, closeSource, err := catalogSource(ctx, cfg)
	if err != nil {
		fatalf("Failed to open catalog source: %v", err)
	}
	defer closeSource()

	store, err := catalog.NewStore(ctx, source)
	if err != nil {
		fatalf("Failed to load catalog: %v", err)
	}

	if cfg.Catalog.Source == config.CatalogFile && cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(store, cfg.Catalog.Path)
		if err != nil {
			fatalf("Failed to watch catalog: %v", err)
		}
		defer watcher.Stop()
		go watcher.Run(ctx)
	}

	// Sessions
	sessions := agent.NewRegistry(store, cfg.Session.IdleTTL)
	go sessions.Run(ctx, cfg.Session.SweepInterval)

	writer := insight.New(cfg)
	if writer == nil {
		logx.Info("OPENAI_API_KEY not set, product insights disabled")
	}

	// Create and start server
	server := api.NewServer(cfg, store, sessions, writer)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logx.Info("Shutting down...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logx.Errorf("Shutdown error: %v", err)
		}
	}()

	logx.Infof("Starting server on port %s", cfg.Server.Port)
	if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Errorf("Server stopped: %v", err)
	}
}

// catalogSource picks the product source from config. The returned close
// func releases whatever the source holds open.
func catalogSource(ctx context.Context, cfg *config.Config) (catalog.Source, func(), error) {
	switch cfg.Catalog.Source {
	case config.CatalogFile:
		return catalog.FileSource{Path: cfg.Catalog.Path}, func() {}, nil
	case config.CatalogPostgres:
		pool, err := db.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		queries := db.New(pool)
		if err := queries.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}

		// An empty table is seeded from the embedded catalog
		seed, err := catalog.EmbeddedSource{}.Load(ctx)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		n, err := queries.SeedIfEmpty(ctx, seed)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if n > 0 {
			logx.Infof("Seeded %d products into postgres", n)
		}
		return queries, pool.Close, nil
	default:
		return catalog.EmbeddedSource{}, func() {}, nil
	}
}

func fatalf(format string, args ...any) {
	logx.Errorf(format, args...)
	logx.Close()
	os.Exit(1)
}
