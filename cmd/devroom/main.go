// Command devroom runs the collaborative workspace server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/devroom/pkg/ai"
	"github.com/odvcencio/devroom/pkg/api"
	"github.com/odvcencio/devroom/pkg/auth"
	"github.com/odvcencio/devroom/pkg/config"
	"github.com/odvcencio/devroom/pkg/realtime"
	"github.com/odvcencio/devroom/pkg/storage"
)

// Version information - set via ldflags during build
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		bind        = flag.String("bind", "", "listen address (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
		debug       = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("devroom %s (%s)\n", version, commit)
		return
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*configPath, *bind, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath, bindOverride string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if bindOverride != "" {
		cfg.Server.Bind = bindOverride
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)
	registry := realtime.NewRegistry(logger)

	generator := ai.NewGoogleClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
	pipeline := ai.NewPipeline(generator, store, logger)
	router := realtime.NewRouter(registry, pipeline, logger)

	gateway := realtime.NewGateway(realtime.GatewayConfig{
		Verifier:          tokens,
		Workspaces:        store,
		Registry:          registry,
		Router:            router,
		Logger:            logger,
		MaxConnections:    cfg.Server.MaxConnections,
		MessagesPerSecond: cfg.Server.MessagesPerSecond,
		MessageBurst:      cfg.Server.MessageBurst,
	})

	server := api.NewServer(api.ServerConfig{
		Config:      cfg,
		Tokens:      tokens,
		Revocations: store,
		Workspaces:  store,
		Registry:    registry,
		Gateway:     gateway,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := store.CleanupRevokedTokens(ctx); err != nil {
					logger.Warn("revocation cleanup failed", "error", err)
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
