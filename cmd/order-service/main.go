package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/LavaJover/marketplace-order-service/internal/app/background"
	"github.com/LavaJover/marketplace-order-service/internal/app/setup"
	"github.com/LavaJover/marketplace-order-service/internal/config"
	"github.com/LavaJover/marketplace-order-service/internal/delivery/grpcapi"
	"github.com/LavaJover/marketplace-order-service/internal/delivery/http/handlers"
	publisher "github.com/LavaJover/marketplace-order-service/internal/infrastructure/kafka"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Reading config
	cfg := config.MustLoad()
	logger.Setup(cfg.LogConfig)

	if err := run(cfg); err != nil {
		log.Fatalf("order service stopped with error: %v", err)
	}
	slog.Info("order service stopped")
}

func run(cfg *config.OrderConfig) error {
	deps, err := setup.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("init dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			slog.Error("failed to close dependencies", "error", err)
		}
	}()

	uc, err := setup.InitializeUseCases(deps)
	if err != nil {
		return fmt.Errorf("init use cases: %w", err)
	}

	var outbox *publisher.OutboxPoller
	if deps.Publisher != nil {
		outbox = publisher.NewOutboxPoller(
			deps.Repositories.OutboxRepo,
			deps.Publisher,
			deps.Metrics,
			cfg.KafkaService.EventsTopic,
			cfg.Outbox.BatchSize,
			cfg.Outbox.PollInterval,
		)
	}
	tasks := background.NewBackgroundTasks(uc.Engine, uc.Disputes, outbox, deps.Subscriber, cfg.KafkaService, cfg.Lifecycle)

	httpServer := &http.Server{
		Addr: 		fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler: 	handlers.NewRouter(uc.Engine, uc.Disputes, handlers.RouterConfig{
			RequestTimeout: cfg.HTTPServer.RequestTimeout,
			Gatherer: 		deps.Registry,
			Store: 			deps.Repositories.Pinger,
		}),
	}

	grpcServer, err := grpcapi.NewServer(fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port), deps.Repositories.Pinger, 0)
	if err != nil {
		return fmt.Errorf("init gRPC server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return grpcServer.Serve(ctx)
	})
	g.Go(func() error {
		return tasks.Run(ctx)
	})

	return g.Wait()
}
