package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/ticktraq/field-service/internal/api/http"
	"github.com/ticktraq/field-service/internal/api/http/handlers"
	"github.com/ticktraq/field-service/internal/auth"
	"github.com/ticktraq/field-service/internal/config"
	"github.com/ticktraq/field-service/internal/events"
	"github.com/ticktraq/field-service/internal/observability"
	"github.com/ticktraq/field-service/internal/persistence"
	"github.com/ticktraq/field-service/internal/repository"
	"github.com/ticktraq/field-service/internal/seed"
	"github.com/ticktraq/field-service/internal/service"
	"github.com/ticktraq/field-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := persistence.Open(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to open snapshot store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer kv.Close()

	data := seed.Default()
	logs, err := data.Logs()
	if err != nil {
		logger.Fatal("invalid seed logs", zap.Error(err))
	}
	overview, err := data.Overview()
	if err != nil {
		logger.Fatal("invalid seed overview", zap.Error(err))
	}
	sites, err := data.Sites()
	if err != nil {
		logger.Fatal("invalid seed sites", zap.Error(err))
	}
	user, err := data.User()
	if err != nil {
		logger.Fatal("invalid seed user", zap.Error(err))
	}

	source := seed.NewSource(data,
		seed.WithLatency(cfg.Fetch.TicketLatency(), cfg.Fetch.InventoryLatency()),
		seed.WithLogger(logger))
	retry := service.RetryPolicy{Attempts: cfg.Fetch.RetryAttempts, BaseDelay: cfg.Fetch.RetryBaseDelay()}
	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), time.Now)

	tickets := service.NewTicketStore(service.TicketDependencies{
		Repo:       repository.NewTicketRepository(kv, cfg.Store.TicketsKey),
		Source:     source,
		Dispatcher: dispatcher,
		Logger:     logger,
		Retry:      retry,
	})
	defer tickets.Close()
	inventory := service.NewInventoryStore(service.InventoryDependencies{
		Repo:       repository.NewInventoryRepository(kv, cfg.Store.InventoryKey),
		Source:     source,
		Dispatcher: dispatcher,
		Logger:     logger,
		Retry:      retry,
	})
	defer inventory.Close()
	logStore := service.NewLogsStore(service.LogsDependencies{
		Repo:       repository.NewLogsRepository(kv, cfg.Store.LogsKey),
		Logs:       logs,
		Overview:   overview,
		Sites:      sites,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	defer logStore.Close()
	session := service.NewSessionStore(service.SessionDependencies{
		User:       user,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	for name, restore := range map[string]func(context.Context) error{
		"tickets":   tickets.Restore,
		"inventory": inventory.Restore,
		"logs":      logStore.Restore,
	} {
		if err := restore(ctx); err != nil {
			logger.Fatal("failed to restore store", zap.String("store", name), zap.Error(err))
		}
	}

	changeLog := service.NewChangeLogService(dispatcher, logger, metrics)
	changeLog.RegisterHandlers()
	defer changeLog.Stop()
	stopConsumption := worker.StartConsumptionWorker(dispatcher, tickets, logger)
	defer stopConsumption()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Store.Backend, kv, metrics),
		Session:   handlers.NewSessionHandler(session),
		Tickets:   handlers.NewTicketsHandler(tickets),
		Inventory: handlers.NewInventoryHandler(inventory),
		Logs:      handlers.NewLogsHandler(logStore),
		Identify:  auth.Identify(tokens, logger),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("backend", cfg.Store.Backend))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
