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

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/realtime"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/storage"
	"github.com/spec-kit/support-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var repos repository.Repositories
	if pool := pg.PoolHandle(); pool != nil {
		repos = repository.NewPostgresRepositories(pool)
	} else {
		repos = memory.New()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	blobs, err := storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.MaxUploadBytes)
	if err != nil {
		logger.Fatal("failed to init blob store", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	hub := realtime.NewHub(logger, metrics)
	var rooms realtime.Broadcaster = hub
	if redis != nil {
		relay := realtime.NewRedisRelay(redis.Client, cfg.Redis.RoomChannel, hub, logger)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("redis room relay stopped", zap.Error(err))
			}
		}()
		rooms = relay
	}

	dispatcher := events.NewAsyncDispatcher(cfg.Realtime.EventQueueSize, logger)
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		dispatcher.Run(ctx)
	}()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  repos.Users,
		StaffRepo: repos.Staff,
		Tokens:    tokens,
		Logger:    logger,
	})
	chatService := service.NewChatService(cfg.Storage, service.ChatDependencies{
		ChatRepo:    repos.Chats,
		MessageRepo: repos.Messages,
		Blobs:       blobs,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		ChatRepo:    repos.Chats,
		PaymentRepo: repos.Payments,
		CardRepo:    repos.Cards,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	staffService := service.NewStaffService(*cfg, service.StaffDependencies{
		StaffRepo:    repos.Staff,
		DocumentRepo: repos.Documents,
		Blobs:        blobs,
		Tokens:       tokens,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	compensationService := service.NewCompensationService(service.CompensationDependencies{
		StaffRepo:        repos.Staff,
		CompensationRepo: repos.Compensation,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	adminService := service.NewAdminService(repos.Stats)

	worker.StartRoomRelay(dispatcher, rooms, logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	if err := authService.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminUser, cfg.Auth.BootstrapAdminPass); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(tokens, repos.Users, repos.Staff)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimitBytes,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(handlers.HealthDependencies{
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			StorageRoot: cfg.Storage.Root,
			Postgres:    pg,
			Redis:       redis,
			Metrics:     metrics,
			Rooms:       hub,
		}),
		Auth:           handlers.NewAuthHandler(authService, staffService),
		Chats:          handlers.NewChatsHandler(chatService, paymentService),
		Admin:          handlers.NewAdminHandler(paymentService, staffService, compensationService, adminService),
		Staff:          handlers.NewStaffHandler(staffService, compensationService),
		AuthMiddleware: authMiddleware,
	})

	wsServer := realtime.NewHTTPServer(realtime.NewServer(ctx, hub, authMiddleware, chatService, cfg.Realtime, logger))

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("realtime listening", zap.String("addr", wsServer.Addr))
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("realtime listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	_ = wsServer.Shutdown(shutdownCtx)
	cancel()
	<-dispatchDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
