package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/foodlink/api/handler"
	"github.com/fastygo/foodlink/internal/config"
	"github.com/fastygo/foodlink/internal/infrastructure/monitor"
	"github.com/fastygo/foodlink/internal/infrastructure/outbox"
	redisInfra "github.com/fastygo/foodlink/internal/infrastructure/redis"
	"github.com/fastygo/foodlink/internal/middleware"
	"github.com/fastygo/foodlink/internal/router"
	"github.com/fastygo/foodlink/internal/services"
	"github.com/fastygo/foodlink/internal/services/lifecycle"
	"github.com/fastygo/foodlink/pkg/httpcontext"
	"github.com/fastygo/foodlink/pkg/logger"
	redisRepo "github.com/fastygo/foodlink/repository/redis"
	authUC "github.com/fastygo/foodlink/usecase/auth"
	donationUC "github.com/fastygo/foodlink/usecase/donation"
	matchingUC "github.com/fastygo/foodlink/usecase/matching"
	profileUC "github.com/fastygo/foodlink/usecase/profile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(lifecycle.Config{
		Timeout:     cfg.Context.ShutdownTimeout,
		HookTimeout: cfg.Context.ShutdownHookTimeout,
	}, zapLogger)
	manager.Listen(cancel)

	store, err := openStore(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("record store unavailable", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	redisClient, err := redisInfra.NewClient(cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register(lifecycle.StageStorage, "redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register(lifecycle.StageStorage, "outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(cfg.StoreDriver, store.ping, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register(lifecycle.StageWorkers, "monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	notifier, err := openNotifier(cfg.Notifier, zapLogger)
	if err != nil {
		zapLogger.Fatal("notifier unavailable", zap.String("driver", cfg.Notifier.Driver), zap.Error(err))
	}
	manager.Register(lifecycle.StagePublishers, "notifier", func(ctx context.Context) error {
		return notifier.Close()
	})

	geocoder, err := openGeocoder(cfg.Geocoder, zapLogger)
	if err != nil {
		zapLogger.Fatal("geocoder misconfigured", zap.Error(err))
	}

	outboxProcessor := services.NewOutboxProcessor(
		outboxStore,
		mon,
		notifier,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Outbox.SyncInterval,
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetry,
			Retention:  time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
		},
	)
	outboxProcessor.Start()
	manager.Register(lifecycle.StageWorkers, "outbox_processor", func(ctx context.Context) error {
		outboxProcessor.Stop(ctx)
		return nil
	})
	outboxBridge := services.NewOutboxBridge(outboxProcessor)

	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.SessionTTL)

	authUseCase := authUC.New(store.users, sessionRepo, authUC.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}, zapLogger)
	profileUseCase := profileUC.New(store.users, sessionRepo, geocoder, zapLogger)
	donationUseCase := donationUC.New(store.donations, store.users, geocoder, notifier, zapLogger)
	matchingUseCase := matchingUC.New(store.donations, matchingUC.Config{
		RadiusMeters:    cfg.Matching.RadiusMeters,
		MaxRadiusMeters: cfg.Matching.MaxRadiusMeters,
		Limit:           cfg.Matching.Limit,
	}, zapLogger)

	if cfg.Bootstrap.AdminID != "" {
		if _, err := profileUseCase.EnsureAdmin(appCtx, cfg.Bootstrap.AdminID, cfg.Bootstrap.AdminEmail); err != nil {
			zapLogger.Fatal("bootstrap admin failed", zap.Error(err))
		}
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:     apiHandler.NewAuthHandler(authUseCase, profileUseCase, ctxAdapter, zapLogger, cfg.JWT.SessionTTL),
		Profile:  apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Donation: apiHandler.NewDonationHandler(donationUseCase, profileUseCase, outboxBridge, ctxAdapter, zapLogger),
		Matching: apiHandler.NewMatchingHandler(matchingUseCase, profileUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, authUseCase, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxConnsPerIP:      cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("store", cfg.StoreDriver),
			zap.String("notifier", cfg.Notifier.Driver))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register(lifecycle.StageIngress, "http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
