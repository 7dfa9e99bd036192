package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/foodlink/internal/config"
	"github.com/fastygo/foodlink/internal/geocode"
	"github.com/fastygo/foodlink/internal/infrastructure/monitor"
	mongoInfra "github.com/fastygo/foodlink/internal/infrastructure/mongo"
	pgInfra "github.com/fastygo/foodlink/internal/infrastructure/postgres"
	"github.com/fastygo/foodlink/internal/notify"
	"github.com/fastygo/foodlink/internal/services/lifecycle"
	"github.com/fastygo/foodlink/repository"
	"github.com/fastygo/foodlink/repository/memory"
	mongoRepo "github.com/fastygo/foodlink/repository/mongo"
	pgRepo "github.com/fastygo/foodlink/repository/postgres"
	"github.com/fastygo/foodlink/usecase"
)

type recordStore struct {
	donations repository.DonationRepository
	users     repository.UserRepository
	ping      monitor.Pinger
}

func openStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (recordStore, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return recordStore{}, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return recordStore{}, err
		}
		manager.Register(lifecycle.StageStorage, "postgres", func(context.Context) error {
			pgInfra.Close(pool, logger)
			return nil
		})
		return recordStore{
			donations: pgRepo.NewDonationRepository(pool),
			users:     pgRepo.NewUserRepository(pool),
			ping:      pool,
		}, nil

	case config.StoreMongo:
		client, err := mongoInfra.Connect(ctx, cfg.Mongo, logger)
		if err != nil {
			return recordStore{}, err
		}
		manager.Register(lifecycle.StageStorage, "mongo", client.Close)
		return recordStore{
			donations: mongoRepo.NewDonationRepository(client.Database()),
			users:     mongoRepo.NewUserRepository(client.Database()),
			ping:      client,
		}, nil

	case config.StoreMemory:
		logger.Warn("using in-memory record store; data is lost on restart")
		mem := memory.New()
		return recordStore{
			donations: memory.NewDonationRepository(mem),
			users:     memory.NewUserRepository(mem),
		}, nil
	}
	return recordStore{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

type closableNotifier interface {
	usecase.Notifier
	Close() error
}

func openNotifier(cfg config.NotifierConfig, logger *zap.Logger) (closableNotifier, error) {
	switch cfg.Driver {
	case config.NotifierKafka:
		return notify.DialKafka(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	case config.NotifierAMQP:
		return notify.DialAMQP(notify.AMQPConfig{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			RoutingKey: cfg.AMQPRoutingKey,
		}, logger)
	case config.NotifierLog:
		return notify.NewLog(logger), nil
	}
	return nil, fmt.Errorf("unknown notifier driver %q", cfg.Driver)
}

func openGeocoder(cfg config.GeocoderConfig, logger *zap.Logger) (usecase.Geocoder, error) {
	if cfg.Static != "" {
		logger.Info("using static geocoder table")
		return geocode.ParseStatic(cfg.Static)
	}
	return geocode.NewNominatim(geocode.NominatimConfig{
		BaseURL:   cfg.URL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	}, nil, logger), nil
}
