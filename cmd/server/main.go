package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VinayBibyan/Donation-Network/internal/config"
	"github.com/VinayBibyan/Donation-Network/internal/database"
	"github.com/VinayBibyan/Donation-Network/internal/logging"
	"github.com/VinayBibyan/Donation-Network/internal/metrics"
	"github.com/VinayBibyan/Donation-Network/internal/repository"
	"github.com/VinayBibyan/Donation-Network/internal/routes"
	"github.com/VinayBibyan/Donation-Network/internal/services"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}
	logger := logging.New(cfg.AppEnv, cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to the datastore
	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open datastore", "datastore", cfg.Datastore, "err", err)
	}
	defer cleanup()

	// 3. Upload storage
	storage, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to configure storage", "driver", cfg.StorageDriver, "err", err)
	}

	// 4. Setup Fiber
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	var collector *metrics.Collector
	if cfg.EnableMetrics {
		collector = metrics.NewCollector(reg)
	}

	app, err := routes.NewApp(routes.Dependencies{
		Config:   cfg,
		Store:    store,
		Storage:  storage,
		Logger:   logger,
		Metrics:  collector,
		Gatherer: reg,
	})
	if err != nil {
		logger.Fatal("Failed to register routes", "err", err)
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("Shutdown failed", "err", err)
		}
	}()

	// 5. Start Server
	logger.Info("Server starting", "port", cfg.Port, "env", cfg.AppEnv, "datastore", cfg.Datastore, "storage", cfg.StorageDriver)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("Server failed to start", "err", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*repository.Store, func(), error) {
	switch cfg.Datastore {
	case config.DatastorePostgres:
		pool, err := database.ConnectPostgres(ctx, cfg.DBUrl)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresStore(pool), pool.Close, nil

	case config.DatastoreMongo:
		db, err := database.ConnectMongo(ctx, cfg.MongoURL, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, nil, err
		}
		store := repository.NewMongoStore(db)
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				logger.Error("Failed to disconnect from MongoDB", "err", err)
			}
		}, nil

	default:
		logger.Warn("Using the in-memory datastore; data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (services.StorageService, error) {
	if cfg.StorageDriver == config.StorageMinio {
		storage, err := services.NewMinioStorageService(services.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return storage, nil
	}

	return services.NewLocalStorageService(cfg.UploadDir, cfg.PublicBaseURL)
}
