package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/georepo-validation/internal/config"
	"github.com/georepo-validation/internal/domain"
	"github.com/georepo-validation/internal/pkg/logger"
	"github.com/georepo-validation/internal/repository/cache"
	"github.com/georepo-validation/internal/repository/postgres"
	redisRepo "github.com/georepo-validation/internal/repository/redis"
	"github.com/georepo-validation/internal/usecase"
	"github.com/georepo-validation/internal/worker"
	"github.com/georepo-validation/internal/worker/validation"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Boundary Validation Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Int("parallelism", cfg.Worker.Parallelism),
		zap.Float64("tolerance", cfg.Validation.Tolerance))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	uploadRepo := postgres.NewUploadRepository(db)
	entityRepo := cache.NewCachedEntityRepository(
		postgres.NewEntityRepository(db),
		cache.NewCacheRepository(redisClient),
		log,
	)
	comparisonRepo := postgres.NewComparisonRepository(db)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)
	progressRepo := redisRepo.NewProgressRepository(redisClient.Client(), log)

	// 6. Initialize use cases
	validationUC := usecase.NewValidationUseCase(
		uploadRepo,
		entityRepo,
		streamRepo,
		progressRepo,
		log,
		cfg.Worker.Parallelism,
		cfg.Validation.OverlapAreaThreshold,
	)
	matchingUC := usecase.NewMatchingUseCase(
		entityRepo,
		comparisonRepo,
		uploadRepo,
		progressRepo,
		log,
		domain.MatchThresholds{
			GeometrySimilarityNew: cfg.Validation.GeometrySimilarityNew,
			GeometrySimilarityOld: cfg.Validation.GeometrySimilarityOld,
		},
	)

	// 7. Initialize workers
	validationWorker := validation.NewValidationWorker(
		streamRepo,
		uploadRepo,
		validationUC,
		matchingUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		log,
	)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(validationWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start workers
	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Cancel context to stop workers
	cancel()

	// Stop worker manager
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
