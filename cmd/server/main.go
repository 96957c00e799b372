package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-admin/config"
	"catalog-admin/internal/api"
	"catalog-admin/internal/broker"
	"catalog-admin/internal/catalog"
	"catalog-admin/internal/redisclient"
	"catalog-admin/internal/search"
	"catalog-admin/internal/service"
	"catalog-admin/internal/store"
	"catalog-admin/internal/util"
	"catalog-admin/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Observ.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting catalog admin service", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint, cfg.Server.Env, cfg.Observ.TraceSampleRate)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Business.LowStockThreshold)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicEvents))

	sinks := []service.EventSink{db, redisClient}
	deps := []api.Dependency{db, redisClient}

	var indexer *search.Indexer
	if cfg.Search.Enabled() {
		indexer, err = search.NewIndexer(cfg.Search.Addresses, cfg.Search.Index)
		if err != nil {
			logger.Fatal("Failed to create search indexer", zap.Error(err))
		}
		sinks = append(sinks, indexer)
		deps = append(deps, indexer)
		logger.Info("Search indexing enabled", zap.Strings("addresses", cfg.Search.Addresses))
	}
	sinks = append(sinks, broker.NewEventPublisher(producer))

	cat := catalog.New(catalog.WithThreshold(cfg.Business.LowStockThreshold))
	adminService := service.NewAdminService(cat, sinks...)
	adminService.UseIdempotency(redisClient, cfg.Business.IdempotencyTTL)

	if cfg.Business.SyncOnStartup {
		var index service.ProductIndex
		if indexer != nil {
			index = indexer
		}
		syncService := service.NewSyncService(cat, db, redisClient, index)
		if err := syncService.Hydrate(ctx); err != nil {
			logger.Fatal("Failed to hydrate catalog", zap.Error(err))
		}
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	storefrontConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicStorefront, cfg.Kafka.ConsumerGroup)
	storefrontWorker := worker.NewStorefrontWorker(storefrontConsumer, adminService, redisClient, cfg.Business.IdempotencyTTL)
	go func() {
		if err := storefrontWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Storefront worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	var searcher api.Searcher
	if indexer != nil {
		searcher = indexer
	}
	handler := api.NewHandler(adminService, searcher, deps...)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := storefrontWorker.Stop(); err != nil {
		logger.Error("Failed to stop storefront worker", zap.Error(err))
	}

	logger.Info("Server exited")
}
