package main

import (
	"context"
	"errors"
	"formdesk/internal/cache"
	"formdesk/internal/catalog"
	"formdesk/internal/config"
	"formdesk/internal/repository"
	"formdesk/internal/service"
	"formdesk/internal/transport/rest"
	"formdesk/internal/transport/ws"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// MongoDB connection (template catalog)
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		return err
	}
	logger.Info("connected to MongoDB", zap.String("db", cfg.MongoDB))
	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection (drafts and sent questionnaires)
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	wsHub := ws.NewHub(logger.Named("ws"))
	defer wsHub.Stop()

	// Repositories and caches
	templateRepo := repository.NewTemplateRepo(db)
	blobs := cache.NewBlobStore(rdb, 0)
	instances := cache.NewInstanceCache(rdb)

	// Services
	templateSvc := service.NewTemplateService(templateRepo, logger.Named("templates"))
	designerSvc := service.NewDesignerService(blobs, templateSvc, logger.Named("designer"))
	instanceSvc := service.NewInstanceService(instances, templateSvc, cfg.PublicBaseURL, cfg.ComplianceThreshold, logger.Named("instances"))
	metricsSvc := service.NewMetricsService(instances, templateSvc, logger.Named("metrics"))

	// Inject broadcaster (wsHub implements service.Broadcaster)
	instanceSvc.SetBroadcaster(wsHub)

	defaults, err := catalog.Defaults()
	if err != nil {
		return err
	}
	if _, err := templateSvc.EnsureDefaults(ctx, defaults); err != nil {
		return err
	}

	router := rest.NewRouter(&rest.Container{
		TemplateService: templateSvc,
		DesignerService: designerSvc,
		InstanceService: instanceSvc,
		MetricsService:  metricsSvc,
		WSHub:           wsHub,
		CORSOrigins:     cfg.CORSOrigins,
		Logger:          logger.Named("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server exited")
	return nil
}
