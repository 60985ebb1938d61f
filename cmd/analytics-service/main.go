package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"shorty/internal/analytics/database"
	httpdelivery "shorty/internal/analytics/delivery/http"
	"shorty/internal/analytics/enrichment"
	"shorty/internal/analytics/repository/sqlite"
	"shorty/internal/analytics/usecase"
	"shorty/internal/eventbus"
	"shorty/internal/events"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	port := getEnv("PORT", "8082")
	databasePath := getEnv("ANALYTICS_DB_PATH", "data/analytics.db")
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	geoipDBPath := getEnv("GEOIP_DB_PATH", "")

	if err := os.MkdirAll(filepath.Dir(databasePath), 0755); err != nil {
		logger.Fatal("failed to create data directory", zap.Error(err))
	}

	db, err := database.OpenDB(databasePath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("analytics database initialized", zap.String("path", databasePath))

	var countries enrichment.CountryResolver = enrichment.NoopCountryResolver{}
	if geoipDBPath != "" {
		geoIP, err := enrichment.NewGeoIPResolver(geoipDBPath)
		if err != nil {
			logger.Warn("geoip database not available, country resolution disabled",
				zap.String("path", geoipDBPath), zap.Error(err))
		} else {
			defer geoIP.Close()
			countries = geoIP
			logger.Info("geoip database loaded", zap.String("path", geoipDBPath))
		}
	}

	repo := sqlite.NewClickRepository(db)
	service := usecase.NewAnalyticsService(
		repo,
		enrichment.NewDeviceDetector(),
		enrichment.NewRefererClassifier(),
		countries,
		logger,
	)

	// The consumer group starts from the earliest retained offset so a
	// fresh store can be rebuilt from the full event history.
	wmLogger := eventbus.NewZapLoggerAdapter(logger)
	subscriber, err := eventbus.NewKafkaSubscriber(eventbus.KafkaSubscriberConfig{
		Brokers:       kafkaBrokers,
		ConsumerGroup: "analytics-service",
		FromBeginning: true,
	}, wmLogger)
	if err != nil {
		logger.Fatal("failed to create kafka subscriber", zap.Error(err))
	}

	consumer, err := eventbus.NewConsumer(subscriber, wmLogger)
	if err != nil {
		logger.Fatal("failed to create consumer", zap.Error(err))
	}
	consumer.On("index-url-events", events.TopicURLEvents, service.HandleEvent)
	consumer.On("index-url-clicks", events.TopicURLClicks, service.HandleEvent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Fatal("consumer failed", zap.Error(err))
		}
	}()
	<-consumer.Running()
	logger.Info("event consumer running", zap.Strings("brokers", kafkaBrokers))

	handler := httpdelivery.NewHandler(service, logger, db)
	router := httpdelivery.NewRouter(handler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.Info("analytics service starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("analytics service shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	if err := consumer.Close(); err != nil {
		logger.Error("consumer close failed", zap.Error(err))
	}

	logger.Info("analytics service stopped")
}
