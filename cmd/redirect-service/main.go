package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shorty/internal/eventbus"
	"shorty/internal/events"
	"shorty/internal/redirect/cache"
	httpdelivery "shorty/internal/redirect/delivery/http"
	"shorty/internal/redirect/usecase"
	"shorty/internal/registry"

	"github.com/redis/go-redis/v9"
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

	port := getEnv("PORT", "8081")
	redisURL := getEnv("REDIS_URL", "redis://localhost:6379/0")
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	shortenServiceURL := getEnv("SHORTEN_SERVICE_URL", "http://localhost:8080")

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	redirectCache := cache.NewRedisCache(rdb, logger)
	urlRegistry := registry.NewHTTPClient(shortenServiceURL, logger)

	wmLogger := eventbus.NewZapLoggerAdapter(logger)
	kafkaPublisher, err := eventbus.NewKafkaPublisher(kafkaBrokers, wmLogger)
	if err != nil {
		logger.Fatal("failed to create kafka publisher", zap.Error(err))
	}
	defer kafkaPublisher.Close()

	clicks := eventbus.NewPublisher(kafkaPublisher, wmLogger)
	service := usecase.NewRedirectService(redirectCache, urlRegistry, clicks, logger)

	// Cache warming replays url.created from the earliest retained offset,
	// so a flushed Redis rewarms from history. Warming is idempotent; a
	// replayed creation just rewrites the same entry.
	subscriber, err := eventbus.NewKafkaSubscriber(eventbus.KafkaSubscriberConfig{
		Brokers:       kafkaBrokers,
		ConsumerGroup: "redirect-service",
		FromBeginning: true,
	}, wmLogger)
	if err != nil {
		logger.Fatal("failed to create kafka subscriber", zap.Error(err))
	}

	consumer, err := eventbus.NewConsumer(subscriber, wmLogger)
	if err != nil {
		logger.Fatal("failed to create consumer", zap.Error(err))
	}
	consumer.On("warm-redirect-cache", events.TopicURLEvents, service.WarmCache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Fatal("consumer failed", zap.Error(err))
		}
	}()
	<-consumer.Running()
	logger.Info("cache warming consumer running")

	handler := httpdelivery.NewHandler(service, logger)
	router := httpdelivery.NewRouter(handler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.Info("redirect service starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("redirect service shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	if err := consumer.Close(); err != nil {
		logger.Error("consumer close failed", zap.Error(err))
	}

	logger.Info("redirect service stopped")
}
