package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wellness-step-by-step/client-form/config"
	"wellness-step-by-step/client-form/consumer"
	"wellness-step-by-step/client-form/dataservice"
	"wellness-step-by-step/client-form/events"
	"wellness-step-by-step/client-form/handlers"
	"wellness-step-by-step/client-form/middleware"
	"wellness-step-by-step/client-form/models"
	"wellness-step-by-step/client-form/monitoring"
	"wellness-step-by-step/client-form/session"
	"wellness-step-by-step/client-form/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.SentryDSN != "" {
		if err := utils.InitSentry(cfg.SentryDSN, cfg.AppEnv, cfg.AppVersion); err != nil {
			logger.Warnf("Sentry disabled: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	monitoring.Init()

	svc, closeData := newDataService(cfg, logger)
	defer closeData()

	var redisClient utils.RedisClient
	var sessions session.Store
	if cfg.RedisHost != "" {
		redisClient = connectRedis(cfg, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Errorf("Error closing Redis connection: %v", err)
			}
		}()
		sessions = session.NewRedisStore(redisClient, cfg.SessionTTL)
	} else {
		logger.Warn("REDIS_HOST not set, keeping form sessions in memory")
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	var publisher handlers.SubmissionPublisher
	if cfg.KafkaBroker != "" {
		producer, err := utils.NewKafkaProducer(cfg.KafkaBroker)
		if err != nil {
			logger.Warnf("Submission events disabled: %v", err)
		} else {
			defer producer.Close()
			publisher = events.NewPublisher(producer, cfg.KafkaTopic, logger)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var es utils.ElasticsearchClient
	if cfg.ElasticsearchURL != "" {
		es, err = utils.NewElasticsearchClient(cfg.ElasticsearchURL)
		if err != nil {
			logger.Warnf("Submission audit disabled: %v", err)
		} else if cfg.KafkaBroker != "" {
			c := consumer.NewSubmissionConsumer(cfg.KafkaBroker, cfg.KafkaTopic, cfg.AuditIndex, es, logger)
			c.Start(ctx)
			defer c.Stop()
		}
	}

	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		middleware.SentryMiddleware(),
		middleware.PrometheusMetrics(),
		middleware.ErrorHandler(logger),
	)

	handlers.NewClientFormHandler(svc, sessions, publisher, logger, cfg.SessionTTL).Register(router)
	handlers.NewAuditHandler(es, cfg.AuditIndex).Register(router)
	handlers.NewHealthHandler(redisClient).Register(router)
	router.GET("/metrics", gin.WrapH(monitoring.Handler()))
	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/clients/new") })

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server is running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}

func newDataService(cfg *config.Config, logger *logrus.Logger) (dataservice.Service, func()) {
	if cfg.DataSource != config.DataSourcePostgres {
		logger.Infof("Client records served by %s", cfg.APIBaseURL)
		return dataservice.NewHTTPService(cfg.APIBaseURL, nil), func() {}
	}

	repo, err := models.NewPostgresRepository(cfg.DB.DSN())
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	logger.Info("Client records served from Postgres")
	return dataservice.NewStoreService(repo), func() {
		if err := repo.Close(); err != nil {
			logger.Errorf("Error closing database: %v", err)
		}
	}
}

// connectRedis retries while Redis is still starting.
func connectRedis(cfg *config.Config, logger *logrus.Logger) utils.RedisClient {
	const maxRetries = 5
	retryDelay := 3 * time.Second

	var client utils.RedisClient
	var err error
	for i := 0; i < maxRetries; i++ {
		client, err = utils.NewRedisClient(cfg.RedisHost, cfg.RedisPassword)
		if err == nil {
			return client
		}
		logger.Warnf("Attempt %d: Failed to connect to Redis: %v", i+1, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	logger.Fatalf("Failed to initialize Redis after %d attempts: %v", maxRetries, err)
	return nil
}
