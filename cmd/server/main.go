package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tgrieger/inkwell/internal/api"
	"github.com/tgrieger/inkwell/internal/config"
	"github.com/tgrieger/inkwell/internal/notify"
	"github.com/tgrieger/inkwell/internal/purge"
	"github.com/tgrieger/inkwell/internal/queue"
	"github.com/tgrieger/inkwell/internal/repository/postgres"
	"github.com/tgrieger/inkwell/internal/service"
	"github.com/tgrieger/inkwell/internal/session"
	"github.com/tgrieger/inkwell/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	repos := postgres.NewRepositories(db)

	// Initialize session store
	redisClient, err := session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to redis")
	}
	sessions := session.NewRedisStore(redisClient)

	signer := token.NewSigner(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Event publishing is optional; without brokers events are dropped
	var events queue.Publisher = queue.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventTopic)
		defer publisher.Close()
		events = publisher
	}

	services := service.NewServices(repos, sessions, signer, events)
	router := api.NewRouter(services)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notification consumer
	if len(cfg.KafkaBrokers) > 0 {
		dispatcher := notify.NewDispatcher(
			notify.NewMailer(notify.SMTPConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUsername,
				Password: cfg.SMTPPassword,
				From:     cfg.SMTPFrom,
			}),
			notify.NewWebhook(cfg.SlackWebhookURL, cfg.DiscordWebhookURL),
		)
		consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.EventTopic, cfg.KafkaGroupID, cfg.DeadLetterTopic, dispatcher.Handle)
		defer consumer.Close()
		go consumer.Run(ctx)
	}

	// Purge job for stale soft-deleted users
	purger := purge.New(repos.User, repos.Post, cfg.PurgeInterval, cfg.PurgeRetention)
	go purger.Run(ctx)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down server")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Fatal("server forced to shutdown")
	}

	logrus.Info("server stopped")
}
