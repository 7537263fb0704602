package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tanveenambrose/EcoMoney/internal/config"
	"github.com/tanveenambrose/EcoMoney/internal/infrastructure/amqp"
	"github.com/tanveenambrose/EcoMoney/internal/infrastructure/dynamo"
	jwtinfra "github.com/tanveenambrose/EcoMoney/internal/infrastructure/jwt"
	s3infra "github.com/tanveenambrose/EcoMoney/internal/infrastructure/s3"
	"github.com/tanveenambrose/EcoMoney/internal/infrastructure/smtp"
	"github.com/tanveenambrose/EcoMoney/internal/infrastructure/sns"
	transporthttp "github.com/tanveenambrose/EcoMoney/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, reading from environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		logger.Error("dynamodb client", "err", err)
		os.Exit(1)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	tokens, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		logger.Error("jwt provider", "err", err)
		os.Exit(1)
	}

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		logger.Error("s3 client", "err", err)
		os.Exit(1)
	}

	var mailer transporthttp.Mailer
	switch cfg.MailTransport {
	case config.MailTransportAMQP:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("amqp client", "err", err)
			os.Exit(1)
		}
		defer client.Close()
		mailer = client
	default:
		mailer = smtp.NewMailer(cfg)
	}

	var smsSender transporthttp.SMSSender
	if cfg.SMSAlertsEnabled {
		if sender, err := sns.NewSender(ctx, cfg); err == nil {
			smsSender = sender
		} else {
			logger.Warn("SNS sender not available, password alerts go out by email only", "err", err)
		}
	}

	deps := &transporthttp.Deps{
		AccountRepo: dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts),
		ObjectStore: s3infra.NewStore(s3Client, cfg),
		Mailer:      mailer,
		SMSSender:   smsSender,
		Tokens:      tokens,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "mail_transport", cfg.MailTransport)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "err", err)
	}
	logger.Info("server stopped")
}
