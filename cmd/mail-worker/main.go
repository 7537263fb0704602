package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tanveenambrose/EcoMoney/internal/config"
	"github.com/tanveenambrose/EcoMoney/internal/infrastructure/amqp"
	"github.com/tanveenambrose/EcoMoney/internal/infrastructure/smtp"
)

// mail-worker drains the outbound mail queue filled by the API when
// MAIL_TRANSPORT=amqp and delivers each message over SMTP.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("amqp client", "err", err)
		os.Exit(1)
	}
	defer client.Close()

	mailer := smtp.NewMailer(cfg)
	deliver := func(ctx context.Context, m *amqp.MailMessage) error {
		if err := mailer.SendEmail(ctx, m.To, m.Subject, m.Body); err != nil {
			return err
		}
		logger.Info("mail delivered", "to", m.To, "subject", m.Subject)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := client.ConsumeMail(ctx, deliver); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("mail consumption failed", "err", err)
		}
		cancel()
	}()

	logger.Info("mail worker started", "queue", cfg.AMQPQueue)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}
	logger.Info("mail worker stopped")
}
