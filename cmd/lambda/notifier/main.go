package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/eri-mobile-shop/internal/config"
	"github.com/example/eri-mobile-shop/internal/email"
	"github.com/example/eri-mobile-shop/internal/infrastructure/kinesis"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/logging"
	"github.com/example/eri-mobile-shop/internal/notification"
	log "github.com/sirupsen/logrus"
)

var notificationHandler *notification.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Lambda Notifier] %v", err)
	}
	logging.Setup(cfg.LogLevel, true)

	db, err := store.ConnectPostgres(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("[Lambda Notifier] Failed to connect to PostgreSQL: %v", err)
	}

	emailSvc := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	notificationHandler = notification.NewHandler(emailSvc, store.NewPostgresReadStore(db))

	log.Printf("[Lambda Notifier] Initialized successfully (SMTP: %s:%s)", cfg.SMTP.Host, cfg.SMTP.Port)
}

func handler(ctx context.Context, batch events.KinesisEvent) (events.KinesisEventResponse, error) {
	log.Printf("[Lambda Notifier] Received %d records", len(batch.Records))
	return kinesis.Handle(ctx, batch, notificationHandler.Apply), nil
}

func main() {
	lambda.Start(handler)
}
