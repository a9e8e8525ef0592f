package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/eri-mobile-shop/internal/config"
	"github.com/example/eri-mobile-shop/internal/infrastructure/kinesis"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/logging"
	"github.com/example/eri-mobile-shop/internal/projection"
	log "github.com/sirupsen/logrus"
)

var projector *projection.Projector

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Lambda Projector] %v", err)
	}
	logging.Setup(cfg.LogLevel, true)

	db, err := store.ConnectPostgres(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("[Lambda Projector] Failed to connect to PostgreSQL: %v", err)
	}

	projector = projection.NewProjector(store.NewPostgresReadStore(db))
	log.Println("[Lambda Projector] Initialized successfully")
}

// handler projects each DynamoDB change record; failed records are
// reported back so only they are retried
func handler(ctx context.Context, batch events.KinesisEvent) (events.KinesisEventResponse, error) {
	log.Printf("[Lambda Projector] Received %d records", len(batch.Records))
	return kinesis.Handle(ctx, batch, projector.Apply), nil
}

func main() {
	lambda.Start(handler)
}
