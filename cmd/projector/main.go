package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/eri-mobile-shop/internal/config"
	"github.com/example/eri-mobile-shop/internal/infrastructure/kafka"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/logging"
	"github.com/example/eri-mobile-shop/internal/projection"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Projector] %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.Production())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group := cfg.Kafka.GroupOr("projector")
	log.WithFields(log.Fields{
		"brokers": cfg.Kafka.Brokers,
		"topic":   cfg.Kafka.Topic,
		"group":   group,
	}).Info("[Projector] Starting CQRS projector")

	db, err := store.ConnectPostgres(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("[Projector] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	if err := store.RunMigrations(db); err != nil {
		log.Fatalf("[Projector] %v", err)
	}
	log.Println("[Projector] Connected to PostgreSQL (Read DB)")

	projector := projection.NewProjector(store.NewPostgresReadStore(db))

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, group, "Projector")
	defer consumer.Close()

	go func() {
		log.Println("[Projector] Starting event consumer...")
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
			log.Printf("[Projector] Consumer error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Projector] Shutting down...")
	cancel()
}
