package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/eri-mobile-shop/internal/config"
	"github.com/example/eri-mobile-shop/internal/email"
	"github.com/example/eri-mobile-shop/internal/infrastructure/kafka"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/logging"
	"github.com/example/eri-mobile-shop/internal/notification"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Notifier] %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.Production())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Dedicated consumer group so every event reaches both projector and notifier
	group := cfg.Kafka.GroupOr("email-notifier")
	log.WithFields(log.Fields{
		"brokers": cfg.Kafka.Brokers,
		"topic":   cfg.Kafka.Topic,
		"group":   group,
		"smtp":    cfg.SMTP.Host + ":" + cfg.SMTP.Port,
		"from":    cfg.SMTP.From,
	}).Info("[Notifier] Starting email notification service")

	// Store name and currency come from the settings read model
	db, err := store.ConnectPostgres(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("[Notifier] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	emailSvc := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	handler := notification.NewHandler(emailSvc, store.NewPostgresReadStore(db))

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, group, "Notifier")
	defer consumer.Close()

	go func() {
		log.Println("[Notifier] Starting event consumer...")
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
			log.Printf("[Notifier] Consumer error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notifier] Shutting down...")
	cancel()
}
