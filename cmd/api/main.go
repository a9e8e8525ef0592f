package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/example/eri-mobile-shop/internal/api"
	"github.com/example/eri-mobile-shop/internal/auth"
	"github.com/example/eri-mobile-shop/internal/cartsession"
	"github.com/example/eri-mobile-shop/internal/command"
	"github.com/example/eri-mobile-shop/internal/config"
	"github.com/example/eri-mobile-shop/internal/domain/order"
	"github.com/example/eri-mobile-shop/internal/domain/product"
	"github.com/example/eri-mobile-shop/internal/domain/settings"
	"github.com/example/eri-mobile-shop/internal/domain/user"
	"github.com/example/eri-mobile-shop/internal/infrastructure/kafka"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/logging"
	"github.com/example/eri-mobile-shop/internal/projection"
	"github.com/example/eri-mobile-shop/internal/query"
	log "github.com/sirupsen/logrus"
)

// backend holds the stores selected by EVENT_STORE
type backend struct {
	eventStore store.EventStoreInterface
	readStore  store.ReadStoreInterface
	projector  *projection.Projector
	consumer   *kafka.Consumer
	closers    []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Printf("[API] Close error: %v", err)
		}
	}
}

func openPostgres(cfg *config.Config) (*sql.DB, error) {
	db, err := store.ConnectPostgres(cfg.Postgres.URL)
	if err != nil {
		return nil, err
	}
	if err := store.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("[API] Connected to PostgreSQL, schema up to date")
	return db, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{}

	switch cfg.EventStore {
	case config.EventStoreMemory:
		// events are projected synchronously, reads are immediately consistent
		readStore := store.NewReadStore()
		b.readStore = readStore
		b.projector = projection.NewProjector(readStore)
		b.eventStore = store.NewEventStore(b.projector)
		log.Println("[API] Event store: in-memory (synchronous projection)")
		return b, nil

	case config.EventStorePostgres:
		db, err := openPostgres(cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)

		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		b.closers = append(b.closers, producer.Close)

		eventStore := store.NewPostgresEventStore(db, producer)
		b.eventStore = eventStore
		b.readStore = store.NewPostgresReadStore(db)
		b.projector = projection.NewProjector(b.readStore)

		events, err := eventStore.GetAllEvents(ctx)
		if err != nil {
			b.Close()
			return nil, err
		}
		failed := b.projector.Replay(ctx, events)
		log.Printf("[API] Replayed %d events (%d failed) - read models rebuilt", len(events), failed)

		b.consumer = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, "api-projector", "API")
		b.closers = append(b.closers, b.consumer.Close)
		log.Printf("[API] Event store: PostgreSQL, publishing to Kafka %v topic %s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
		return b, nil

	case config.EventStoreDynamo:
		client, err := store.NewDynamoClient(ctx, cfg.Dynamo.Region, cfg.Dynamo.Endpoint)
		if err != nil {
			return nil, err
		}
		b.eventStore = store.NewDynamoEventStore(client, cfg.Dynamo.EventsTable, cfg.Dynamo.SnapshotTable)

		// read models are written by the Lambda projector off the table stream
		db, err := openPostgres(cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		b.readStore = store.NewPostgresReadStore(db)
		log.Printf("[API] Event store: DynamoDB table %s (%s)", cfg.Dynamo.EventsTable, cfg.Dynamo.Region)
		return b, nil
	}

	return nil, cfg.ValidateEventStore()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.Production())

	if err := cfg.ValidateJWT(); err != nil {
		log.Fatalf("[API] %v", err)
	}
	if err := cfg.ValidateEventStore(); err != nil {
		log.Fatalf("[API] %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("[API] ========================================")
	log.Println("[API] Eri Mobile Shop - CQRS Mode")
	log.Println("[API] ========================================")

	b, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("[API] Failed to open %s backend: %v", cfg.EventStore, err)
	}
	defer b.Close()

	// Domain services
	productSvc := product.NewService(b.eventStore)
	orderSvc := order.NewService(b.eventStore)
	settingsSvc := settings.NewService(b.eventStore)
	userSvc := user.NewService(b.eventStore)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenExpiry)

	cmdHandler := command.NewHandler(productSvc, orderSvc, settingsSvc, userSvc, b.readStore)
	queryHandler := query.NewHandler(b.readStore)
	carts := cartsession.NewRegistry(cfg.CartSessions, cfg.CartSessionTTL)

	var wg sync.WaitGroup
	if b.consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Println("[API] Starting Kafka consumer (async projection)...")
			if err := b.consumer.Consume(ctx, b.projector.HandleEvent); err != nil && ctx.Err() == nil {
				log.Printf("[API] Projector error: %v", err)
			}
		}()
	}

	router := api.NewRouter(api.RouterConfig{
		Handlers:         api.NewHandlers(cmdHandler, queryHandler, carts, cfg.CartSessionTTL, cfg.SecureCookies),
		AdminHandlers:    api.NewAdminHandlers(cmdHandler, queryHandler),
		AuthHandlers:     api.NewAuthHandlers(cmdHandler, queryHandler, userSvc, jwtService, cfg.SecureCookies),
		CategoryHandlers: api.NewCategoryHandlers(queryHandler),
		JWTService:       jwtService,
		AllowedOrigins:   cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}

	wg.Wait()
}
