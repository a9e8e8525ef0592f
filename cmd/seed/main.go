// Command seed writes the first admin account, a product catalog and the
// store settings through the regular command handlers, so every change is
// recorded as an event and projected like any other write.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/example/eri-mobile-shop/internal/command"
	"github.com/example/eri-mobile-shop/internal/config"
	"github.com/example/eri-mobile-shop/internal/domain/order"
	"github.com/example/eri-mobile-shop/internal/domain/product"
	"github.com/example/eri-mobile-shop/internal/domain/settings"
	"github.com/example/eri-mobile-shop/internal/domain/user"
	"github.com/example/eri-mobile-shop/internal/infrastructure/kafka"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/logging"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var errMemoryStore = errors.New("seed needs a persistent EVENT_STORE (postgres or dynamo)")

// opener builds the command handler and a cleanup func
type opener func(ctx context.Context) (*command.Handler, func(), error)

func openFromConfig(ctx context.Context) (*command.Handler, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.Setup(cfg.LogLevel, cfg.Production())
	if err := cfg.ValidateEventStore(); err != nil {
		return nil, nil, err
	}
	if cfg.EventStore == config.EventStoreMemory {
		return nil, nil, errMemoryStore
	}

	db, err := store.ConnectPostgres(cfg.Postgres.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := store.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	closers := []func() error{db.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var eventStore store.EventStoreInterface
	if cfg.EventStore == config.EventStoreDynamo {
		client, err := store.NewDynamoClient(ctx, cfg.Dynamo.Region, cfg.Dynamo.Endpoint)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		eventStore = store.NewDynamoEventStore(client, cfg.Dynamo.EventsTable, cfg.Dynamo.SnapshotTable)
	} else {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		closers = append(closers, producer.Close)
		eventStore = store.NewPostgresEventStore(db, producer)
	}

	h := command.NewHandler(
		product.NewService(eventStore),
		order.NewService(eventStore),
		settings.NewService(eventStore),
		user.NewService(eventStore),
		store.NewPostgresReadStore(db),
	)
	return h, cleanup, nil
}

// withHandler opens the handler for the duration of one subcommand
func withHandler(open opener, fn func(c *cli.Context, h *command.Handler) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		h, cleanup, err := open(c.Context)
		if err != nil {
			return err
		}
		defer cleanup()
		return fn(c, h)
	}
}

// readCatalog decodes a JSON array of products
func readCatalog(r io.Reader) ([]command.CreateProduct, error) {
	var products []command.CreateProduct
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&products); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return products, nil
}

func seedAdmin(c *cli.Context, h *command.Handler) error {
	u, err := h.RegisterAdmin(c.Context, command.RegisterAdmin{
		Email:    c.String("email"),
		Password: c.String("password"),
		Name:     c.String("name"),
	})
	if errors.Is(err, command.ErrEmailTaken) {
		log.Printf("[Seed] Admin %s already exists", c.String("email"))
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("[Seed] Created admin %s (%s)", u.Email, u.ID)
	return nil
}

func seedCatalog(c *cli.Context, h *command.Handler) error {
	f, err := os.Open(c.String("file"))
	if err != nil {
		return err
	}
	defer f.Close()

	products, err := readCatalog(f)
	if err != nil {
		return err
	}

	created, skipped := 0, 0
	for _, p := range products {
		_, err := h.CreateProduct(c.Context, p)
		switch {
		case errors.Is(err, product.ErrProductExists):
			skipped++
		case err != nil:
			return fmt.Errorf("product %s: %w", p.ID, err)
		default:
			created++
		}
	}
	log.WithFields(log.Fields{"created": created, "skipped": skipped}).Info("[Seed] Catalog loaded")
	return nil
}

// settingsPatch holds only the flags given on the command line
func settingsPatch(c *cli.Context) (settings.Patch, error) {
	var p settings.Patch
	for _, f := range []struct {
		name string
		dst  **string
	}{
		{"store-name", &p.StoreName},
		{"store-email", &p.StoreEmail},
		{"store-phone", &p.StorePhone},
		{"store-address", &p.StoreAddress},
		{"currency", &p.Currency},
	} {
		if c.IsSet(f.name) {
			v := c.String(f.name)
			*f.dst = &v
		}
	}
	if c.IsSet("tax-rate") {
		rate, err := decimal.NewFromString(c.String("tax-rate"))
		if err != nil {
			return p, fmt.Errorf("invalid tax rate: %w", err)
		}
		p.TaxRate = &rate
	}
	if c.IsSet("free-shipping-threshold") {
		v := c.Int("free-shipping-threshold")
		p.FreeShippingThreshold = &v
	}
	if c.IsSet("shipping-flat") {
		v := c.Int("shipping-flat")
		p.ShippingFlat = &v
	}
	return p, nil
}

func seedSettings(c *cli.Context, h *command.Handler) error {
	patch, err := settingsPatch(c)
	if err != nil {
		return err
	}
	s, err := h.UpdateSettings(c.Context, command.UpdateSettings{Patch: patch})
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"store":    s.StoreName,
		"currency": s.Currency,
		"tax_rate": s.TaxRate.String(),
	}).Info("[Seed] Settings saved")
	return nil
}

func newApp(open opener) *cli.App {
	return &cli.App{
		Name:  "seed",
		Usage: "load initial data into the shop event store",
		Commands: []*cli.Command{
			{
				Name:  "admin",
				Usage: "create an admin account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, EnvVars: []string{"ADMIN_EMAIL"}},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
					&cli.StringFlag{Name: "name", Value: "Administrator"},
				},
				Action: withHandler(open, seedAdmin),
			},
			{
				Name:  "catalog",
				Usage: "create products from a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true},
				},
				Action: withHandler(open, seedCatalog),
			},
			{
				Name:  "settings",
				Usage: "update store settings; unset flags keep their value",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "store-name"},
					&cli.StringFlag{Name: "store-email"},
					&cli.StringFlag{Name: "store-phone"},
					&cli.StringFlag{Name: "store-address"},
					&cli.StringFlag{Name: "currency"},
					&cli.StringFlag{Name: "tax-rate", Usage: "decimal fraction, e.g. 0.08"},
					&cli.IntFlag{Name: "free-shipping-threshold", Usage: "minor units; 0 disables"},
					&cli.IntFlag{Name: "shipping-flat", Usage: "minor units"},
				},
				Action: withHandler(open, seedSettings),
			},
		},
	}
}

func main() {
	if err := newApp(openFromConfig).Run(os.Args); err != nil {
		log.Fatalf("[Seed] %v", err)
	}
}
