package settings

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/example/eri-mobile-shop/internal/domain/aggregate"
	"github.com/example/eri-mobile-shop/internal/domain/pricing"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/readmodel"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const AggregateType = "Settings"

// ID is the aggregate id of the single store settings instance
const ID = readmodel.SettingsID

var (
	ErrInvalidTaxRate   = errors.New("tax rate must be at least 0 and below 1")
	ErrInvalidThreshold = errors.New("free shipping threshold must not be negative")
	ErrInvalidShipping  = errors.New("shipping rate must not be negative")
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter code")
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

type Settings struct {
	StoreName             string          `json:"store_name"`
	StoreEmail            string          `json:"store_email"`
	StorePhone            string          `json:"store_phone"`
	StoreAddress          string          `json:"store_address"`
	Currency              string          `json:"currency"`
	TaxRate               decimal.Decimal `json:"tax_rate"`
	FreeShippingThreshold int             `json:"free_shipping_threshold"`
	ShippingFlat          int             `json:"shipping_flat"`
}

// Defaults are used until settings are first saved
func Defaults() Settings {
	return Settings{
		Currency: "EUR",
		TaxRate:  decimal.RequireFromString("0.08"),
	}
}

// Policy converts the settings into pricing inputs
func (s Settings) Policy() pricing.Policy {
	return pricing.Policy{
		TaxRate:               s.TaxRate,
		FreeShippingThreshold: s.FreeShippingThreshold,
		ShippingFlat:          s.ShippingFlat,
	}
}

func (s Settings) Validate() error {
	if s.TaxRate.IsNegative() || s.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return ErrInvalidTaxRate
	}
	if s.FreeShippingThreshold < 0 {
		return ErrInvalidThreshold
	}
	if s.ShippingFlat < 0 {
		return ErrInvalidShipping
	}
	if !currencyPattern.MatchString(s.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

// Patch is a partial update; nil fields keep their current value
type Patch struct {
	StoreName             *string          `json:"store_name,omitempty"`
	StoreEmail            *string          `json:"store_email,omitempty"`
	StorePhone            *string          `json:"store_phone,omitempty"`
	StoreAddress          *string          `json:"store_address,omitempty"`
	Currency              *string          `json:"currency,omitempty"`
	TaxRate               *decimal.Decimal `json:"tax_rate,omitempty"`
	FreeShippingThreshold *int             `json:"free_shipping_threshold,omitempty"`
	ShippingFlat          *int             `json:"shipping_flat,omitempty"`
}

// Apply returns s with the patch applied
func (p Patch) Apply(s Settings) Settings {
	if p.StoreName != nil {
		s.StoreName = *p.StoreName
	}
	if p.StoreEmail != nil {
		s.StoreEmail = *p.StoreEmail
	}
	if p.StorePhone != nil {
		s.StorePhone = *p.StorePhone
	}
	if p.StoreAddress != nil {
		s.StoreAddress = *p.StoreAddress
	}
	if p.Currency != nil {
		s.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
	}
	if p.TaxRate != nil {
		s.TaxRate = *p.TaxRate
	}
	if p.FreeShippingThreshold != nil {
		s.FreeShippingThreshold = *p.FreeShippingThreshold
	}
	if p.ShippingFlat != nil {
		s.ShippingFlat = *p.ShippingFlat
	}
	return s
}

// Aggregate wraps Settings with its event version
type Aggregate struct {
	Settings
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

func (a *Aggregate) GetID() string   { return ID }
func (a *Aggregate) GetVersion() int { return a.Version }

func (a *Aggregate) ApplyEvent(event store.Event) error {
	if event.EventType == EventSettingsUpdated {
		var data SettingsUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.Settings = data.Settings
		a.UpdatedAt = data.UpdatedAt
	}
	a.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Get returns the stored settings, or Defaults when none were saved
func (s *Service) Get(ctx context.Context) (*Aggregate, error) {
	agg, _, err := aggregate.LoadAggregate(ctx, s.eventStore, ID, func() *Aggregate {
		return &Aggregate{Settings: Defaults()}
	})
	return agg, err
}

// Update applies a partial update and records the resulting settings
func (s *Service) Update(ctx context.Context, patch Patch) (*Aggregate, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	next := patch.Apply(current.Settings)
	if err := next.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	stored, err := s.eventStore.Append(ctx, ID, AggregateType, EventSettingsUpdated, SettingsUpdated{
		Settings:  next,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	agg := &Aggregate{Settings: next, UpdatedAt: now, Version: stored.Version}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, agg, AggregateType); err != nil {
		log.Printf("[Settings] Failed to create snapshot: %v", err)
	}
	return agg, nil
}
