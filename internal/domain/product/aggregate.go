package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/eri-mobile-shop/internal/domain/aggregate"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	log "github.com/sirupsen/logrus"
)

const AggregateType = "Product"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrProductExists    = errors.New("product already exists")
	ErrInvalidID        = errors.New("product id is required and must not contain spaces")
	ErrInvalidName      = errors.New("name is required")
	ErrInvalidPrice     = errors.New("variant price must be positive")
	ErrInvalidStock     = errors.New("variant stock must not be negative")
	ErrDuplicateVariant = errors.New("duplicate color and storage combination")
)

type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Variant is a purchasable color+storage combination with its own price and stock
type Variant struct {
	Color         string `json:"color"`
	ColorHex      string `json:"color_hex"`
	Image         string `json:"image"`
	Storage       string `json:"storage"`
	Price         int    `json:"price"`
	OriginalPrice int    `json:"original_price,omitempty"`
	Stock         int    `json:"stock"`
	InStock       bool   `json:"in_stock"`
}

// Details is the admin-editable content of a product
type Details struct {
	Name        string    `json:"name"`
	Subtitle    string    `json:"subtitle"`
	Image       string    `json:"image"`
	Badge       string    `json:"badge,omitempty"`
	Rating      float64   `json:"rating"`
	Reviews     int       `json:"reviews"`
	Specs       []Spec    `json:"specs"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Variants    []Variant `json:"variants"`
}

// Validate checks the details before they are recorded
func (d Details) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrInvalidName
	}
	seen := make(map[[2]string]bool, len(d.Variants))
	for _, v := range d.Variants {
		if v.Price <= 0 {
			return fmt.Errorf("%w: %s %s", ErrInvalidPrice, v.Color, v.Storage)
		}
		if v.Stock < 0 {
			return fmt.Errorf("%w: %s %s", ErrInvalidStock, v.Color, v.Storage)
		}
		key := [2]string{v.Color, v.Storage}
		if seen[key] {
			return fmt.Errorf("%w: %s %s", ErrDuplicateVariant, v.Color, v.Storage)
		}
		seen[key] = true
	}
	return nil
}

type Product struct {
	ID string `json:"id"`
	Details
	IsDeleted bool      `json:"is_deleted,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Aggregate interface implementation
func (p *Product) GetID() string   { return p.ID }
func (p *Product) GetVersion() int { return p.Version }

// ApplyEvent applies a single event to the product state
func (p *Product) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductCreated:
		var data ProductCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.ID = data.ProductID
		p.Details = data.Details
		p.IsDeleted = false
		p.CreatedAt = data.CreatedAt
		p.UpdatedAt = data.CreatedAt
	case EventProductUpdated:
		var data ProductUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Details = data.Details
		p.UpdatedAt = data.UpdatedAt
	case EventProductDeleted:
		var data ProductDeleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.IsDeleted = true
		p.UpdatedAt = data.DeletedAt
	}
	p.Version = event.Version
	return nil
}

// FindVariant matches a selected color and storage to a variant
func FindVariant(variants []Variant, color, storage string) (Variant, bool) {
	for _, v := range variants {
		if v.Color == color && v.Storage == storage {
			return v, true
		}
	}
	return Variant{}, false
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) load(ctx context.Context, productID string) (*Product, bool, error) {
	return aggregate.LoadAggregate(ctx, s.eventStore, productID, func() *Product {
		return &Product{}
	})
}

// loadExisting loads a product that exists and is not deleted
func (s *Service) loadExisting(ctx context.Context, productID string) (*Product, error) {
	p, found, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !found || p.IsDeleted {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// Create records a new product under an admin-chosen id.
// A deleted product's id may be reused.
func (s *Service) Create(ctx context.Context, productID string, d Details) (*Product, error) {
	if productID == "" || strings.ContainsAny(productID, " \t\n/") {
		return nil, ErrInvalidID
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	existing, found, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	if found && !existing.IsDeleted {
		return nil, ErrProductExists
	}

	now := time.Now()
	stored, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductCreated, ProductCreated{
		ProductID: productID,
		Details:   d,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	p := &Product{
		ID:        productID,
		Details:   d,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   stored.Version,
	}
	s.snapshot(ctx, p)
	return p, nil
}

// Update replaces the product details
func (s *Service) Update(ctx context.Context, productID string, d Details) (*Product, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	p, err := s.loadExisting(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stored, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductUpdated, ProductUpdated{
		ProductID: productID,
		Details:   d,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	p.Details = d
	p.UpdatedAt = now
	p.Version = stored.Version
	s.snapshot(ctx, p)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, productID string) error {
	p, err := s.loadExisting(ctx, productID)
	if err != nil {
		return err
	}

	stored, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductDeleted, ProductDeleted{
		ProductID: productID,
		DeletedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	p.IsDeleted = true
	p.Version = stored.Version
	s.snapshot(ctx, p)
	return nil
}

func (s *Service) snapshot(ctx context.Context, p *Product) {
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, p, AggregateType); err != nil {
		log.Printf("[Product] Failed to create snapshot for product %s: %v", p.ID, err)
	}
}
