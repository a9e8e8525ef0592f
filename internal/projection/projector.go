package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/eri-mobile-shop/internal/domain/order"
	"github.com/example/eri-mobile-shop/internal/domain/product"
	"github.com/example/eri-mobile-shop/internal/domain/settings"
	"github.com/example/eri-mobile-shop/internal/domain/user"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/readmodel"
	log "github.com/sirupsen/logrus"
)

type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

// HandleEvent decodes a JSON store event and applies it to the read models.
// Its signature matches the kafka and kinesis consumer handlers.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	return p.Apply(ctx, event)
}

// Apply projects a single event
func (p *Projector) Apply(ctx context.Context, event store.Event) error {
	log.Debugf("[Projector] Received event: %s (aggregate: %s)", event.EventType, event.AggregateType)

	switch event.AggregateType {
	case product.AggregateType:
		return p.handleProductEvent(ctx, event)
	case order.AggregateType:
		return p.handleOrderEvent(ctx, event)
	case user.AggregateType:
		return p.handleUserEvent(ctx, event)
	case settings.AggregateType:
		return p.handleSettingsEvent(ctx, event)
	}

	return nil
}

// Publish lets the projector stand in for the message bus when the whole
// stack runs in one process.
func (p *Projector) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.HandleEvent(ctx, []byte(key), data)
}

// Replay rebuilds read models from the full event history
func (p *Projector) Replay(ctx context.Context, events []store.Event) int {
	failed := 0
	for _, event := range events {
		if err := p.Apply(ctx, event); err != nil {
			failed++
			log.Printf("[Projector] Error replaying event %s: %v", event.ID, err)
		}
	}
	return failed
}

func productReadModel(id string, d product.Details) *readmodel.ProductReadModel {
	specs := make([]readmodel.SpecReadModel, 0, len(d.Specs))
	for _, s := range d.Specs {
		specs = append(specs, readmodel.SpecReadModel{Label: s.Label, Value: s.Value})
	}
	variants := make([]readmodel.VariantReadModel, 0, len(d.Variants))
	for _, v := range d.Variants {
		variants = append(variants, readmodel.VariantReadModel{
			Color:         v.Color,
			ColorHex:      v.ColorHex,
			Image:         v.Image,
			Storage:       v.Storage,
			Price:         v.Price,
			OriginalPrice: v.OriginalPrice,
			Stock:         v.Stock,
			InStock:       v.InStock,
		})
	}
	return &readmodel.ProductReadModel{
		ID:          id,
		Name:        d.Name,
		Subtitle:    d.Subtitle,
		Image:       d.Image,
		Badge:       d.Badge,
		Rating:      d.Rating,
		Reviews:     d.Reviews,
		Specs:       specs,
		Description: d.Description,
		Category:    d.Category,
		Variants:    variants,
	}
}

func (p *Projector) handleProductEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case product.EventProductCreated:
		var e product.ProductCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		m := productReadModel(e.ProductID, e.Details)
		m.CreatedAt = e.CreatedAt
		m.UpdatedAt = e.CreatedAt
		return p.readStore.Set(ctx, readmodel.CollectionProducts, e.ProductID, m)

	case product.EventProductUpdated:
		var e product.ProductUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		found, err := p.readStore.Update(ctx, readmodel.CollectionProducts, e.ProductID, func(current any) any {
			prev := current.(*readmodel.ProductReadModel)
			m := productReadModel(e.ProductID, e.Details)
			m.CreatedAt = prev.CreatedAt
			m.UpdatedAt = e.UpdatedAt
			return m
		})
		if err == nil && !found {
			log.Printf("[Projector] Product %s updated before it was projected", e.ProductID)
		}
		return err

	case product.EventProductDeleted:
		var e product.ProductDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Delete(ctx, readmodel.CollectionProducts, e.ProductID)
	}

	return nil
}

func (p *Projector) handleOrderEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case order.EventOrderPlaced:
		var e order.OrderPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		items := make([]readmodel.OrderItemReadModel, 0, len(e.Items))
		for _, item := range e.Items {
			items = append(items, readmodel.OrderItemReadModel{
				ProductID:       item.ProductID,
				ProductName:     item.ProductName,
				Image:           item.Image,
				SelectedColor:   item.SelectedColor,
				SelectedStorage: item.SelectedStorage,
				Price:           item.Price,
				Quantity:        item.Quantity,
			})
		}
		return p.readStore.Set(ctx, readmodel.CollectionOrders, e.OrderID, &readmodel.OrderReadModel{
			ID:    e.OrderID,
			Items: items,
			Customer: readmodel.CustomerReadModel{
				FirstName: e.Customer.FirstName,
				LastName:  e.Customer.LastName,
				Email:     e.Customer.Email,
				Address:   e.Customer.Address,
				City:      e.Customer.City,
				State:     e.Customer.State,
				ZipCode:   e.Customer.ZipCode,
			},
			Status:    string(order.StatusPending),
			Subtotal:  e.Subtotal,
			Shipping:  e.Shipping,
			Tax:       e.Tax,
			Total:     e.Total,
			CreatedAt: e.PlacedAt,
			UpdatedAt: e.PlacedAt,
		})

	case order.EventOrderStatusChanged:
		var e order.OrderStatusChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(ctx, readmodel.CollectionOrders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Status = string(e.To)
			o.UpdatedAt = e.ChangedAt
			return o
		})
		return err

	case order.EventOrderDeleted:
		var e order.OrderDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Delete(ctx, readmodel.CollectionOrders, e.OrderID)
	}

	return nil
}

func (p *Projector) handleUserEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case user.EventUserCreated:
		var e user.UserCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Set(ctx, readmodel.CollectionUsers, e.UserID, &readmodel.UserReadModel{
			ID:           e.UserID,
			Email:        e.Email,
			PasswordHash: e.PasswordHash,
			Name:         e.Name,
			Role:         e.Role,
			IsActive:     true,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.CreatedAt,
		})

	case user.EventUserPasswordChanged:
		var e user.UserPasswordChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(ctx, readmodel.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.PasswordHash = e.PasswordHash
			u.UpdatedAt = e.ChangedAt
			return u
		})
		return err
	}

	// login and logout are audit-only
	return nil
}

func (p *Projector) handleSettingsEvent(ctx context.Context, event store.Event) error {
	if event.EventType != settings.EventSettingsUpdated {
		return nil
	}

	var e settings.SettingsUpdated
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	return p.readStore.Set(ctx, readmodel.CollectionSettings, readmodel.SettingsID, &readmodel.SettingsReadModel{
		ID:                    readmodel.SettingsID,
		StoreName:             e.StoreName,
		StoreEmail:            e.StoreEmail,
		StorePhone:            e.StorePhone,
		StoreAddress:          e.StoreAddress,
		Currency:              e.Currency,
		TaxRate:               e.TaxRate,
		FreeShippingThreshold: e.FreeShippingThreshold,
		ShippingFlat:          e.ShippingFlat,
		UpdatedAt:             e.UpdatedAt,
	})
}
