package notification

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/example/eri-mobile-shop/internal/domain/order"
	"github.com/example/eri-mobile-shop/internal/email"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/query"
	log "github.com/sirupsen/logrus"
)

// Sender delivers an order confirmation
type Sender interface {
	SendOrderConfirmation(to string, c email.Confirmation) error
}

// Handler processes events for sending notifications
type Handler struct {
	sender  Sender
	queries *query.Handler
}

// NewHandler creates a new notification handler. The read store is only
// used for the store name and currency.
func NewHandler(sender Sender, readStore store.ReadStoreInterface) *Handler {
	return &Handler{
		sender:  sender,
		queries: query.NewHandler(readStore),
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}
	return h.Apply(ctx, event)
}

// Apply sends a confirmation for OrderPlaced and ignores everything else
func (h *Handler) Apply(ctx context.Context, event store.Event) error {
	if event.EventType != order.EventOrderPlaced {
		return nil
	}

	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	to := strings.TrimSpace(e.Customer.Email)
	if to == "" {
		log.Printf("[Notifier] Order %s has no customer email, skipping", e.OrderID)
		return nil
	}

	c := email.Confirmation{
		OrderID:      e.OrderID,
		CustomerName: strings.TrimSpace(e.Customer.FirstName + " " + e.Customer.LastName),
		Subtotal:     e.Subtotal,
		Shipping:     e.Shipping,
		Tax:          e.Tax,
		Total:        e.Total,
	}
	for _, item := range e.Items {
		name := item.ProductName
		if name == "" {
			name = item.ProductID
		}
		c.Items = append(c.Items, email.Line{
			Name:      name,
			Color:     item.SelectedColor,
			Storage:   item.SelectedStorage,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	if s, err := h.queries.GetSettings(ctx); err != nil {
		log.Printf("[Notifier] Could not load settings, sending without store details: %v", err)
	} else {
		c.StoreName = s.StoreName
		c.Currency = s.Currency
	}

	log.Printf("[Notifier] Processing OrderPlaced event for order %s", e.OrderID)

	if err := h.sender.SendOrderConfirmation(to, c); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", to, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", to, e.OrderID)
	return nil
}
