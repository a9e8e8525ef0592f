package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/example/eri-mobile-shop/internal/domain/aggregate"
	"github.com/example/eri-mobile-shop/internal/domain/pricing"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const AggregateType = "Order"

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in lifecycle order
var Statuses = []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrEmptyOrder     = errors.New("order must have at least one item")
	ErrUnknownStatus  = errors.New("unknown order status")
	ErrInvalidStatus  = errors.New("invalid order status transition")
	ErrOrderCancelled = errors.New("order is already cancelled")
	ErrOrderDelivered = errors.New("order is already delivered")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {}, // terminal state
	StatusCancelled:  {}, // terminal state
}

// ParseStatus validates a status name
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validTransitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	return slices.Contains(validTransitions[o.Status], target)
}

// transitionError returns an appropriate error for an invalid transition
func (o *Order) transitionError(target Status) error {
	switch o.Status {
	case StatusCancelled:
		return fmt.Errorf("%w: %w", ErrInvalidStatus, ErrOrderCancelled)
	case StatusDelivered:
		return fmt.Errorf("%w: %w", ErrInvalidStatus, ErrOrderDelivered)
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
	}
}

// NewOrderID returns an id of the form ORD-XXXXXXXX
func NewOrderID() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

type Order struct {
	ID        string      `json:"id"`
	Items     []OrderItem `json:"items"`
	Customer  Customer    `json:"customer"`
	Status    Status      `json:"status"`
	Subtotal  int         `json:"subtotal"`
	Shipping  int         `json:"shipping"`
	Tax       int         `json:"tax"`
	Total     int         `json:"total"`
	IsDeleted bool        `json:"is_deleted,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Version   int         `json:"version"` // Current event version
}

// Aggregate interface implementation
func (o *Order) GetID() string   { return o.ID }
func (o *Order) GetVersion() int { return o.Version }

// Totals returns the amounts fixed at placement
func (o *Order) Totals() pricing.Totals {
	return pricing.Totals{Subtotal: o.Subtotal, Shipping: o.Shipping, Tax: o.Tax, Total: o.Total}
}

// ApplyEvent applies a single event to the order state (implements aggregate.Aggregate)
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.Items = data.Items
		o.Customer = data.Customer
		o.Subtotal = data.Subtotal
		o.Shipping = data.Shipping
		o.Tax = data.Tax
		o.Total = data.Total
		o.Status = StatusPending
		o.CreatedAt = data.PlacedAt
		o.UpdatedAt = data.PlacedAt
	case EventOrderStatusChanged:
		var data OrderStatusChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = data.To
		o.UpdatedAt = data.ChangedAt
	case EventOrderDeleted:
		var data OrderDeleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.IsDeleted = true
		o.UpdatedAt = data.DeletedAt
	}
	o.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// loadOrder loads an order by replaying events, using snapshot if available
func (s *Service) loadOrder(ctx context.Context, orderID string) (*Order, error) {
	order, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order {
		return &Order{}
	})
	if err != nil {
		return nil, err
	}
	if !found || order.IsDeleted {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Get returns the current state of an order from its events
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.loadOrder(ctx, orderID)
}

// Place records a new order with totals computed by the caller.
// It performs exactly one event append.
func (s *Service) Place(ctx context.Context, items []OrderItem, customer Customer, totals pricing.Totals) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	orderID := NewOrderID()
	now := time.Now()

	event := OrderPlaced{
		OrderID:  orderID,
		Items:    items,
		Customer: customer,
		Subtotal: totals.Subtotal,
		Shipping: totals.Shipping,
		Tax:      totals.Tax,
		Total:    totals.Total,
		PlacedAt: now,
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderPlaced, event)
	if err != nil {
		return nil, err
	}

	log.Printf("[Order] Placed order %s for %s: %d items, total %d", orderID, customer.Email, len(items), totals.Total)

	return &Order{
		ID:        orderID,
		Items:     items,
		Customer:  customer,
		Status:    StatusPending,
		Subtotal:  totals.Subtotal,
		Shipping:  totals.Shipping,
		Tax:       totals.Tax,
		Total:     totals.Total,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   storedEvent.Version,
	}, nil
}

// ChangeStatus moves the order along its lifecycle
func (s *Service) ChangeStatus(ctx context.Context, orderID string, target Status) (*Order, error) {
	if _, ok := validTransitions[target]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanTransitionTo(target) {
		return nil, order.transitionError(target)
	}

	now := time.Now()
	event := OrderStatusChanged{
		OrderID:   orderID,
		From:      order.Status,
		To:        target,
		ChangedAt: now,
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderStatusChanged, event)
	if err != nil {
		return nil, err
	}

	// Update order for snapshot check
	order.Status = target
	order.UpdatedAt = now
	order.Version = storedEvent.Version

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, order, AggregateType); err != nil {
		log.Printf("[Order] Failed to create snapshot for order %s: %v", order.ID, err)
	}

	return order, nil
}

// Delete removes an order from the admin views
func (s *Service) Delete(ctx context.Context, orderID string) error {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderDeleted, OrderDeleted{
		OrderID:   orderID,
		DeletedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	order.IsDeleted = true
	order.Version = storedEvent.Version
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, order, AggregateType); err != nil {
		log.Printf("[Order] Failed to create snapshot for order %s: %v", order.ID, err)
	}
	return nil
}
