package projection

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/eri-mobile-shop/internal/domain/order"
	"github.com/example/eri-mobile-shop/internal/domain/product"
	"github.com/example/eri-mobile-shop/internal/domain/settings"
	"github.com/example/eri-mobile-shop/internal/domain/user"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store/mocks"
	"github.com/example/eri-mobile-shop/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjector() (*Projector, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	projector := NewProjector(readStore)
	return projector, readStore
}

func makeEvent(aggregateType, eventType string, data any) []byte {
	jsonData, _ := json.Marshal(data)
	event := store.Event{
		ID:            "event-123",
		AggregateID:   "agg-123",
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
	}
	result, _ := json.Marshal(event)
	return result
}

// ============================================
// Product Event Tests
// ============================================

func TestProjector_ProductLifecycle(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(product.AggregateType, product.EventProductCreated, product.ProductCreated{
		ProductID: "phone-one",
		Details: product.Details{
			Name:     "Phone One",
			Category: "Smartphones",
			Specs:    []product.Spec{{Label: "Chip", Value: "A1"}},
			Variants: []product.Variant{{Color: "Black", Storage: "256GB", Price: 999, OriginalPrice: 1099, Stock: 4, InStock: true}},
		},
		CreatedAt: created,
	})))

	data, ok := readStore.GetData(readmodel.CollectionProducts, "phone-one")
	require.True(t, ok)
	p := data.(*readmodel.ProductReadModel)
	assert.Equal(t, "Phone One", p.Name)
	assert.Equal(t, []readmodel.SpecReadModel{{Label: "Chip", Value: "A1"}}, p.Specs)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, 1099, p.Variants[0].OriginalPrice)
	assert.True(t, p.CreatedAt.Equal(created))

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(product.AggregateType, product.EventProductUpdated, product.ProductUpdated{
		ProductID: "phone-one",
		Details:   product.Details{Name: "Phone One Pro", Category: "Smartphones"},
		UpdatedAt: created.Add(time.Hour),
	})))

	data, _ = readStore.GetData(readmodel.CollectionProducts, "phone-one")
	p = data.(*readmodel.ProductReadModel)
	assert.Equal(t, "Phone One Pro", p.Name)
	assert.Empty(t, p.Variants)
	assert.True(t, p.CreatedAt.Equal(created), "created_at survives updates")

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(product.AggregateType, product.EventProductDeleted, product.ProductDeleted{ProductID: "phone-one"})))

	_, ok = readStore.GetData(readmodel.CollectionProducts, "phone-one")
	assert.False(t, ok)
}

// ============================================
// Order Event Tests
// ============================================

func TestProjector_OrderPlacedAndStatusChanged(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{
		OrderID:  "ORD-ABCDEF12",
		Items:    []order.OrderItem{{ProductID: "p1", ProductName: "Phone", SelectedColor: "Black", SelectedStorage: "256GB", Price: 999, Quantity: 2}},
		Customer: order.Customer{FirstName: "Ada", Email: "ada@example.com"},
		Subtotal: 1998,
		Tax:      160,
		Total:    2158,
		PlacedAt: time.Now(),
	})))

	data, ok := readStore.GetData(readmodel.CollectionOrders, "ORD-ABCDEF12")
	require.True(t, ok)
	o := data.(*readmodel.OrderReadModel)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, 2158, o.Total)
	assert.Equal(t, "ada@example.com", o.Customer.Email)
	assert.Equal(t, "256GB", o.Items[0].SelectedStorage)

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(order.AggregateType, order.EventOrderStatusChanged, order.OrderStatusChanged{
		OrderID: "ORD-ABCDEF12",
		From:    order.StatusPending,
		To:      order.StatusConfirmed,
	})))

	data, _ = readStore.GetData(readmodel.CollectionOrders, "ORD-ABCDEF12")
	assert.Equal(t, "confirmed", data.(*readmodel.OrderReadModel).Status)
	assert.Equal(t, 2158, data.(*readmodel.OrderReadModel).Total)

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(order.AggregateType, order.EventOrderDeleted, order.OrderDeleted{OrderID: "ORD-ABCDEF12"})))
	_, ok = readStore.GetData(readmodel.CollectionOrders, "ORD-ABCDEF12")
	assert.False(t, ok)
}

// ============================================
// User / Settings Event Tests
// ============================================

func TestProjector_UserEvents(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(user.AggregateType, user.EventUserCreated, user.UserCreated{
		UserID: "u1", Email: "admin@example.com", PasswordHash: "hash-1", Role: "admin",
	})))
	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(user.AggregateType, user.EventUserPasswordChanged, user.UserPasswordChanged{
		UserID: "u1", PasswordHash: "hash-2",
	})))
	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent(user.AggregateType, user.EventUserLoggedIn, user.UserLoggedIn{UserID: "u1"})))

	data, ok := readStore.GetData(readmodel.CollectionUsers, "u1")
	require.True(t, ok)
	u := data.(*readmodel.UserReadModel)
	assert.Equal(t, "hash-2", u.PasswordHash)
	assert.True(t, u.IsActive)
}

func TestProjector_SettingsUpdated(t *testing.T) {
	projector, readStore := newTestProjector()

	require.NoError(t, projector.HandleEvent(context.Background(), nil, makeEvent(settings.AggregateType, settings.EventSettingsUpdated, settings.SettingsUpdated{
		Settings: settings.Settings{Currency: "USD", TaxRate: decimal.RequireFromString("0.0725"), ShippingFlat: 499},
	})))

	data, ok := readStore.GetData(readmodel.CollectionSettings, readmodel.SettingsID)
	require.True(t, ok)
	s := data.(*readmodel.SettingsReadModel)
	assert.Equal(t, "USD", s.Currency)
	assert.True(t, decimal.RequireFromString("0.0725").Equal(s.TaxRate))
	assert.Equal(t, 499, s.ShippingFlat)
}

// ============================================
// Error / Replay Tests
// ============================================

func TestProjector_InvalidJSON(t *testing.T) {
	projector, _ := newTestProjector()

	err := projector.HandleEvent(context.Background(), nil, []byte("{not json"))

	assert.Error(t, err)
}

func TestProjector_UnknownAggregateIgnored(t *testing.T) {
	projector, readStore := newTestProjector()

	err := projector.HandleEvent(context.Background(), nil, makeEvent("Cart", "ItemAdded", map[string]string{}))

	assert.NoError(t, err)
	assert.Empty(t, readStore.SetCalls)
}

func TestProjector_ReadStoreErrorPropagates(t *testing.T) {
	projector, readStore := newTestProjector()
	readStore.Err = errors.New("read db down")

	err := projector.HandleEvent(context.Background(), nil, makeEvent(user.AggregateType, user.EventUserCreated, user.UserCreated{UserID: "u1"}))

	assert.Error(t, err)
}

func TestProjector_PublishAndReplay(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()
	es := store.NewEventStore(projector)

	_, err := es.Append(ctx, "u1", user.AggregateType, user.EventUserCreated, user.UserCreated{UserID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	_, ok := readStore.GetData(readmodel.CollectionUsers, "u1")
	assert.True(t, ok, "in-process publish projects synchronously")

	fresh, freshStore := newTestProjector()
	events, err := es.GetAllEvents(ctx)
	require.NoError(t, err)
	assert.Zero(t, fresh.Replay(ctx, events))
	_, ok = freshStore.GetData(readmodel.CollectionUsers, "u1")
	assert.True(t, ok)
}
