package settings

import (
	"context"
	"testing"

	"github.com/example/eri-mobile-shop/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettingsService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	return NewService(eventStore), eventStore
}

func ptr[T any](v T) *T { return &v }

func TestService_Get_Defaults(t *testing.T) {
	service, _ := newTestSettingsService()

	s, err := service.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "EUR", s.Currency)
	assert.True(t, decimal.RequireFromString("0.08").Equal(s.TaxRate))
	assert.Zero(t, s.FreeShippingThreshold)
	assert.Zero(t, s.ShippingFlat)
	assert.Zero(t, s.Version)
}

func TestService_Update_Partial(t *testing.T) {
	service, eventStore := newTestSettingsService()
	ctx := context.Background()

	_, err := service.Update(ctx, Patch{StoreName: ptr("eri-mobile"), FreeShippingThreshold: ptr(10000)})
	require.NoError(t, err)

	s, err := service.Update(ctx, Patch{ShippingFlat: ptr(499), Currency: ptr("usd")})
	require.NoError(t, err)

	assert.Equal(t, "eri-mobile", s.StoreName)
	assert.Equal(t, 10000, s.FreeShippingThreshold)
	assert.Equal(t, 499, s.ShippingFlat)
	assert.Equal(t, "USD", s.Currency)
	assert.Equal(t, 2, s.Version)

	require.Len(t, eventStore.AppendCalls, 2)
	assert.Equal(t, ID, eventStore.AppendCalls[1].AggregateID)
	assert.Equal(t, EventSettingsUpdated, eventStore.AppendCalls[1].EventType)

	reloaded, err := service.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Settings.StoreName, reloaded.StoreName)
	assert.Equal(t, 499, reloaded.ShippingFlat)
}

func TestService_Update_Validation(t *testing.T) {
	tests := []struct {
		name    string
		patch   Patch
		wantErr error
	}{
		{"negative tax", Patch{TaxRate: ptr(decimal.RequireFromString("-0.01"))}, ErrInvalidTaxRate},
		{"tax of one", Patch{TaxRate: ptr(decimal.NewFromInt(1))}, ErrInvalidTaxRate},
		{"negative threshold", Patch{FreeShippingThreshold: ptr(-1)}, ErrInvalidThreshold},
		{"negative flat", Patch{ShippingFlat: ptr(-5)}, ErrInvalidShipping},
		{"bad currency", Patch{Currency: ptr("EURO")}, ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, eventStore := newTestSettingsService()

			_, err := service.Update(context.Background(), tt.patch)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, eventStore.AppendCalls)
		})
	}
}

func TestSettings_Policy(t *testing.T) {
	s := Settings{TaxRate: decimal.RequireFromString("0.2"), FreeShippingThreshold: 5000, ShippingFlat: 300}

	p := s.Policy()

	assert.True(t, decimal.RequireFromString("0.2").Equal(p.TaxRate))
	assert.Equal(t, 5000, p.FreeShippingThreshold)
	assert.Equal(t, 300, p.ShippingFlat)
}
