package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/eri-mobile-shop/internal/domain/order"
	"github.com/example/eri-mobile-shop/internal/domain/product"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store/mocks"
	"github.com/example/eri-mobile-shop/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueryHandler() (*Handler, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	return NewHandler(readStore), readStore
}

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func seedProduct(rs *mocks.MockReadStore, id, category string, rating float64, age int, variants ...VariantReadModel) {
	rs.SetData(readmodel.CollectionProducts, id, &ProductReadModel{
		ID:        id,
		Name:      id,
		Category:  category,
		Rating:    rating,
		Variants:  variants,
		CreatedAt: base.Add(-time.Duration(age) * time.Hour),
	})
}

func variant(price, original, stock int) VariantReadModel {
	return VariantReadModel{Color: "Black", Storage: "128GB", Price: price, OriginalPrice: original, Stock: stock, InStock: stock > 0}
}

func seedCatalog(rs *mocks.MockReadStore) {
	seedProduct(rs, "phone-a", "Smartphones", 4.5, 1, variant(999, 0, 10), VariantReadModel{Color: "Blue", Price: 1199, Stock: 2})
	seedProduct(rs, "phone-b", "Smartphones", 4.9, 3, variant(699, 799, 3))
	seedProduct(rs, "case-a", "Accessories", 4.1, 2, variant(49, 0, 0))
}

func ids(products []*ProductReadModel) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

// ============================================
// Product Query Tests
// ============================================

func TestHandler_ListProducts_Sorting(t *testing.T) {
	handler, rs := newTestQueryHandler()
	seedCatalog(rs)
	ctx := context.Background()

	tests := []struct {
		sort string
		want []string
	}{
		{"", []string{"phone-a", "case-a", "phone-b"}},
		{SortFeatured, []string{"phone-a", "case-a", "phone-b"}},
		{SortNewest, []string{"phone-a", "case-a", "phone-b"}},
		{SortPriceLow, []string{"case-a", "phone-b", "phone-a"}},
		{SortPriceHigh, []string{"phone-a", "phone-b", "case-a"}},
		{SortRating, []string{"phone-b", "phone-a", "case-a"}},
	}

	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			products, err := handler.ListProducts(ctx, ProductFilter{Sort: tt.sort})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(products))
		})
	}
}

func TestHandler_ListProducts_CategoryFilter(t *testing.T) {
	handler, rs := newTestQueryHandler()
	seedCatalog(rs)

	products, err := handler.ListProducts(context.Background(), ProductFilter{Category: "smartphones"})
	require.NoError(t, err)
	assert.Equal(t, []string{"phone-a", "phone-b"}, ids(products))

	products, err = handler.ListProducts(context.Background(), ProductFilter{Category: "All"})
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestHandler_GetProduct(t *testing.T) {
	handler, rs := newTestQueryHandler()
	seedCatalog(rs)

	p, err := handler.GetProduct(context.Background(), "phone-b")
	require.NoError(t, err)
	assert.Equal(t, "phone-b", p.ID)

	_, err = handler.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestHandler_ReadStoreError(t *testing.T) {
	handler, rs := newTestQueryHandler()
	rs.Err = errors.New("connection refused")

	_, err := handler.ListProducts(context.Background(), ProductFilter{})
	assert.Error(t, err)
	_, err = handler.GetOrder(context.Background(), "ORD-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, order.ErrOrderNotFound)
}

func TestHandler_ListDeals(t *testing.T) {
	handler, rs := newTestQueryHandler()
	seedCatalog(rs)

	deals, err := handler.ListDeals(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"phone-b"}, ids(deals))
}

func TestHandler_ListCategories(t *testing.T) {
	handler, rs := newTestQueryHandler()
	seedCatalog(rs)

	categories, err := handler.ListCategories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []CategorySummary{
		{Name: "Accessories", ProductCount: 1, TotalStock: 0, AvgPrice: 49},
		{Name: "Smartphones", ProductCount: 2, TotalStock: 15, AvgPrice: 849},
	}, categories)
}

// ============================================
// Order / Settings / Dashboard Tests
// ============================================

func seedOrder(rs *mocks.MockReadStore, id string, status order.Status, total, age int) {
	rs.SetData(readmodel.CollectionOrders, id, &OrderReadModel{
		ID:        id,
		Status:    string(status),
		Total:     total,
		CreatedAt: base.Add(-time.Duration(age) * time.Minute),
	})
}

func TestHandler_ListOrders_NewestFirst(t *testing.T) {
	handler, rs := newTestQueryHandler()
	seedOrder(rs, "ORD-OLD", order.StatusPending, 100, 30)
	seedOrder(rs, "ORD-NEW", order.StatusPending, 100, 1)

	orders, err := handler.ListOrders(context.Background())

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-NEW", orders[0].ID)
}

func TestHandler_GetSettings_Defaults(t *testing.T) {
	handler, _ := newTestQueryHandler()

	s, err := handler.GetSettings(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "EUR", s.Currency)
	assert.True(t, decimal.RequireFromString("0.08").Equal(s.TaxRate))
}

func TestHandler_GetUserByEmail(t *testing.T) {
	handler, rs := newTestQueryHandler()
	rs.SetData(readmodel.CollectionUsers, "u1", &UserReadModel{ID: "u1", Email: "admin@example.com"})

	u, ok, err := handler.GetUserByEmail(context.Background(), " ADMIN@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", u.ID)

	_, ok, err = handler.GetUserByEmail(context.Background(), "other@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandler_Dashboard(t *testing.T) {
	handler, rs := newTestQueryHandler()
	seedCatalog(rs)
	seedOrder(rs, "ORD-1", order.StatusPending, 1000, 1)
	seedOrder(rs, "ORD-2", order.StatusDelivered, 2500, 2)
	seedOrder(rs, "ORD-3", order.StatusCancelled, 9999, 3)
	for i, id := range []string{"ORD-4", "ORD-5", "ORD-6"} {
		seedOrder(rs, id, order.StatusShipped, 100, 10+i)
	}

	d, err := handler.Dashboard(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, d.TotalProducts)
	assert.Equal(t, 6, d.TotalOrders)
	assert.Equal(t, 3800, d.TotalRevenue)
	assert.Equal(t, 1, d.LowStockProducts) // phone-b has 3; case-a has 0 and is not counted
	require.Len(t, d.RecentOrders, 5)
	assert.Equal(t, "ORD-1", d.RecentOrders[0].ID)
	assert.Equal(t, map[string]int{
		"pending": 1, "confirmed": 0, "processing": 0, "shipped": 3, "delivered": 1, "cancelled": 1,
	}, d.OrdersByStatus)
}
