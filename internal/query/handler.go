package query

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/example/eri-mobile-shop/internal/domain/order"
	"github.com/example/eri-mobile-shop/internal/domain/product"
	"github.com/example/eri-mobile-shop/internal/domain/settings"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/readmodel"
	"github.com/shopspring/decimal"
)

// Product list orderings
const (
	SortFeatured  = "featured"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
	SortNewest    = "newest"
)

// CategoryAll disables the category filter
const CategoryAll = "all"

const (
	lowStockLimit     = 5
	recentOrdersLimit = 5
)

type Handler struct {
	readStore store.ReadStoreInterface
}

func NewHandler(readStore store.ReadStoreInterface) *Handler {
	return &Handler{readStore: readStore}
}

// ProductFilter narrows and orders the product list
type ProductFilter struct {
	Category string
	Sort     string
}

// Products
func (h *Handler) GetProduct(ctx context.Context, id string) (*ProductReadModel, error) {
	data, ok, err := h.readStore.Get(ctx, readmodel.CollectionProducts, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return data.(*ProductReadModel), nil
}

func (h *Handler) allProducts(ctx context.Context) ([]*ProductReadModel, error) {
	items, err := h.readStore.GetAll(ctx, readmodel.CollectionProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]*ProductReadModel, 0, len(items))
	for _, item := range items {
		products = append(products, item.(*ProductReadModel))
	}
	// featured order: newest first, id breaks ties so the result is stable
	slices.SortFunc(products, func(a, b *ProductReadModel) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return products, nil
}

// ListProducts returns products in the category (all when empty) in the requested order
func (h *Handler) ListProducts(ctx context.Context, f ProductFilter) ([]*ProductReadModel, error) {
	products, err := h.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	if f.Category != "" && !strings.EqualFold(f.Category, CategoryAll) {
		products = slices.DeleteFunc(products, func(p *ProductReadModel) bool {
			return !strings.EqualFold(p.Category, f.Category)
		})
	}

	switch f.Sort {
	case SortPriceLow:
		slices.SortStableFunc(products, func(a, b *ProductReadModel) int { return cmp.Compare(a.MinPrice(), b.MinPrice()) })
	case SortPriceHigh:
		slices.SortStableFunc(products, func(a, b *ProductReadModel) int { return cmp.Compare(b.MinPrice(), a.MinPrice()) })
	case SortRating:
		slices.SortStableFunc(products, func(a, b *ProductReadModel) int { return cmp.Compare(b.Rating, a.Rating) })
	}
	return products, nil
}

// ListDeals returns products with at least one discounted variant
func (h *Handler) ListDeals(ctx context.Context) ([]*ProductReadModel, error) {
	products, err := h.allProducts(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(products, func(p *ProductReadModel) bool { return !p.OnSale() }), nil
}

// ListCategories derives the category list from the catalog
func (h *Handler) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	products, err := h.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var out []CategorySummary
	priceSums := make(map[string]int)
	for _, p := range products {
		i, ok := index[p.Category]
		if !ok {
			i = len(out)
			index[p.Category] = i
			out = append(out, CategorySummary{Name: p.Category})
		}
		out[i].ProductCount++
		out[i].TotalStock += p.TotalStock()
		priceSums[p.Category] += p.MinPrice()
	}

	for i := range out {
		avg := decimal.NewFromInt(int64(priceSums[out[i].Name])).
			Div(decimal.NewFromInt(int64(out[i].ProductCount))).
			Round(0)
		out[i].AvgPrice = int(avg.IntPart())
	}
	slices.SortFunc(out, func(a, b CategorySummary) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Orders
func (h *Handler) GetOrder(ctx context.Context, id string) (*OrderReadModel, error) {
	data, ok, err := h.readStore.Get(ctx, readmodel.CollectionOrders, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return data.(*OrderReadModel), nil
}

// ListOrders returns all orders, newest first
func (h *Handler) ListOrders(ctx context.Context) ([]*OrderReadModel, error) {
	items, err := h.readStore.GetAll(ctx, readmodel.CollectionOrders)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	orders := make([]*OrderReadModel, 0, len(items))
	for _, item := range items {
		orders = append(orders, item.(*OrderReadModel))
	}
	slices.SortFunc(orders, func(a, b *OrderReadModel) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return orders, nil
}

// Settings returns the stored settings, or the defaults when none were saved
func (h *Handler) GetSettings(ctx context.Context) (*SettingsReadModel, error) {
	data, ok, err := h.readStore.Get(ctx, readmodel.CollectionSettings, readmodel.SettingsID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if ok {
		return data.(*SettingsReadModel), nil
	}
	d := settings.Defaults()
	return &SettingsReadModel{
		ID:                    readmodel.SettingsID,
		StoreName:             d.StoreName,
		Currency:              d.Currency,
		TaxRate:               d.TaxRate,
		FreeShippingThreshold: d.FreeShippingThreshold,
		ShippingFlat:          d.ShippingFlat,
	}, nil
}

// Users
func (h *Handler) GetUser(ctx context.Context, id string) (*UserReadModel, bool, error) {
	data, ok, err := h.readStore.Get(ctx, readmodel.CollectionUsers, id)
	if err != nil || !ok {
		return nil, false, err
	}
	return data.(*UserReadModel), true, nil
}

// GetUserByEmail matches case-insensitively
func (h *Handler) GetUserByEmail(ctx context.Context, email string) (*UserReadModel, bool, error) {
	items, err := h.readStore.GetAll(ctx, readmodel.CollectionUsers)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list users: %w", err)
	}
	email = strings.TrimSpace(email)
	for _, item := range items {
		u := item.(*UserReadModel)
		if strings.EqualFold(u.Email, email) {
			return u, true, nil
		}
	}
	return nil, false, nil
}

// Dashboard aggregates the admin overview
func (h *Handler) Dashboard(ctx context.Context) (*Dashboard, error) {
	products, err := h.allProducts(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := h.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalProducts:  len(products),
		TotalOrders:    len(orders),
		OrdersByStatus: make(map[string]int, len(order.Statuses)),
	}
	for _, s := range order.Statuses {
		d.OrdersByStatus[string(s)] = 0
	}

	for _, p := range products {
		if stock := p.TotalStock(); stock > 0 && stock <= lowStockLimit {
			d.LowStockProducts++
		}
	}
	for _, o := range orders {
		d.OrdersByStatus[o.Status]++
		if o.Status != string(order.StatusCancelled) {
			d.TotalRevenue += o.Total
		}
	}
	d.RecentOrders = orders[:min(recentOrdersLimit, len(orders))]
	return d, nil
}
