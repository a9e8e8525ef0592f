package query

import (
	"github.com/example/eri-mobile-shop/internal/readmodel"
)

type ProductReadModel = readmodel.ProductReadModel
type VariantReadModel = readmodel.VariantReadModel
type OrderReadModel = readmodel.OrderReadModel
type UserReadModel = readmodel.UserReadModel
type SettingsReadModel = readmodel.SettingsReadModel

// CategorySummary is derived from the products carrying the category
type CategorySummary struct {
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
	TotalStock   int    `json:"total_stock"`
	AvgPrice     int    `json:"avg_price"` // mean of each product's cheapest variant
}

// Dashboard holds the admin overview figures
type Dashboard struct {
	TotalProducts    int               `json:"total_products"`
	TotalOrders      int               `json:"total_orders"`
	TotalRevenue     int               `json:"total_revenue"`
	LowStockProducts int               `json:"low_stock_products"`
	RecentOrders     []*OrderReadModel `json:"recent_orders"`
	OrdersByStatus   map[string]int    `json:"orders_by_status"`
}
