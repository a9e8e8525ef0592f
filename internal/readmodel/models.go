package readmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// Read store collection names
const (
	CollectionProducts = "products"
	CollectionOrders   = "orders"
	CollectionUsers    = "users"
	CollectionSettings = "settings"
)

// SettingsID is the id of the single settings read model
const SettingsID = "store-settings"

// SpecReadModel is a label/value pair shown on the product page
type SpecReadModel struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// VariantReadModel is one color+storage combination of a product
type VariantReadModel struct {
	Color         string `json:"color"`
	ColorHex      string `json:"color_hex"`
	Image         string `json:"image"`
	Storage       string `json:"storage"`
	Price         int    `json:"price"`
	OriginalPrice int    `json:"original_price,omitempty"`
	Stock         int    `json:"stock"`
	InStock       bool   `json:"in_stock"`
}

// Available reports whether the variant can be added to a cart
func (v VariantReadModel) Available() bool {
	return v.InStock && v.Stock > 0
}

// ProductReadModel is the read model for products
type ProductReadModel struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Subtitle    string             `json:"subtitle"`
	Image       string             `json:"image"`
	Badge       string             `json:"badge,omitempty"`
	Rating      float64            `json:"rating"`
	Reviews     int                `json:"reviews"`
	Specs       []SpecReadModel    `json:"specs"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Variants    []VariantReadModel `json:"variants"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// FindVariant matches a selected color and storage to a variant
func (p *ProductReadModel) FindVariant(color, storage string) (VariantReadModel, bool) {
	for _, v := range p.Variants {
		if v.Color == color && v.Storage == storage {
			return v, true
		}
	}
	return VariantReadModel{}, false
}

// TotalStock sums stock across all variants
func (p *ProductReadModel) TotalStock() int {
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// MinPrice is the cheapest variant price, 0 for a product without variants
func (p *ProductReadModel) MinPrice() int {
	min := 0
	for i, v := range p.Variants {
		if i == 0 || v.Price < min {
			min = v.Price
		}
	}
	return min
}

// OnSale reports whether any variant is discounted
func (p *ProductReadModel) OnSale() bool {
	for _, v := range p.Variants {
		if v.OriginalPrice > v.Price {
			return true
		}
	}
	return false
}

// OrderItemReadModel represents an item in an order
type OrderItemReadModel struct {
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	Image           string `json:"image"`
	SelectedColor   string `json:"selected_color"`
	SelectedStorage string `json:"selected_storage"`
	Price           int    `json:"price"`
	Quantity        int    `json:"quantity"`
}

// CustomerReadModel is the shipping contact captured at checkout
type CustomerReadModel struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
}

// OrderReadModel is the read model for orders
type OrderReadModel struct {
	ID        string               `json:"id"`
	Items     []OrderItemReadModel `json:"items"`
	Customer  CustomerReadModel    `json:"customer"`
	Status    string               `json:"status"`
	Subtotal  int                  `json:"subtotal"`
	Shipping  int                  `json:"shipping"`
	Tax       int                  `json:"tax"`
	Total     int                  `json:"total"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// UserReadModel is the read model for admin users
type UserReadModel struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never exposed
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SettingsReadModel is the read model for store settings
type SettingsReadModel struct {
	ID                    string          `json:"-"`
	StoreName             string          `json:"store_name"`
	StoreEmail            string          `json:"store_email"`
	StorePhone            string          `json:"store_phone"`
	StoreAddress          string          `json:"store_address"`
	Currency              string          `json:"currency"`
	TaxRate               decimal.Decimal `json:"tax_rate"`
	FreeShippingThreshold int             `json:"free_shipping_threshold"`
	ShippingFlat          int             `json:"shipping_flat"`
	UpdatedAt             time.Time       `json:"updated_at"`
}
