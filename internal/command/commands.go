package command

import (
	"github.com/example/eri-mobile-shop/internal/domain/order"
	"github.com/example/eri-mobile-shop/internal/domain/product"
	"github.com/example/eri-mobile-shop/internal/domain/settings"
)

// Cart Commands
type AddToCart struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Storage   string `json:"storage"`
}

type UpdateCartQuantity struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Storage   string `json:"storage"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Storage   string `json:"storage"`
}

// Checkout
type PlaceOrder struct {
	Customer order.Customer `json:"customer"`
}

// Product Commands
type CreateProduct struct {
	ID string `json:"id"`
	product.Details
}

type UpdateProduct struct {
	ProductID string `json:"-"`
	product.Details
}

type DeleteProduct struct {
	ProductID string `json:"product_id"`
}

// Order Commands
type ChangeOrderStatus struct {
	OrderID string `json:"-"`
	Status  string `json:"status"`
}

type DeleteOrder struct {
	OrderID string `json:"order_id"`
}

// Settings Commands
type UpdateSettings struct {
	settings.Patch
}

// Account Commands
type RegisterAdmin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type ChangePassword struct {
	UserID          string `json:"-"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
