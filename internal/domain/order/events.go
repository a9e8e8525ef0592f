package order

import "time"

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderDeleted       = "OrderDeleted"
)

// OrderItem is a line of a placed order. Price is the unit price captured at checkout.
type OrderItem struct {
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	Image           string `json:"image"`
	SelectedColor   string `json:"selected_color"`
	SelectedStorage string `json:"selected_storage"`
	Price           int    `json:"price"`
	Quantity        int    `json:"quantity"`
}

type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
}

type OrderPlaced struct {
	OrderID  string      `json:"order_id"`
	Items    []OrderItem `json:"items"`
	Customer Customer    `json:"customer"`
	Subtotal int         `json:"subtotal"`
	Shipping int         `json:"shipping"`
	Tax      int         `json:"tax"`
	Total    int         `json:"total"`
	PlacedAt time.Time   `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

type OrderDeleted struct {
	OrderID   string    `json:"order_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
