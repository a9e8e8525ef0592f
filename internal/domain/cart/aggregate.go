// Package cart holds the shopping cart aggregator.
//
// A cart is a short-lived, single-owner value: it is never persisted and
// every mutation is synchronous. Line items are identified by the
// product together with the selected color and storage, so two variants
// of the same product are always separate lines.
package cart

import "strings"

// Key is the identity of a line item
type Key struct {
	ProductID string
	Color     string
	Storage   string
}

// String renders the key as productID::color::storage
func (k Key) String() string {
	return strings.Join([]string{k.ProductID, k.Color, k.Storage}, "::")
}

// LineItem is one product variant in the cart. ProductName, Image and
// UnitPrice are copied from the catalog when the line is first added.
type LineItem struct {
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	Image           string `json:"image"`
	SelectedColor   string `json:"selected_color"`
	SelectedStorage string `json:"selected_storage"`
	UnitPrice       int    `json:"unit_price"`
	Quantity        int    `json:"quantity"`
}

// Key returns the identity of the line item
func (li LineItem) Key() Key {
	return Key{ProductID: li.ProductID, Color: li.SelectedColor, Storage: li.SelectedStorage}
}

// LineTotal is UnitPrice times Quantity
func (li LineItem) LineTotal() int {
	return li.UnitPrice * li.Quantity
}

// Cart is an insertion-ordered collection of line items.
// The zero value is an empty cart ready to use. A Cart is not safe for
// concurrent use; callers serialize access per owner.
type Cart struct {
	order []Key
	items map[Key]*LineItem
}

// New returns an empty cart
func New() *Cart {
	return &Cart{}
}

// AddItem adds one unit of the variant. An existing line keeps its
// original snapshot and only gains quantity.
func (c *Cart) AddItem(productID, color, storage string, unitPrice int, image, productName string) {
	key := Key{ProductID: productID, Color: color, Storage: storage}
	if item, ok := c.items[key]; ok {
		item.Quantity++
		return
	}

	if c.items == nil {
		c.items = make(map[Key]*LineItem)
	}
	c.items[key] = &LineItem{
		ProductID:       productID,
		ProductName:     productName,
		Image:           image,
		SelectedColor:   color,
		SelectedStorage: storage,
		UnitPrice:       unitPrice,
		Quantity:        1,
	}
	c.order = append(c.order, key)
}

// RemoveItem deletes the line for the variant if present
func (c *Cart) RemoveItem(productID, color, storage string) {
	key := Key{ProductID: productID, Color: color, Storage: storage}
	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// SetQuantity replaces the quantity of an existing line.
// A quantity of zero or less removes the line; an absent line is left absent.
func (c *Cart) SetQuantity(productID, color, storage string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID, color, storage)
		return
	}
	if item, ok := c.items[Key{ProductID: productID, Color: color, Storage: storage}]; ok {
		item.Quantity = quantity
	}
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.order = nil
	c.items = nil
}

// Contains reports whether the variant has a line
func (c *Cart) Contains(productID, color, storage string) bool {
	_, ok := c.items[Key{ProductID: productID, Color: color, Storage: storage}]
	return ok
}

// Len is the number of distinct lines
func (c *Cart) Len() int {
	return len(c.order)
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.order) == 0
}

// Items returns a copy of the line items in insertion order
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, *c.items[k])
	}
	return out
}

// TotalItems is the sum of all quantities
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the sum of UnitPrice * Quantity over all lines
func (c *Cart) TotalPrice() int {
	total := 0
	for _, item := range c.items {
		total += item.LineTotal()
	}
	return total
}
