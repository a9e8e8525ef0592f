package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/eri-mobile-shop/internal/auth"
	"github.com/example/eri-mobile-shop/internal/domain/cart"
	"github.com/example/eri-mobile-shop/internal/domain/order"
	"github.com/example/eri-mobile-shop/internal/domain/pricing"
	"github.com/example/eri-mobile-shop/internal/domain/product"
	"github.com/example/eri-mobile-shop/internal/domain/settings"
	"github.com/example/eri-mobile-shop/internal/domain/user"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/example/eri-mobile-shop/internal/query"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	productSvc  *product.Service
	orderSvc    *order.Service
	settingsSvc *settings.Service
	userSvc     *user.Service
	queries     *query.Handler
}

func NewHandler(
	productSvc *product.Service,
	orderSvc *order.Service,
	settingsSvc *settings.Service,
	userSvc *user.Service,
	readStore store.ReadStoreInterface,
) *Handler {
	return &Handler{
		productSvc:  productSvc,
		orderSvc:    orderSvc,
		settingsSvc: settingsSvc,
		userSvc:     userSvc,
		queries:     query.NewHandler(readStore),
	}
}

// ============================================
// Cart
// ============================================

// AddToCart adds one unit of the selected variant, snapshotting its price
// from the product read model
func (h *Handler) AddToCart(ctx context.Context, c *cart.Cart, cmd AddToCart) error {
	if cmd.ProductID == "" {
		return invalid("product_id", "is required")
	}

	p, err := h.queries.GetProduct(ctx, cmd.ProductID)
	if err != nil {
		return err
	}

	v, ok := p.FindVariant(cmd.Color, cmd.Storage)
	if !ok {
		return invalid("variant", fmt.Sprintf("%s has no %s %s option", p.Name, cmd.Color, cmd.Storage))
	}
	if !v.Available() {
		return invalid("variant", fmt.Sprintf("%s %s %s is out of stock", p.Name, cmd.Color, cmd.Storage))
	}

	image := v.Image
	if image == "" {
		image = p.Image
	}
	c.AddItem(p.ID, v.Color, v.Storage, v.Price, image, p.Name)
	return nil
}

func (h *Handler) UpdateCartQuantity(ctx context.Context, c *cart.Cart, cmd UpdateCartQuantity) error {
	if cmd.ProductID == "" {
		return invalid("product_id", "is required")
	}
	c.SetQuantity(cmd.ProductID, cmd.Color, cmd.Storage, cmd.Quantity)
	return nil
}

func (h *Handler) RemoveFromCart(ctx context.Context, c *cart.Cart, cmd RemoveFromCart) error {
	c.RemoveItem(cmd.ProductID, cmd.Color, cmd.Storage)
	return nil
}

func (h *Handler) ClearCart(ctx context.Context, c *cart.Cart) error {
	c.Clear()
	return nil
}

// Policy returns the pricing inputs from the current store settings
func (h *Handler) Policy(ctx context.Context) (pricing.Policy, error) {
	s, err := h.settingsSvc.Get(ctx)
	if err != nil {
		return pricing.Policy{}, err
	}
	return s.Policy(), nil
}

// ============================================
// Checkout
// ============================================

func validateCustomer(c order.Customer) error {
	required := []struct {
		field, value string
	}{
		{"first_name", c.FirstName},
		{"last_name", c.LastName},
		{"email", c.Email},
		{"address", c.Address},
		{"city", c.City},
		{"zip_code", c.ZipCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalid("customer."+r.field, "is required")
		}
	}
	if !user.IsValidEmail(strings.TrimSpace(c.Email)) {
		return invalid("customer.email", "is not a valid email address")
	}
	return nil
}

// PlaceOrder turns the cart into an order. The order is persisted with a
// single append; the cart is cleared only after that succeeds.
func (h *Handler) PlaceOrder(ctx context.Context, c *cart.Cart, cmd PlaceOrder) (*order.Order, error) {
	if c.IsEmpty() {
		return nil, order.ErrEmptyOrder
	}
	if err := validateCustomer(cmd.Customer); err != nil {
		return nil, err
	}

	policy, err := h.Policy(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading store settings: %v", ErrPersistence, err)
	}

	lines := c.Items()
	totals := pricing.Compute(lines, policy)

	items := make([]order.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, order.OrderItem{
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			Image:           line.Image,
			SelectedColor:   line.SelectedColor,
			SelectedStorage: line.SelectedStorage,
			Price:           line.UnitPrice,
			Quantity:        line.Quantity,
		})
	}

	customer := cmd.Customer
	customer.Email = strings.TrimSpace(customer.Email)

	o, err := h.orderSvc.Place(ctx, items, customer, totals)
	if err != nil {
		log.WithError(err).Error("[Checkout] Failed to persist order")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	c.Clear()
	return o, nil
}

// ============================================
// Products
// ============================================

func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*product.Product, error) {
	return h.productSvc.Create(ctx, strings.TrimSpace(cmd.ID), cmd.Details)
}

func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) (*product.Product, error) {
	return h.productSvc.Update(ctx, cmd.ProductID, cmd.Details)
}

func (h *Handler) DeleteProduct(ctx context.Context, cmd DeleteProduct) error {
	return h.productSvc.Delete(ctx, cmd.ProductID)
}

// ============================================
// Orders
// ============================================

func (h *Handler) ChangeOrderStatus(ctx context.Context, cmd ChangeOrderStatus) (*order.Order, error) {
	status, err := order.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	return h.orderSvc.ChangeStatus(ctx, cmd.OrderID, status)
}

func (h *Handler) DeleteOrder(ctx context.Context, cmd DeleteOrder) error {
	return h.orderSvc.Delete(ctx, cmd.OrderID)
}

// ============================================
// Settings
// ============================================

func (h *Handler) UpdateSettings(ctx context.Context, cmd UpdateSettings) (*settings.Aggregate, error) {
	return h.settingsSvc.Update(ctx, cmd.Patch)
}

// ============================================
// Accounts
// ============================================

// RegisterAdmin creates an admin account unless the email is taken
func (h *Handler) RegisterAdmin(ctx context.Context, cmd RegisterAdmin) (*user.User, error) {
	_, exists, err := h.queries.GetUserByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}
	return h.userSvc.RegisterAdmin(ctx, cmd.Email, cmd.Password, cmd.Name)
}

// Authenticate checks credentials against the users read model
func (h *Handler) Authenticate(ctx context.Context, email, password string) (*query.UserReadModel, error) {
	u, ok, err := h.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ok || !u.IsActive || !auth.CheckPassword(password, u.PasswordHash) {
		return nil, user.ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword verifies the current password before replacing it
func (h *Handler) ChangePassword(ctx context.Context, cmd ChangePassword) error {
	u, err := h.userSvc.Get(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(cmd.CurrentPassword, u.PasswordHash) {
		return user.ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(cmd.NewPassword); err != nil {
		return invalid("new_password", err.Error())
	}
	return h.userSvc.ChangePassword(ctx, cmd.UserID, cmd.NewPassword)
}

// IsValidation reports whether err came from boundary validation
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
