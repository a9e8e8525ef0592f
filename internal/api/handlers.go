package api

import (
	"net/http"
	"time"

	"github.com/example/eri-mobile-shop/internal/cartsession"
	"github.com/example/eri-mobile-shop/internal/command"
	"github.com/example/eri-mobile-shop/internal/domain/cart"
	"github.com/example/eri-mobile-shop/internal/domain/pricing"
	"github.com/example/eri-mobile-shop/internal/query"
	"github.com/go-chi/chi/v5"
)

// Handlers serves the public storefront: catalog, cart and checkout
type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	carts        *cartsession.Registry
	cartTTL      time.Duration
	secure       bool
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, carts *cartsession.Registry, cartTTL time.Duration, secureCookies bool) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		carts:        carts,
		cartTTL:      cartTTL,
		secure:       secureCookies,
	}
}

// Catalog

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.queryHandler.ListProducts(r.Context(), query.ProductFilter{
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.queryHandler.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) GetDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.queryHandler.ListDeals(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deals)
}

func (h *Handlers) GetPublicSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.queryHandler.GetSettings(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

// Cart

type CartResponse struct {
	Items      []cart.LineItem `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice int             `json:"total_price"`
}

type CartTotalsResponse struct {
	CartResponse
	Totals pricing.Totals `json:"totals"`
}

func cartResponse(c *cart.Cart) CartResponse {
	return CartResponse{Items: c.Items(), TotalItems: c.TotalItems(), TotalPrice: c.TotalPrice()}
}

// sessionID returns the caller's cart session, issuing a cookie on first use.
// The cookie is re-sent on every cart request so it expires together with
// the registry's sliding idle TTL.
func (h *Handlers) sessionID(w http.ResponseWriter, r *http.Request) string {
	id := cartsession.NewSessionID()
	if cookie, err := r.Cookie(cartsession.CookieName); err == nil && cookie.Value != "" {
		id = cookie.Value
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cartsession.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.cartTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// withCart runs fn on the session cart and answers with the resulting cart
func (h *Handlers) withCart(w http.ResponseWriter, r *http.Request, fn func(c *cart.Cart) error) {
	var resp CartResponse
	err := h.carts.Update(h.sessionID(w, r), func(c *cart.Cart) error {
		if err := fn(c); err != nil {
			return err
		}
		resp = cartResponse(c)
		return nil
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(c *cart.Cart) error { return nil })
}

func (h *Handlers) GetCartTotals(w http.ResponseWriter, r *http.Request) {
	policy, err := h.cmdHandler.Policy(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var resp CartTotalsResponse
	_ = h.carts.Update(h.sessionID(w, r), func(c *cart.Cart) error {
		resp.CartResponse = cartResponse(c)
		resp.Totals = pricing.Compute(resp.Items, policy)
		return nil
	})
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if !decodeJSON(w, r, &cmd) {
		return
	}
	h.withCart(w, r, func(c *cart.Cart) error {
		return h.cmdHandler.AddToCart(r.Context(), c, cmd)
	})
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateCartQuantity
	if !decodeJSON(w, r, &cmd) {
		return
	}
	h.withCart(w, r, func(c *cart.Cart) error {
		return h.cmdHandler.UpdateCartQuantity(r.Context(), c, cmd)
	})
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cmd := command.RemoveFromCart{
		ProductID: q.Get("product_id"),
		Color:     q.Get("color"),
		Storage:   q.Get("storage"),
	}
	h.withCart(w, r, func(c *cart.Cart) error {
		return h.cmdHandler.RemoveFromCart(r.Context(), c, cmd)
	})
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(c *cart.Cart) error {
		return h.cmdHandler.ClearCart(r.Context(), c)
	})
}

// Checkout

type CheckoutResponse struct {
	OrderID string         `json:"order_id"`
	Status  string         `json:"status"`
	Totals  pricing.Totals `json:"totals"`
}

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var cmd command.PlaceOrder
	if !decodeJSON(w, r, &cmd) {
		return
	}

	var resp CheckoutResponse
	err := h.carts.Update(h.sessionID(w, r), func(c *cart.Cart) error {
		o, err := h.cmdHandler.PlaceOrder(r.Context(), c, cmd)
		if err != nil {
			return err
		}
		resp = CheckoutResponse{OrderID: o.ID, Status: string(o.Status), Totals: o.Totals()}
		return nil
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}
