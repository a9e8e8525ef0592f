package api

import (
	"net/http"
	"time"

	"github.com/example/eri-mobile-shop/internal/api/middleware"
	"github.com/example/eri-mobile-shop/internal/auth"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type RouterConfig struct {
	Handlers         *Handlers
	AdminHandlers    *AdminHandlers
	AuthHandlers     *AuthHandlers
	CategoryHandlers *CategoryHandlers
	JWTService       *auth.JWTService
	AllowedOrigins   []string
	RequestTimeout   time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Storefront
		r.Get("/products", cfg.Handlers.GetProducts)
		r.Get("/products/{id}", cfg.Handlers.GetProduct)
		r.Get("/deals", cfg.Handlers.GetDeals)
		r.Get("/categories", cfg.CategoryHandlers.ListCategories)
		r.Get("/settings/public", cfg.Handlers.GetPublicSettings)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cfg.Handlers.GetCart)
			r.Delete("/", cfg.Handlers.ClearCart)
			r.Get("/totals", cfg.Handlers.GetCartTotals)
			r.Post("/items", cfg.Handlers.AddToCart)
			r.Patch("/items", cfg.Handlers.UpdateCartItem)
			r.Delete("/items", cfg.Handlers.RemoveFromCart)
		})
		r.Post("/checkout", cfg.Handlers.Checkout)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", cfg.AuthHandlers.Login)
			r.With(middleware.OptionalAuthMiddleware(cfg.JWTService)).Post("/logout", cfg.AuthHandlers.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(cfg.JWTService))

				r.Get("/me", cfg.AuthHandlers.Me)
				r.Post("/password", cfg.AuthHandlers.ChangePassword)

				r.Get("/products", cfg.AdminHandlers.ListProducts)
				r.Post("/products", cfg.AdminHandlers.CreateProduct)
				r.Get("/products/{id}", cfg.AdminHandlers.GetProduct)
				r.Put("/products/{id}", cfg.AdminHandlers.UpdateProduct)
				r.Delete("/products/{id}", cfg.AdminHandlers.DeleteProduct)

				r.Get("/orders", cfg.AdminHandlers.ListOrders)
				r.Get("/orders/{id}", cfg.AdminHandlers.GetOrder)
				r.Delete("/orders/{id}", cfg.AdminHandlers.DeleteOrder)
				r.Put("/orders/{id}/status", cfg.AdminHandlers.UpdateOrderStatus)

				r.Get("/settings", cfg.AdminHandlers.GetSettings)
				r.Put("/settings", cfg.AdminHandlers.UpdateSettings)

				r.Get("/dashboard", cfg.AdminHandlers.Dashboard)
				r.Get("/categories", cfg.CategoryHandlers.ListCategorySummaries)
			})
		})
	})

	return r
}
