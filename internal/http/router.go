package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	Prefix         string
	JWTSecret      []byte
	RequestTimeout time.Duration
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig, carts *CartHandler, orders *OrdersHandler, products *ProductHandler) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		// Auth travels in the Authorization header, never in cookies.
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	routes := func(r chi.Router) {
		authenticated := Authenticate(cfg.JWTSecret)

		r.Route("/cart", func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/add-to-cart", carts.AddToCart)
			r.Get("/get-cart", carts.GetCart)
			r.Patch("/update-cart-quantity", carts.UpdateCartQuantity)
			r.Patch("/{productId}/remove-from-cart", carts.RemoveFromCart)
			r.Put("/clear-cart", carts.ClearCart)
		})

		r.Route("/order", func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/checkout", orders.Checkout)
			r.Get("/my-orders", orders.MyOrders)
			r.With(RequireAdmin).Get("/all-orders", orders.AllOrders)
			r.With(RequireAdmin).Patch("/{orderId}/status", orders.UpdateStatus)
		})

		r.Route("/product", func(r chi.Router) {
			r.Get("/active", products.Active)
			r.Get("/{productId}", products.Get)
			r.Post("/search-by-name", products.SearchByName)
			r.Post("/search-by-price", products.SearchByPrice)

			r.Group(func(r chi.Router) {
				r.Use(authenticated, RequireAdmin)
				r.Post("/", products.Create)
				r.Get("/all", products.All)
				r.Patch("/{productId}/update", products.Update)
				r.Patch("/{productId}/archive", products.Archive)
				r.Patch("/{productId}/activate", products.Activate)
			})
		})
	}

	if cfg.Prefix == "" || cfg.Prefix == "/" {
		routes(r)
	} else {
		r.Route(cfg.Prefix, routes)
	}

	return r
}
