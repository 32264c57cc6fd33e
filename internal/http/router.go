package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/guard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Guarded views behind the API routes.
const (
	checkoutView = "/checkout"
	ordersView   = "/orders"
	profileView  = "/profile"
	adminView    = "/admin"
)

type Handlers struct {
	Cart          *CartHandler
	Session       *SessionHandler
	Guard         *GuardHandler
	Checkout      *CheckoutHandler
	Notifications *NotificationHandler
	Products      *ProductHandler
	Orders        *OrdersHandler
	Profile       *ProfileHandler
	Metrics       http.Handler
}

// NewRouter builds the storefront's HTTP surface. Protected routes run the
// route guard g against the current identity first.
func NewRouter(hs Handlers, g *guard.Guard, identities IdentitySource, logger *slog.Logger, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if hs.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", hs.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", hs.Cart.GetCart)
			r.Delete("/", hs.Cart.ClearCart)
			r.Post("/items", hs.Cart.AddItem)
			r.Put("/items/{product_id}", hs.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", hs.Cart.RemoveItem)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", hs.Session.Get)
			r.Post("/login", hs.Session.Login)
			r.Post("/logout", hs.Session.Logout)
			r.Post("/register", hs.Session.Register)
		})

		r.Get("/guard", hs.Guard.Decide)
		r.Delete("/guard", hs.Guard.Leave)
		r.Get("/notifications", hs.Notifications.Drain)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", hs.Products.List)
			r.Get("/categories", hs.Products.Categories)
			r.Get("/{id}", hs.Products.Get)
			r.Get("/{id}/related", hs.Products.Related)
		})

		r.With(RequireView(g, identities, checkoutView)).Post("/checkout", hs.Checkout.PlaceOrder)
		r.With(RequireView(g, identities, ordersView)).Get("/orders", hs.Orders.List)

		r.Route("/profile", func(r chi.Router) {
			r.Use(RequireView(g, identities, profileView))
			r.Get("/", hs.Profile.Get)
			r.Put("/", hs.Profile.Update)
		})

		r.Route("/admin/products", func(r chi.Router) {
			r.Use(RequireView(g, identities, adminView))
			r.Post("/", hs.Products.Create)
			r.Put("/{id}", hs.Products.Update)
			r.Delete("/{id}", hs.Products.Delete)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
