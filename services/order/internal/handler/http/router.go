package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kitchencart/ecommerce/pkg/health"
	"github.com/kitchencart/ecommerce/pkg/middleware"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
)

// Services groups the application services the router exposes.
type Services struct {
	Orders     OrderService
	Carts      CartService
	Products   ProductService
	Categories CategoryService
	Wishlists  WishlistService
	Users      UserService
}

// RouterConfig holds the HTTP-layer settings.
type RouterConfig struct {
	ValidateToken middleware.TokenValidator
	CORS          middleware.CORSConfig
	PprofCIDRs    []string
	CatalogMaxAge int // seconds
}

// NewRouter creates a chi router with all order service routes registered.
func NewRouter(
	svc Services,
	cfg RouterConfig,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Metrics("order"))
	r.Use(middleware.Tracing("order"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	orderHandler := NewOrderHandler(svc.Orders, logger)
	cartHandler := NewCartHandler(svc.Carts, logger)
	productHandler := NewProductHandler(svc.Products, logger)
	categoryHandler := NewCategoryHandler(svc.Categories, logger)
	wishlistHandler := NewWishlistHandler(svc.Wishlists, logger)
	userHandler := NewUserHandler(svc.Users, logger)

	authenticate := middleware.Auth(cfg.ValidateToken)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/products", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(cfg.CatalogMaxAge))
				r.Get("/", productHandler.ListProducts)
				r.Get("/{id}", productHandler.GetProduct)
			})
			r.Group(func(r chi.Router) {
				r.Use(authenticate, adminOnly)
				r.Post("/", productHandler.CreateProduct)
				r.Put("/{id}", productHandler.UpdateProduct)
				r.Delete("/{id}", productHandler.DeleteProduct)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(cfg.CatalogMaxAge))
				r.Get("/", categoryHandler.ListCategories)
				r.Get("/{id}", categoryHandler.GetCategory)
			})
			r.Group(func(r chi.Router) {
				r.Use(authenticate, adminOnly)
				r.Post("/", categoryHandler.CreateCategory)
				r.Put("/{id}", categoryHandler.UpdateCategory)
				r.Delete("/{id}", categoryHandler.DeleteCategory)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore, authenticate)
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateItem)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(middleware.NoStore, authenticate)
			r.Get("/", wishlistHandler.GetWishlist)
			r.Post("/", wishlistHandler.AddItem)
			r.Delete("/{productID}", wishlistHandler.RemoveItem)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.NoStore, authenticate, adminOnly)
			r.Get("/", userHandler.ListUsers)
			r.Delete("/{id}", userHandler.DeleteUser)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.NoStore, authenticate)
			r.Post("/", orderHandler.CreateOrder)
			r.Get("/", orderHandler.ListMyOrders)
			r.Post("/verify", orderHandler.VerifyPayment)
			r.Get("/{id}/retry-payment", orderHandler.RetryPayment)
			r.Get("/{id}/invoice", orderHandler.GetInvoice)
			r.Put("/{id}/cancel", orderHandler.CancelOrder)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/admin", orderHandler.ListAllOrders)
				r.Put("/{id}", orderHandler.UpdateOrderStatus)
			})
		})
	})

	return r
}
