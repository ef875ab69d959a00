package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/authz"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterOptions struct {
	AllowOrigins []string
	Logger       *slog.Logger

	// Metrics is optional. When set, requests are measured and /metrics is served.
	Metrics *metrics.Metrics
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = h.logger
	}
	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(correlationID)
	r.Use(accessLog(logger))
	// outside the recoverer so panics are counted as 500s
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(recoverer(logger))
	r.Use(cors(origins))

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.GuestOnly(h.auth, logger))

			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/categories", h.ListCategories)
		r.Get("/reviews", h.ListReviews)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.auth, logger))

			r.Post("/logout", h.Logout)
			r.Get("/user", h.CurrentUser)

			r.With(h.require(authz.ObjProduct, authz.ActCreate)).Post("/products", h.CreateProduct)
			r.With(h.require(authz.ObjProduct, authz.ActUpdate)).Put("/products/{id}", h.UpdateProduct)
			r.With(h.require(authz.ObjProduct, authz.ActDelete)).Delete("/products/{id}", h.DeleteProduct)
			r.With(h.require(authz.ObjCategory, authz.ActCreate)).Post("/categories", h.CreateCategory)

			r.With(h.require(authz.ObjReview, authz.ActCreate)).Post("/reviews", h.CreateReview)
			r.Delete("/reviews/{id}", h.DeleteReview)

			r.Get("/orders", h.ListOrders)
			r.With(h.require(authz.ObjOrder, authz.ActCreate)).Post("/orders", h.PlaceOrder)
		})
	})

	return r
}
