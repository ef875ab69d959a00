package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/authz"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/filter"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/review"
	"github.com/go-chi/chi/v5"
)

type AuthService interface {
	auth.Authenticator
	Register(ctx context.Context, in auth.RegisterInput) (auth.User, string, error)
	Login(ctx context.Context, email, password string) (auth.User, string, error)
	Logout(ctx context.Context, userID int64) error
}

type CatalogService interface {
	ListProducts(ctx context.Context, values filter.Values, page catalog.Page) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
	CreateProduct(ctx context.Context, in catalog.ProductInput) (catalog.Product, bool, error)
	UpdateProduct(ctx context.Context, id int64, in catalog.ProductInput) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CreateCategory(ctx context.Context, title string) (catalog.Category, error)
}

type ReviewService interface {
	List(ctx context.Context) ([]review.Review, error)
	Create(ctx context.Context, authorID int64, in review.Input) (review.Review, float64, error)
	Delete(ctx context.Context, actor authz.Subject, id int64) error
}

type OrderService interface {
	Place(ctx context.Context, userID int64, lines []order.Line) (order.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]order.Order, error)
}

type Authorizer interface {
	Allow(sub authz.Subject, obj, act string, ownerID int64) (bool, error)
}

type Deps struct {
	Auth    AuthService
	Catalog CatalogService
	Reviews ReviewService
	Orders  OrderService
	Authz   Authorizer
	Logger  *slog.Logger
}

type Handler struct {
	auth    AuthService
	catalog CatalogService
	reviews ReviewService
	orders  OrderService
	authz   Authorizer
	logger  *slog.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		auth:    d.Auth,
		catalog: d.Catalog,
		reviews: d.Reviews,
		orders:  d.Orders,
		authz:   d.Authz,
		logger:  d.Logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func subject(u auth.User) authz.Subject {
	return authz.Subject{ID: u.ID, Role: u.Role}
}

// require lets the request through only if the authenticated user may act on obj.
func (h *Handler) require(obj, act string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.UserFromContext(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
				return
			}
			allowed, err := h.authz.Allow(subject(u), obj, act, 0)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			if !allowed {
				writeError(w, http.StatusForbidden, "This action is unauthorized.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// currentUser is only called behind auth.Middleware.
func currentUser(r *http.Request) auth.User {
	u, _ := auth.UserFromContext(r.Context())
	return u
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// fail maps domain errors onto responses. Anything unrecognised is a 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		productMissing *order.ProductNotFoundError
		badQuantity    *order.InvalidQuantityError
		tooLarge       *order.AmountOutOfRangeError
	)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "Failed to find the product.")
	case errors.Is(err, catalog.ErrCategoryNotFound):
		writeValidation(w, fieldError("category_id", "It seems like this category does not exist"))
	case errors.Is(err, catalog.ErrValueOutOfRange):
		writeValidation(w, fieldError("price", "Price must not be greater than 9999999999.99."))
	case errors.Is(err, catalog.ErrCategoryExists):
		writeValidation(w, fieldError("title", "The title has already been taken."))
	case errors.Is(err, review.ErrNotFound):
		writeError(w, http.StatusNotFound, "Failed to find the review.")
	case errors.Is(err, review.ErrNotAuthor):
		writeError(w, http.StatusUnauthorized, "You can delete only your review.")
	case errors.Is(err, review.ErrProductNotFound):
		writeValidation(w, fieldError("product_id", "The selected product id is invalid."))
	case errors.Is(err, auth.ErrEmailTaken):
		writeValidation(w, fieldError("email", "This email is already in use"))
	case errors.Is(err, auth.ErrPasswordTooLong):
		writeValidation(w, fieldError("password", "The password field must not be greater than 72 bytes."))
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
	case errors.Is(err, order.ErrNoLines):
		writeValidation(w, fieldError("items", "The order must contain at least one product."))
	case errors.As(err, &productMissing):
		writeValidation(w, fieldError("items."+strconv.Itoa(productMissing.Index)+".product_id", "Selected product does not exist."))
	case errors.As(err, &badQuantity):
		writeValidation(w, fieldError("items."+strconv.Itoa(badQuantity.Index)+".quantity", "Quantity must be at least 1."))
	case errors.As(err, &tooLarge) && tooLarge.Index < 0:
		writeValidation(w, fieldError("items", "The order total must not be greater than 9999999999.99."))
	case errors.As(err, &tooLarge):
		writeValidation(w, fieldError("items."+strconv.Itoa(tooLarge.Index)+".quantity", "The item subtotal must not be greater than 9999999999.99."))
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		writeError(w, http.StatusInternalServerError, "Something went wrong, please try again.")
	}
}

// bind decodes and validates the body, writing the error response itself. It
// reports whether the handler should continue.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	verr, err := decodeJSON(r, dst)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if !verr.Empty() {
		writeValidation(w, verr)
		return false
	}
	return true
}
