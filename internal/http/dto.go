package httpapi

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/review"
)

// Requests.

type registerRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
}

func (registerRequest) messages() map[string]string {
	return map[string]string{
		"password.max": "The password field must not be greater than 72 bytes.",
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type productRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0,lte=9999999999.99"`
	OldPrice    *float64 `json:"old_price" validate:"omitempty,gte=0,lte=9999999999.99"`
	Count       *int     `json:"count" validate:"required,gte=0,lte=2147483647"`
	CategoryID  int64    `json:"category_id" validate:"required,gt=0"`
}

func (productRequest) messages() map[string]string {
	return map[string]string{
		"title.required":       "Please write the title",
		"description.required": "Please write the description",
		"price.required":       "Please enter the price",
		"price.gte":            "Price must be a positive value.",
		"price.lte":            "Price must not be greater than 9999999999.99.",
		"old_price.gte":        "Old price must be a positive value.",
		"old_price.lte":        "Old price must not be greater than 9999999999.99.",
		"count.required":       "Please enter the count",
		"count.gte":            "Count must be a positive value.",
		"count.lte":            "Count must not be greater than 2147483647.",
		"category_id.required": "It seems like this category does not exist",
		"category_id.gt":       "It seems like this category does not exist",
	}
}

func (p productRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		Title:       p.Title,
		Description: p.Description,
		Price:       *p.Price,
		OldPrice:    p.OldPrice,
		Count:       *p.Count,
		CategoryID:  p.CategoryID,
	}
}

type categoryRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type reviewRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title     string `json:"title" validate:"required,max=255"`
	Body      string `json:"body" validate:"required"`
}

type orderRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type orderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1,lte=2147483647"`
}

func (orderRequest) messages() map[string]string {
	return map[string]string{
		"items.required":              "The order must contain at least one product.",
		"items.min":                   "The order must contain at least one product.",
		"items.*.product_id.required": "Each item must have a valid product ID.",
		"items.*.product_id.gt":       "Each item must have a valid product ID.",
		"items.*.quantity.required":   "Each item must have a quantity.",
		"items.*.quantity.gte":        "Quantity must be at least 1.",
		"items.*.quantity.lte":        "Quantity must not be greater than 2147483647.",
	}
}

func (o orderRequest) lines() []order.Line {
	out := make([]order.Line, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, order.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// Resources.

const reviewDateLayout = "January 2, 2006"

type reviewResource struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	UserID    int64  `json:"user_id"`
	ProductID int64  `json:"product_id"`
	Rating    int    `json:"rating"`
	Body      string `json:"body"`
	Date      string `json:"date"`
}

func newReviewResource(rv review.Review) reviewResource {
	return reviewResource{
		ID:        rv.ID,
		Title:     rv.Title,
		UserID:    rv.UserID,
		ProductID: rv.ProductID,
		Rating:    rv.Rating,
		Body:      rv.Body,
		Date:      rv.CreatedAt.Format(reviewDateLayout),
	}
}

func newReviewResources(rvs []review.Review) []reviewResource {
	out := make([]reviewResource, 0, len(rvs))
	for _, rv := range rvs {
		out = append(out, newReviewResource(rv))
	}
	return out
}

type productResource struct {
	ID            int64            `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Price         float64          `json:"price"`
	OldPrice      *float64         `json:"old_price"`
	Count         int              `json:"count"`
	CategoryID    int64            `json:"category_id"`
	Reviews       []reviewResource `json:"reviews"`
	AverageRating float64          `json:"average_rating"`
}

func newProductResource(p catalog.Product) productResource {
	return productResource{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price,
		OldPrice:      p.OldPrice,
		Count:         p.Count,
		CategoryID:    p.CategoryID,
		Reviews:       newReviewResources(p.Reviews),
		AverageRating: p.AverageRating,
	}
}

type categoryResource struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type orderItemResource struct {
	ProductID    int64   `json:"product_id"`
	ProductTitle string  `json:"product_title"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Subtotal     float64 `json:"subtotal"`
}

type orderResource struct {
	ID         int64               `json:"id"`
	TotalPrice float64             `json:"total_price"`
	OrderedAt  time.Time           `json:"ordered_at"`
	Items      []orderItemResource `json:"items"`
}

func newOrderResource(o order.Order) orderResource {
	items := make([]orderItemResource, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResource{
			ProductID:    it.ProductID,
			ProductTitle: it.ProductTitle,
			Quantity:     it.Quantity,
			Price:        it.Price,
			Subtotal:     it.Subtotal,
		})
	}
	return orderResource{ID: o.ID, TotalPrice: o.TotalPrice, OrderedAt: o.OrderedAt, Items: items}
}

type userResource struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func newUserResource(u auth.User) userResource {
	return userResource{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
