package catalog

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/review"
)

type Category struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is the read model of a catalog entry. AverageRating is derived from its
// reviews and never stored.
type Product struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Price         float64         `json:"price"`
	OldPrice      *float64        `json:"old_price"`
	Count         int             `json:"count"`
	CategoryID    int64           `json:"category_id"`
	AverageRating float64         `json:"average_rating"`
	Reviews       []review.Review `json:"reviews"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductInput carries every writable product field.
type ProductInput struct {
	Title       string
	Description string
	Price       float64
	OldPrice    *float64
	Count       int
	CategoryID  int64
}

// Page selects a window of the listing. PerPage 0 returns everything.
type Page struct {
	Page    int
	PerPage int
}

func (p Page) offset() uint64 {
	if p.Page <= 1 {
		return 0
	}
	return uint64((p.Page - 1) * p.PerPage)
}
