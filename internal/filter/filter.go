// Package filter composes whitelisted product filters onto a squirrel select builder.
//
// A Composer holds an ordered registry of named handlers. Apply walks the registry in
// declaration order and, for every key present in the input, lets the handler add a
// predicate or an ordering clause. Keys missing from the registry are ignored.
//
// Handlers reference the products table through the alias "p", so the base query must
// select FROM products p.
package filter

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Key names a filter recognised in query strings.
type Key string

const (
	KeyCategories Key = "categories"
	KeyPrices     Key = "prices"
	KeySortBy     Key = "sortby"
	KeyTitle      Key = "title"
	KeyHighRated  Key = "highRated"
)

// Accepted sortby values.
const (
	SortBestseller = "bestseller"
	SortSale       = "sale"
	SortTitleAsc   = "title(ASC)"
	SortTitleDesc  = "title(DESC)"
	SortPriceAsc   = "price(ASC)"
	SortPriceDesc  = "price(DESC)"
)

// HighRatedThreshold is the average rating a product must exceed to pass highRated.
const HighRatedThreshold = 4

// Values carries already-validated filter input. Expected value types:
//
//	categories []int64
//	prices     PriceRange
//	sortby     string
//	title      string
//	highRated  bool
//
// A value of the wrong type is skipped.
type Values map[Key]any

// PriceRange is an inclusive price interval.
type PriceRange struct {
	Low  float64
	High float64
}

// Handler mutates the builder for one filter value.
type Handler func(b sq.SelectBuilder, value any) sq.SelectBuilder

type entry struct {
	key    Key
	handle Handler
}

// Composer is a fixed, ordered registry of filter handlers.
type Composer struct {
	entries []entry
}

// NewComposer returns an empty composer. Register order is application order.
func NewComposer() *Composer {
	return &Composer{}
}

// Register adds a handler for key. A second registration for the same key replaces
// the handler but keeps its original position.
func (c *Composer) Register(key Key, h Handler) *Composer {
	for i := range c.entries {
		if c.entries[i].key == key {
			c.entries[i].handle = h
			return c
		}
	}
	c.entries = append(c.entries, entry{key: key, handle: h})
	return c
}

// Keys lists registered keys in application order.
func (c *Composer) Keys() []Key {
	keys := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Apply runs every registered handler whose key is present in values.
func (c *Composer) Apply(b sq.SelectBuilder, values Values) sq.SelectBuilder {
	for _, e := range c.entries {
		v, ok := values[e.key]
		if !ok {
			continue
		}
		b = e.handle(b, v)
	}
	return b
}

// Fingerprint renders the recognised part of values as a stable string, in
// registry order. Unknown keys do not contribute.
func (c *Composer) Fingerprint(values Values) string {
	var sb strings.Builder
	for _, e := range c.entries {
		v, ok := values[e.key]
		if !ok {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		fmt.Fprintf(&sb, "%s=%v", e.key, v)
	}
	return sb.String()
}

// Products is the composer used for the product listing.
func Products() *Composer {
	return NewComposer().
		Register(KeyCategories, typed(categories)).
		Register(KeyPrices, typed(prices)).
		Register(KeySortBy, typed(sortBy)).
		Register(KeyTitle, typed(title)).
		Register(KeyHighRated, typed(highRated))
}

func typed[T any](fn func(sq.SelectBuilder, T) sq.SelectBuilder) Handler {
	return func(b sq.SelectBuilder, value any) sq.SelectBuilder {
		v, ok := value.(T)
		if !ok {
			return b
		}
		return fn(b, v)
	}
}

func categories(b sq.SelectBuilder, ids []int64) sq.SelectBuilder {
	return b.Where(sq.Eq{"p.category_id": ids})
}

func prices(b sq.SelectBuilder, r PriceRange) sq.SelectBuilder {
	return b.Where(sq.Expr("p.price BETWEEN ? AND ?", r.Low, r.High))
}

func title(b sq.SelectBuilder, s string) sq.SelectBuilder {
	if s == "" {
		return b
	}
	return b.Where(sq.ILike{"p.title": "%" + escapeLike(s) + "%"})
}

// sale narrows the rows instead of ordering them.
func sortBy(b sq.SelectBuilder, v string) sq.SelectBuilder {
	switch v {
	case SortBestseller:
		return b.OrderBy("(SELECT COALESCE(SUM(oi.quantity), 0) FROM order_items oi WHERE oi.product_id = p.id) DESC")
	case SortSale:
		return b.Where(sq.NotEq{"p.old_price": nil})
	case SortTitleAsc:
		return b.OrderBy("p.title ASC")
	case SortTitleDesc:
		return b.OrderBy("p.title DESC")
	case SortPriceAsc:
		return b.OrderBy("p.price ASC")
	case SortPriceDesc:
		return b.OrderBy("p.price DESC")
	default:
		return b.OrderBy("p.created_at ASC")
	}
}

func highRated(b sq.SelectBuilder, on bool) sq.SelectBuilder {
	if !on {
		return b
	}
	return b.Where(sq.Expr(
		"COALESCE((SELECT AVG(r.rating) FROM reviews r WHERE r.product_id = p.id), 0) > ?",
		HighRatedThreshold,
	))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
