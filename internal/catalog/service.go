package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cache"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/filter"
)

const listingKeyPrefix = "products:list:"

// Cache is the subset of cache.RedisCache the catalog uses.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

type Service struct {
	repo     Repository
	cache    Cache
	composer *filter.Composer
	logger   *slog.Logger
}

// NewService wires the catalog. A nil cache disables listing caching.
func NewService(repo Repository, c Cache, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{repo: repo, cache: c, composer: filter.Products(), logger: logger}
}

func (s *Service) listingKey(values filter.Values, page Page) string {
	return fmt.Sprintf("%s%s|page=%d&per_page=%d", listingKeyPrefix, s.composer.Fingerprint(values), page.Page, page.PerPage)
}

func (s *Service) ListProducts(ctx context.Context, values filter.Values, page Page) ([]Product, error) {
	key := s.listingKey(values, page)

	var products []Product
	err := s.cache.Get(ctx, key, &products)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("listing cache read failed", "key", key, "err", err)
	}

	products, err = s.repo.ListProducts(ctx, values, page)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, products); err != nil {
		s.logger.Warn("listing cache write failed", "key", key, "err", err)
	}
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// CreateProduct returns the product already carrying in.Title if there is one, and
// reports whether a new row was written.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, bool, error) {
	existing, err := s.repo.FindProductByTitle(ctx, in.Title)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Product{}, false, err
	}

	p, err := s.repo.CreateProduct(ctx, in)
	if err != nil {
		return Product{}, false, err
	}
	s.InvalidateListings(ctx)
	s.logger.Info("product created", "product_id", p.ID, "category_id", p.CategoryID)
	return p, true, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	if err := s.repo.UpdateProduct(ctx, id, in); err != nil {
		return Product{}, err
	}
	s.InvalidateListings(ctx)
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.InvalidateListings(ctx)
	s.logger.Info("product deleted", "product_id", id)
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, title string) (Category, error) {
	return s.repo.CreateCategory(ctx, title)
}

// InvalidateListings drops every cached listing. Failures are logged only; entries
// expire on their own.
func (s *Service) InvalidateListings(ctx context.Context) {
	if err := s.cache.DeleteByPrefix(ctx, listingKeyPrefix); err != nil {
		s.logger.Warn("listing cache invalidation failed", "err", err)
	}
}
