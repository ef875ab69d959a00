package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cache"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	products  map[int64]Product
	nextID    int64
	listCalls int
	lastPage  Page
}

func newFakeRepo(products ...Product) *fakeRepo {
	f := &fakeRepo{products: map[int64]Product{}, nextID: 100}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeRepo) ListProducts(ctx context.Context, values filter.Values, page Page) ([]Product, error) {
	f.listCalls++
	f.lastPage = page
	out := []Product{}
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) FindProductByTitle(ctx context.Context, title string) (Product, error) {
	for _, p := range f.products {
		if p.Title == title {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (f *fakeRepo) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	if in.CategoryID == 0 {
		return Product{}, ErrCategoryNotFound
	}
	f.nextID++
	p := Product{ID: f.nextID, Title: in.Title, Price: in.Price, CategoryID: in.CategoryID}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeRepo) UpdateProduct(ctx context.Context, id int64, in ProductInput) error {
	p, ok := f.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Title, p.Price = in.Title, in.Price
	f.products[id] = p
	return nil
}

func (f *fakeRepo) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeRepo) ListCategories(ctx context.Context) ([]Category, error) { return nil, nil }

func (f *fakeRepo) CreateCategory(ctx context.Context, title string) (Category, error) {
	return Category{ID: 1, Title: title}, nil
}

// memCache mimics RedisCache with JSON round trips.
type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(ctx context.Context, key string, dest any) error {
	b, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(b, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func (m *memCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestService_ListProductsUsesCache(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(Product{ID: 1, Title: "Lamp", Price: 10})
	c := newMemCache()
	svc := NewService(repo, c, discard())

	values := filter.Values{filter.KeyTitle: "Lamp", "ignored": "x"}

	first, err := svc.ListProducts(ctx, values, Page{})
	require.NoError(t, err)
	second, err := svc.ListProducts(ctx, filter.Values{filter.KeyTitle: "Lamp"}, Page{})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls, "unknown keys must not split the cache")
	assert.Equal(t, first[0].Title, second[0].Title)

	_, err = svc.ListProducts(ctx, values, Page{Page: 2, PerPage: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
	assert.Equal(t, Page{Page: 2, PerPage: 5}, repo.lastPage)
}

func TestService_WritesInvalidateListings(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(Product{ID: 1, Title: "Lamp", Price: 10, CategoryID: 1})
	c := newMemCache()
	svc := NewService(repo, c, discard())

	_, err := svc.ListProducts(ctx, nil, Page{})
	require.NoError(t, err)
	require.Len(t, c.data, 1)

	_, err = svc.UpdateProduct(ctx, 1, ProductInput{Title: "Lamp", Price: 12, CategoryID: 1})
	require.NoError(t, err)
	assert.Empty(t, c.data)

	_, err = svc.ListProducts(ctx, nil, Page{})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, 1))
	assert.Empty(t, c.data)
	assert.Equal(t, 2, repo.listCalls)
}

func TestService_CreateProductIsFirstOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(Product{ID: 1, Title: "Lamp", Price: 10, CategoryID: 1})
	svc := NewService(repo, nil, discard())

	p, created, err := svc.CreateProduct(ctx, ProductInput{Title: "Lamp", Price: 99, CategoryID: 1})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, 10.0, p.Price)

	p, created, err = svc.CreateProduct(ctx, ProductInput{Title: "Desk", Price: 99, CategoryID: 1})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Desk", p.Title)

	_, _, err = svc.CreateProduct(ctx, ProductInput{Title: "Chair", CategoryID: 0})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestService_UpdateMissingProduct(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, discard())
	_, err := svc.UpdateProduct(context.Background(), 5, ProductInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteProduct(context.Background(), 5), ErrNotFound)
}
