package catalog

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/filter"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/review"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound         = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrValueOutOfRange  = errors.New("product value out of range")
)

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	ListProducts(ctx context.Context, values filter.Values, page Page) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	FindProductByTitle(ctx context.Context, title string) (Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) error
	DeleteProduct(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, title string) (Category, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresRepository struct {
	pool     DBPool
	composer *filter.Composer
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool, composer: filter.Products()}
}

func selectProducts() sq.SelectBuilder {
	return psql.Select(
		"p.id",
		"p.title",
		"p.description",
		"p.price::float8",
		"p.old_price::float8",
		"p.count",
		"p.category_id",
		"COALESCE(ROUND((SELECT AVG(r.rating) FROM reviews r WHERE r.product_id = p.id), 2), 0)::float8 AS average_rating",
		"p.created_at",
		"p.updated_at",
	).From("products p")
}

func (r *PostgresRepository) ListProducts(ctx context.Context, values filter.Values, page Page) ([]Product, error) {
	b := r.composer.Apply(selectProducts(), values).OrderBy("p.id ASC")
	if page.PerPage > 0 {
		b = b.Limit(uint64(page.PerPage)).Offset(page.offset())
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachReviews(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (Product, error) {
	return r.getOne(ctx, sq.Eq{"p.id": id})
}

func (r *PostgresRepository) FindProductByTitle(ctx context.Context, title string) (Product, error) {
	return r.getOne(ctx, sq.Eq{"p.title": title})
}

func (r *PostgresRepository) getOne(ctx context.Context, where sq.Sqlizer) (Product, error) {
	query, args, err := selectProducts().Where(where).OrderBy("p.id ASC").Limit(1).ToSql()
	if err != nil {
		return Product{}, fmt.Errorf("build product query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return Product{}, err
	}
	if len(products) == 0 {
		return Product{}, ErrNotFound
	}
	if err := r.attachReviews(ctx, products); err != nil {
		return Product{}, err
	}
	return products[0], nil
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	p := Product{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		OldPrice:    in.OldPrice,
		Count:       in.Count,
		CategoryID:  in.CategoryID,
		Reviews:     []review.Review{},
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (title, description, price, old_price, count, category_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, in.Title, in.Description, in.Price, in.OldPrice, in.Count, in.CategoryID).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Product{}, ErrCategoryNotFound
		}
		if db.IsNumericOutOfRange(err) {
			return Product{}, ErrValueOutOfRange
		}
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, id int64, in ProductInput) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET title=$2, description=$3, price=$4, old_price=$5, count=$6, category_id=$7, updated_at=now()
		WHERE id=$1
	`, id, in.Title, in.Description, in.Price, in.OldPrice, in.Count, in.CategoryID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		if db.IsNumericOutOfRange(err) {
			return ErrValueOutOfRange
		}
		return fmt.Errorf("update product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, created_at FROM categories ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, title string) (Category, error) {
	c := Category{Title: title}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (title) VALUES ($1)
		RETURNING id, created_at
	`, title).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, ErrCategoryExists
		}
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) attachReviews(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	index := make(map[int64]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = i
		products[i].Reviews = []review.Review{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, user_id, rating, title, body, created_at
		FROM reviews
		WHERE product_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return fmt.Errorf("load reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rv review.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Body, &rv.CreatedAt); err != nil {
			return fmt.Errorf("scan review: %w", err)
		}
		if i, ok := index[rv.ProductID]; ok {
			products[i].Reviews = append(products[i].Reviews, rv)
		}
	}
	return rows.Err()
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Price, &p.OldPrice, &p.Count,
			&p.CategoryID, &p.AverageRating, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}
