package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrProductNotFound = errors.New("product not found")
)

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	List(ctx context.Context) ([]Review, error)
	Get(ctx context.Context, id int64) (Review, error)
	Create(ctx context.Context, authorID int64, in Input) (Review, error)
	Delete(ctx context.Context, id int64) error
	AverageRating(ctx context.Context, productID int64) (float64, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectReviews = `SELECT id, product_id, user_id, rating, title, body, created_at FROM reviews`

func (r *PostgresRepository) List(ctx context.Context) ([]Review, error) {
	rows, err := r.pool.Query(ctx, selectReviews+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		var rv Review
		if err := scan(rows, &rv); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (Review, error) {
	var rv Review
	if err := scan(r.pool.QueryRow(ctx, selectReviews+` WHERE id=$1`, id), &rv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, fmt.Errorf("get review %d: %w", id, err)
	}
	return rv, nil
}

func (r *PostgresRepository) Create(ctx context.Context, authorID int64, in Input) (Review, error) {
	rv := Review{
		ProductID: in.ProductID,
		UserID:    authorID,
		Rating:    in.Rating,
		Title:     in.Title,
		Body:      in.Body,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (product_id, user_id, rating, title, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, in.ProductID, authorID, in.Rating, in.Title, in.Body).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Review{}, ErrProductNotFound
		}
		return Review{}, fmt.Errorf("insert review: %w", err)
	}
	return rv, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete review %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AverageRating is the mean rating of a product rounded to two decimals, 0 without
// reviews.
func (r *PostgresRepository) AverageRating(ctx context.Context, productID int64) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(ROUND(AVG(rating), 2), 0)::float8
		FROM reviews
		WHERE product_id=$1
	`, productID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average rating for product %d: %w", productID, err)
	}
	return avg, nil
}

func scan(row pgx.Row, rv *Review) error {
	return row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Body, &rv.CreatedAt)
}
