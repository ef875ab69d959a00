package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)

	StoreToken(ctx context.Context, tokenID string, userID int64, expiresAt time.Time) error
	TokenActive(ctx context.Context, tokenID string, userID int64) (bool, error)
	DeleteUserTokens(ctx context.Context, userID int64) (int64, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectUsers = `SELECT id, name, email, password_hash, role, created_at, updated_at FROM users`

func (r *PostgresRepository) CreateUser(ctx context.Context, name, email, passwordHash string) (User, error) {
	u := User{Name: name, Email: email, PasswordHash: passwordHash}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, role, created_at, updated_at
	`, name, email, passwordHash).Scan(&u.ID, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, selectUsers+` WHERE email=$1`, email)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (User, error) {
	return r.findOne(ctx, selectUsers+` WHERE id=$1`, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) StoreToken(ctx context.Context, tokenID string, userID int64, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO access_tokens (id, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, tokenID, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// TokenActive reports whether the token is still stored for the user and unexpired.
func (r *PostgresRepository) TokenActive(ctx context.Context, tokenID string, userID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM access_tokens
			WHERE id=$1 AND user_id=$2 AND expires_at > now()
		)
	`, tokenID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check token: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) DeleteUserTokens(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM access_tokens WHERE user_id=$1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
