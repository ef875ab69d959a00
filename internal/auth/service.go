package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
)

// bcrypt only hashes the first 72 bytes and refuses anything longer.
const maxPasswordBytes = 72

type Service struct {
	repo       Repository
	tokens     *Tokens
	logger     *slog.Logger
	bcryptCost int
}

func NewService(repo Repository, tokens *Tokens, logger *slog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger, bcryptCost: bcrypt.DefaultCost}
}

// Register creates a customer account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, string, error) {
	if len(in.Password) > maxPasswordBytes {
		return User{}, "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return User{}, "", fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.CreateUser(ctx, in.Name, normalizeEmail(in.Email), string(hash))
	if err != nil {
		return User{}, "", err
	}

	token, err := s.issue(ctx, u)
	if err != nil {
		return User{}, "", err
	}
	s.logger.Info("user registered", "user_id", u.ID)
	return u, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := s.issue(ctx, u)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

// Logout revokes every token of the user.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	n, err := s.repo.DeleteUserTokens(ctx, userID)
	if err != nil {
		return err
	}
	s.logger.Info("user logged out", "user_id", userID, "revoked_tokens", n)
	return nil
}

// Authenticate resolves a bearer token to its user. The token must verify and still
// be stored.
func (s *Service) Authenticate(ctx context.Context, raw string) (User, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return User{}, ErrUnauthenticated
	}
	userID, err := claims.UserID()
	if err != nil {
		return User{}, ErrUnauthenticated
	}

	active, err := s.repo.TokenActive(ctx, claims.ID, userID)
	if err != nil {
		return User{}, err
	}
	if !active {
		return User{}, ErrUnauthenticated
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrUnauthenticated
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) issue(ctx context.Context, u User) (string, error) {
	token, id, expires, err := s.tokens.Issue(u)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := s.repo.StoreToken(ctx, id, u.ID, expires); err != nil {
		return "", err
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
