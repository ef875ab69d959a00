package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/authz"
)

// ErrNotAuthor is returned when someone other than the author deletes a review.
var ErrNotAuthor = errors.New("review belongs to another user")

type Authorizer interface {
	Allow(sub authz.Subject, obj, act string, ownerID int64) (bool, error)
}

// ListingInvalidator drops cached product listings, which embed reviews.
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context)
}

type Service struct {
	repo   Repository
	authz  Authorizer
	inval  ListingInvalidator
	logger *slog.Logger
}

func NewService(repo Repository, az Authorizer, inval ListingInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, authz: az, inval: inval, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]Review, error) {
	return s.repo.List(ctx)
}

// Create stores the review and returns it with the product's new average rating.
func (s *Service) Create(ctx context.Context, authorID int64, in Input) (Review, float64, error) {
	rv, err := s.repo.Create(ctx, authorID, in)
	if err != nil {
		return Review{}, 0, err
	}
	s.inval.InvalidateListings(ctx)

	avg, err := s.repo.AverageRating(ctx, in.ProductID)
	if err != nil {
		return Review{}, 0, err
	}
	s.logger.Info("review created", "review_id", rv.ID, "product_id", rv.ProductID, "user_id", authorID)
	return rv, avg, nil
}

func (s *Service) Delete(ctx context.Context, actor authz.Subject, id int64) error {
	rv, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.authz.Allow(actor, authz.ObjReview, authz.ActDelete, rv.UserID)
	if err != nil {
		return fmt.Errorf("authorize review delete: %w", err)
	}
	if !ok {
		return ErrNotAuthor
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.inval.InvalidateListings(ctx)
	s.logger.Info("review deleted", "review_id", id, "user_id", actor.ID)
	return nil
}
