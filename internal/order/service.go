package order

import (
	"context"
	"errors"
	"log/slog"
)

var ErrNoLines = errors.New("order must contain at least one item")

// Publisher announces placed orders.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, o Order) error
}

// ListingInvalidator drops cached product listings. Orders change the
// bestseller ranking.
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context)
}

type Service struct {
	repo   Repository
	pub    Publisher
	inval  ListingInvalidator
	logger *slog.Logger
}

func NewService(repo Repository, pub Publisher, inval ListingInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, pub: pub, inval: inval, logger: logger}
}

// Place validates lines, stores the order and publishes order.placed. A failed
// publish is logged and does not undo the order.
func (s *Service) Place(ctx context.Context, userID int64, lines []Line) (Order, error) {
	if len(lines) == 0 {
		return Order{}, ErrNoLines
	}
	for i, l := range lines {
		if l.Quantity < 1 {
			return Order{}, &InvalidQuantityError{Index: i, Quantity: l.Quantity}
		}
	}

	o, err := s.repo.Create(ctx, userID, lines)
	if err != nil {
		return Order{}, err
	}
	s.inval.InvalidateListings(ctx)
	s.logger.Info("order placed", "order_id", o.ID, "user_id", userID, "items", len(o.Items), "total", o.TotalPrice)

	if err := s.pub.PublishOrderPlaced(ctx, o); err != nil {
		s.logger.Error("publish order placed", "order_id", o.ID, "err", err)
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}
