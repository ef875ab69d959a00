package httpapi

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/review"
)

type reviewCreated struct {
	Review        reviewResource `json:"review"`
	AverageRating float64        `json:"average_rating"`
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	rvs, err := h.reviews.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, newReviewResources(rvs), "")
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !bind(w, r, &req) {
		return
	}

	rv, avg, err := h.reviews.Create(r.Context(), currentUser(r).ID, review.Input{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Title:     req.Title,
		Body:      req.Body,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, reviewCreated{Review: newReviewResource(rv), AverageRating: avg}, "Review successfully added!")
}

func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Failed to find the review.")
		return
	}
	if err := h.reviews.Delete(r.Context(), subject(currentUser(r)), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "You deleted your review.")
}
