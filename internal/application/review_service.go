package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/rental-marketplace/internal/persistence"
)

// ReviewStore captures the persistence operations needed by the review service.
type ReviewStore interface {
	persistence.ReviewRepository
	GetApartment(ctx context.Context, id string) (persistence.Apartment, error)
}

// ReviewService records guest ratings. Apartment averages are derived from
// these rows whenever a listing is read.
type ReviewService struct {
	reviews     ReviewStore
	policy      *AccessPolicy
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewReviewService wires dependencies for review operations.
func NewReviewService(reviews ReviewStore, idGenerator func() string, now func() time.Time, policy *AccessPolicy, logger *slog.Logger) *ReviewService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if policy == nil {
		policy = MustAccessPolicy()
	}
	return &ReviewService{reviews: reviews, policy: policy, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// CreateReview stores a rating from the principal.
func (s *ReviewService) CreateReview(ctx context.Context, params CreateReviewParams) (review persistence.Review, err error) {
	if s == nil {
		err = fmt.Errorf("ReviewService is nil")
		return
	}
	principal := params.Principal
	input := params.Input
	input.ApartmentID = strings.TrimSpace(input.ApartmentID)
	input.Comment = strings.TrimSpace(input.Comment)

	logger := serviceLogger(ctx, s.logger, "ReviewService", "CreateReview",
		"principal_id", principal.UserID,
		"apartment_id", input.ApartmentID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "review created", "review_id", review.ID)
	}()

	if err = s.policy.authorize(principal, resourceReview, actionCreate); err != nil {
		return
	}
	if vErr := validateInput(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if _, err = s.reviews.GetApartment(ctx, input.ApartmentID); err != nil {
		err = mapRepoError(err)
		return
	}

	candidate := persistence.Review{
		ID:          s.idGenerator(),
		UserID:      principal.UserID,
		ApartmentID: input.ApartmentID,
		Rating:      input.Rating,
		Comment:     input.Comment,
		CreatedAt:   s.now(),
	}
	if err = s.reviews.CreateReview(ctx, candidate); err != nil {
		err = mapRepoError(err)
		return
	}
	review = candidate
	return
}

// ListReviews returns the reviews of an apartment, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, apartmentID string) ([]persistence.Review, error) {
	if s == nil {
		return nil, fmt.Errorf("ReviewService is nil")
	}
	if _, err := s.reviews.GetApartment(ctx, apartmentID); err != nil {
		return nil, mapRepoError(err)
	}
	reviews, err := s.reviews.ListReviews(ctx, apartmentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if reviews == nil {
		reviews = []persistence.Review{}
	}
	return reviews, nil
}

// DeleteReview removes a review by its author or an administrator.
func (s *ReviewService) DeleteReview(ctx context.Context, principal Principal, reviewID string) (err error) {
	if s == nil {
		return fmt.Errorf("ReviewService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "ReviewService", "DeleteReview",
		"principal_id", principal.UserID,
		"review_id", reviewID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "review deleted")
	}()

	if err = s.policy.authorize(principal, resourceReview, actionDelete); err != nil {
		return
	}
	existing, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if !principal.owns(existing.UserID) && !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	err = mapRepoError(s.reviews.DeleteReview(ctx, reviewID))
	return
}
