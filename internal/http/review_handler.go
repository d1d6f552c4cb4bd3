package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/rental-marketplace/internal/application"
	"github.com/example/rental-marketplace/internal/persistence"
)

type reviewService interface {
	CreateReview(ctx context.Context, params application.CreateReviewParams) (persistence.Review, error)
	ListReviews(ctx context.Context, apartmentID string) ([]persistence.Review, error)
	DeleteReview(ctx context.Context, principal application.Principal, reviewID string) error
}

type ReviewHandler struct {
	service   reviewService
	responder responder
	logger    *slog.Logger
}

func NewReviewHandler(service reviewService, logger *slog.Logger) *ReviewHandler {
	base := defaultLogger(logger)
	return &ReviewHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReviewHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReviewHandler", operation, attrs...)
}

// List handles GET /apartments/{id}/reviews.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	apartmentID := mux.Vars(r)["id"]

	reviews, err := h.service.ListReviews(r.Context(), apartmentID)
	if err != nil {
		h.log(r.Context(), "List", "apartment_id", apartmentID).WarnContext(r.Context(), "review list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result := make([]reviewDTO, 0, len(reviews))
	for _, review := range reviews {
		result = append(result, toReviewDTO(review))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, result)
}

// Create handles POST /apartments/{id}/reviews; the apartment comes from the path.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	apartmentID := mux.Vars(r)["id"]

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode review", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "apartment_id", apartmentID)

	review, err := h.service.CreateReview(r.Context(), application.CreateReviewParams{
		Principal: principal,
		Input: application.ReviewInput{
			ApartmentID: apartmentID,
			Rating:      req.Rating,
			Comment:     req.Comment,
		},
	})
	if err != nil {
		logger.WarnContext(r.Context(), "review creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("review_id", review.ID).InfoContext(r.Context(), "review created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReviewDTO(review))
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	reviewID := mux.Vars(r)["id"]
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "review_id", reviewID)

	if err := h.service.DeleteReview(r.Context(), principal, reviewID); err != nil {
		logger.WarnContext(r.Context(), "review delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "review deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type reviewDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ApartmentID string    `json:"apartmentId"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toReviewDTO(review persistence.Review) reviewDTO {
	return reviewDTO{
		ID:          review.ID,
		UserID:      review.UserID,
		ApartmentID: review.ApartmentID,
		Rating:      review.Rating,
		Comment:     review.Comment,
		CreatedAt:   review.CreatedAt,
	}
}
