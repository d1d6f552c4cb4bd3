package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/example/rental-marketplace/internal/application"
	"github.com/example/rental-marketplace/internal/persistence"
)

type apartmentService interface {
	CreateApartment(ctx context.Context, params application.CreateApartmentParams) (persistence.Apartment, error)
	UpdateApartment(ctx context.Context, params application.UpdateApartmentParams) (persistence.Apartment, error)
	DeleteApartment(ctx context.Context, principal application.Principal, apartmentID string) error
	GetApartment(ctx context.Context, apartmentID string) (persistence.Apartment, error)
	ListApartments(ctx context.Context, entrepreneurID string) ([]persistence.Apartment, error)
}

type ApartmentHandler struct {
	service   apartmentService
	responder responder
	logger    *slog.Logger
}

func NewApartmentHandler(service apartmentService, logger *slog.Logger) *ApartmentHandler {
	base := defaultLogger(logger)
	return &ApartmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ApartmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ApartmentHandler", operation, attrs...)
}

func (h *ApartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	entrepreneurID := strings.TrimSpace(r.URL.Query().Get("entrepreneurId"))

	apartments, err := h.service.ListApartments(r.Context(), entrepreneurID)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "apartment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result := make([]apartmentDTO, 0, len(apartments))
	for _, apartment := range apartments {
		result = append(result, toApartmentDTO(apartment))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, result)
}

func (h *ApartmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	apartmentID := mux.Vars(r)["id"]

	apartment, err := h.service.GetApartment(r.Context(), apartmentID)
	if err != nil {
		h.log(r.Context(), "Get", "apartment_id", apartmentID).WarnContext(r.Context(), "apartment lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toApartmentDTO(apartment))
}

func (h *ApartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req apartmentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode apartment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	apartment, err := h.service.CreateApartment(r.Context(), application.CreateApartmentParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "apartment creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("apartment_id", apartment.ID).InfoContext(r.Context(), "apartment created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toApartmentDTO(apartment))
}

func (h *ApartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	apartmentID := mux.Vars(r)["id"]

	var req apartmentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "apartment_id", apartmentID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode apartment update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "apartment_id", apartmentID)

	apartment, err := h.service.UpdateApartment(r.Context(), application.UpdateApartmentParams{
		Principal:   principal,
		ApartmentID: apartmentID,
		Input:       req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "apartment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "apartment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toApartmentDTO(apartment))
}

func (h *ApartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	apartmentID := mux.Vars(r)["id"]
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "apartment_id", apartmentID)

	if err := h.service.DeleteApartment(r.Context(), principal, apartmentID); err != nil {
		logger.WarnContext(r.Context(), "apartment delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "apartment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type apartmentRequest struct {
	EntrepreneurID string          `json:"entrepreneurId"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Location       string          `json:"location"`
	PricePerNight  decimal.Decimal `json:"pricePerNight"`
	Features       []string        `json:"features"`
	Rules          []string        `json:"rules"`
}

func (r apartmentRequest) toInput() application.ApartmentInput {
	return application.ApartmentInput{
		EntrepreneurID: r.EntrepreneurID,
		Title:          r.Title,
		Description:    r.Description,
		Location:       r.Location,
		PricePerNight:  r.PricePerNight,
		Features:       r.Features,
		Rules:          r.Rules,
	}
}

type apartmentDTO struct {
	ID             string          `json:"id"`
	EntrepreneurID string          `json:"entrepreneurId"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Location       string          `json:"location"`
	PricePerNight  decimal.Decimal `json:"pricePerNight"`
	Features       []string        `json:"features"`
	Rules          []string        `json:"rules"`
	AvgRating      float64         `json:"avgRating"`
	ReviewCount    int             `json:"reviewCount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toApartmentDTO(apartment persistence.Apartment) apartmentDTO {
	features := apartment.Features
	if features == nil {
		features = []string{}
	}
	rules := apartment.Rules
	if rules == nil {
		rules = []string{}
	}
	return apartmentDTO{
		ID:             apartment.ID,
		EntrepreneurID: apartment.EntrepreneurID,
		Title:          apartment.Title,
		Description:    apartment.Description,
		Location:       apartment.Location,
		PricePerNight:  apartment.PricePerNight,
		Features:       features,
		Rules:          rules,
		AvgRating:      apartment.AvgRating,
		ReviewCount:    apartment.ReviewCount,
		CreatedAt:      apartment.CreatedAt,
		UpdatedAt:      apartment.UpdatedAt,
	}
}
