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
	"github.com/example/rental-marketplace/internal/booking"
	"github.com/example/rental-marketplace/internal/persistence"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (persistence.BookingDetails, error)
	TransitionBooking(ctx context.Context, params application.TransitionBookingParams) (persistence.BookingDetails, error)
	GetBooking(ctx context.Context, principal application.Principal, bookingID string) (persistence.BookingDetails, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]persistence.BookingDetails, error)
	BlockedDates(ctx context.Context, apartmentID string) ([]time.Time, error)
	Quote(ctx context.Context, apartmentID string, start, end time.Time) (booking.Quote, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	params := application.ListBookingsParams{
		Principal:      principal,
		UserID:         strings.TrimSpace(query.Get("userId")),
		ApartmentID:    strings.TrimSpace(query.Get("apartmentId")),
		EntrepreneurID: strings.TrimSpace(query.Get("entrepreneurId")),
		Statuses:       splitList(query["status"]),
	}
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	bookings, err := h.service.ListBookings(r.Context(), params)
	if err != nil {
		logger.WarnContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(bookings)).InfoContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingDTOs(bookings))
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	bookingID := mux.Vars(r)["id"]
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "booking_id", bookingID)

	details, err := h.service.GetBooking(r.Context(), principal, bookingID)
	if err != nil {
		logger.WarnContext(r.Context(), "booking lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingDTO(details))
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "apartment_id", input.ApartmentID)

	details, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "booking request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", details.ID).InfoContext(r.Context(), "booking requested")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toBookingDTO(details))
}

// Transition handles PATCH /bookings/{id}. Only the status field is accepted.
func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	bookingID := mux.Vars(r)["id"]

	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Transition", "principal_id", principal.UserID, "booking_id", bookingID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode status change", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Transition", "principal_id", principal.UserID, "booking_id", bookingID, "status", req.Status)

	details, err := h.service.TransitionBooking(r.Context(), application.TransitionBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Status:    req.Status,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "status change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingDTO(details))
}

func (h *BookingHandler) BlockedDates(w http.ResponseWriter, r *http.Request) {
	apartmentID := mux.Vars(r)["id"]

	dates, err := h.service.BlockedDates(r.Context(), apartmentID)
	if err != nil {
		h.log(r.Context(), "BlockedDates", "apartment_id", apartmentID).WarnContext(r.Context(), "blocked dates lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	formatted := make([]string, 0, len(dates))
	for _, day := range dates {
		formatted = append(formatted, booking.FormatDate(day))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, blockedDatesResponse{ApartmentID: apartmentID, Dates: formatted})
}

func (h *BookingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	apartmentID := mux.Vars(r)["id"]
	query := r.URL.Query()

	start, err := parseDay("startDate", query.Get("startDate"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	end, err := parseDay("endDate", query.Get("endDate"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	quote, err := h.service.Quote(r.Context(), apartmentID, start, end)
	if err != nil {
		h.log(r.Context(), "Quote", "apartment_id", apartmentID).WarnContext(r.Context(), "quote failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, quoteDTO{
		ApartmentID: apartmentID,
		StartDate:   booking.FormatDate(start),
		EndDate:     booking.FormatDate(end),
		Nights:      quote.Nights,
		NightlyRate: quote.NightlyRate,
		Subtotal:    quote.Subtotal,
		CleaningFee: quote.CleaningFee,
		ServiceFee:  quote.ServiceFee,
		Total:       quote.Total,
	})
}

type bookingRequest struct {
	UserID      string           `json:"userId"`
	ApartmentID string           `json:"apartmentId"`
	StartDate   string           `json:"startDate"`
	EndDate     string           `json:"endDate"`
	Status      string           `json:"status"`
	TotalPrice  *decimal.Decimal `json:"totalPrice"`
}

func (r bookingRequest) toInput() (application.BookingInput, error) {
	start, err := parseDay("startDate", r.StartDate)
	if err != nil {
		return application.BookingInput{}, err
	}
	end, err := parseDay("endDate", r.EndDate)
	if err != nil {
		return application.BookingInput{}, err
	}
	return application.BookingInput{
		UserID:      strings.TrimSpace(r.UserID),
		ApartmentID: strings.TrimSpace(r.ApartmentID),
		StartDate:   start,
		EndDate:     end,
		Status:      strings.TrimSpace(r.Status),
		TotalPrice:  r.TotalPrice,
	}, nil
}

type transitionRequest struct {
	Status string `json:"status"`
}

type bookingDTO struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	ApartmentID string              `json:"apartmentId"`
	StartDate   string              `json:"startDate"`
	EndDate     string              `json:"endDate"`
	Status      string              `json:"status"`
	TotalPrice  decimal.Decimal     `json:"totalPrice"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	User        bookingGuestDTO     `json:"user"`
	Apartment   bookingApartmentDTO `json:"apartment"`
}

type bookingGuestDTO struct {
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

type bookingApartmentDTO struct {
	Title          string          `json:"title"`
	PricePerNight  decimal.Decimal `json:"pricePerNight"`
	EntrepreneurID string          `json:"entrepreneurId"`
}

type blockedDatesResponse struct {
	ApartmentID string   `json:"apartmentId"`
	Dates       []string `json:"dates"`
}

type quoteDTO struct {
	ApartmentID string          `json:"apartmentId"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	Nights      int             `json:"nights"`
	NightlyRate decimal.Decimal `json:"nightlyRate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CleaningFee decimal.Decimal `json:"cleaningFee"`
	ServiceFee  decimal.Decimal `json:"serviceFee"`
	Total       decimal.Decimal `json:"total"`
}

func toBookingDTO(details persistence.BookingDetails) bookingDTO {
	return bookingDTO{
		ID:          details.ID,
		UserID:      details.UserID,
		ApartmentID: details.ApartmentID,
		StartDate:   booking.FormatDate(details.StartDate),
		EndDate:     booking.FormatDate(details.EndDate),
		Status:      details.Status.String(),
		TotalPrice:  details.TotalPrice,
		CreatedAt:   details.CreatedAt,
		UpdatedAt:   details.UpdatedAt,
		User: bookingGuestDTO{
			Username: details.Guest.Username,
			Balance:  details.Guest.Balance,
		},
		Apartment: bookingApartmentDTO{
			Title:          details.Apartment.Title,
			PricePerNight:  details.Apartment.PricePerNight,
			EntrepreneurID: details.Apartment.EntrepreneurID,
		},
	}
}

func toBookingDTOs(bookings []persistence.BookingDetails) []bookingDTO {
	result := make([]bookingDTO, 0, len(bookings))
	for _, details := range bookings {
		result = append(result, toBookingDTO(details))
	}
	return result
}

// parseDay accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar day. An empty value yields the zero time so required checks apply.
func parseDay(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if day, err := booking.ParseDate(value); err == nil {
		return day, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, application.NewFieldError(field, field+" must be a date in YYYY-MM-DD format")
	}
	return booking.Date(ts), nil
}

// splitList flattens repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
