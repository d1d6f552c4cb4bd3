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

type contentService interface {
	ListSliders(ctx context.Context) ([]persistence.Slider, error)
	CreateSlider(ctx context.Context, principal application.Principal, input application.SliderInput) (persistence.Slider, error)
	UpdateSlider(ctx context.Context, principal application.Principal, sliderID string, input application.SliderInput) (persistence.Slider, error)
	DeleteSlider(ctx context.Context, principal application.Principal, sliderID string) error
	SubmitContact(ctx context.Context, input application.ContactInput) (persistence.Contact, error)
	ListContacts(ctx context.Context, principal application.Principal) ([]persistence.Contact, error)
	DeleteContact(ctx context.Context, principal application.Principal, contactID string) error
}

// ContentHandler serves homepage sliders and contact-form submissions.
type ContentHandler struct {
	service   contentService
	responder responder
	logger    *slog.Logger
}

func NewContentHandler(service contentService, logger *slog.Logger) *ContentHandler {
	base := defaultLogger(logger)
	return &ContentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ContentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ContentHandler", operation, attrs...)
}

func (h *ContentHandler) ListSliders(w http.ResponseWriter, r *http.Request) {
	sliders, err := h.service.ListSliders(r.Context())
	if err != nil {
		h.log(r.Context(), "ListSliders").ErrorContext(r.Context(), "slider list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result := make([]sliderDTO, 0, len(sliders))
	for _, slider := range sliders {
		result = append(result, toSliderDTO(slider))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, result)
}

func (h *ContentHandler) CreateSlider(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req sliderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "CreateSlider", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode slider", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateSlider", "principal_id", principal.UserID)

	slider, err := h.service.CreateSlider(r.Context(), principal, req.toInput())
	if err != nil {
		logger.WarnContext(r.Context(), "slider creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("slider_id", slider.ID).InfoContext(r.Context(), "slider created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSliderDTO(slider))
}

func (h *ContentHandler) UpdateSlider(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	sliderID := mux.Vars(r)["id"]

	var req sliderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "UpdateSlider", "principal_id", principal.UserID, "slider_id", sliderID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode slider", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateSlider", "principal_id", principal.UserID, "slider_id", sliderID)

	slider, err := h.service.UpdateSlider(r.Context(), principal, sliderID, req.toInput())
	if err != nil {
		logger.WarnContext(r.Context(), "slider update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "slider updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSliderDTO(slider))
}

func (h *ContentHandler) DeleteSlider(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	sliderID := mux.Vars(r)["id"]
	logger := h.log(r.Context(), "DeleteSlider", "principal_id", principal.UserID, "slider_id", sliderID)

	if err := h.service.DeleteSlider(r.Context(), principal, sliderID); err != nil {
		logger.WarnContext(r.Context(), "slider delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "slider deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// SubmitContact is public; anonymous visitors may write in.
func (h *ContentHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "SubmitContact", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode contact", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SubmitContact")

	contact, err := h.service.SubmitContact(r.Context(), application.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "contact submission failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("contact_id", contact.ID).InfoContext(r.Context(), "contact submitted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toContactDTO(contact))
}

func (h *ContentHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	contacts, err := h.service.ListContacts(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "ListContacts", "principal_id", principal.UserID).WarnContext(r.Context(), "contact list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result := make([]contactDTO, 0, len(contacts))
	for _, contact := range contacts {
		result = append(result, toContactDTO(contact))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, result)
}

func (h *ContentHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	contactID := mux.Vars(r)["id"]
	logger := h.log(r.Context(), "DeleteContact", "principal_id", principal.UserID, "contact_id", contactID)

	if err := h.service.DeleteContact(r.Context(), principal, contactID); err != nil {
		logger.WarnContext(r.Context(), "contact delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "contact deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type sliderRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	Position int    `json:"position"`
}

func (r sliderRequest) toInput() application.SliderInput {
	return application.SliderInput{Title: r.Title, ImageURL: r.ImageURL, Position: r.Position}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type sliderDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

type contactDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func toSliderDTO(slider persistence.Slider) sliderDTO {
	return sliderDTO{
		ID:        slider.ID,
		Title:     slider.Title,
		ImageURL:  slider.ImageURL,
		Position:  slider.Position,
		CreatedAt: slider.CreatedAt,
	}
}

func toContactDTO(contact persistence.Contact) contactDTO {
	return contactDTO{
		ID:        contact.ID,
		Name:      contact.Name,
		Email:     contact.Email,
		Message:   contact.Message,
		CreatedAt: contact.CreatedAt,
	}
}
