package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/example/rental-marketplace/internal/application"
	"github.com/example/rental-marketplace/internal/ledger"
	"github.com/example/rental-marketplace/internal/persistence"
)

type userService interface {
	RegisterUser(ctx context.Context, input application.RegisterUserInput) (persistence.User, error)
	GetUser(ctx context.Context, principal application.Principal, userID string) (persistence.User, error)
	ListUsers(ctx context.Context, principal application.Principal) ([]persistence.User, error)
	UpdateUser(ctx context.Context, params application.UpdateUserParams) (persistence.User, error)
	DeleteUser(ctx context.Context, principal application.Principal, userID string) error
	Deposit(ctx context.Context, params application.DepositParams) (persistence.User, error)
	LedgerEntries(ctx context.Context, principal application.Principal, userID string) ([]ledger.Entry, error)
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

// Register handles the public sign-up endpoint.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode registration", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Register")

	user, err := h.service.RegisterUser(r.Context(), application.RegisterUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(r.Context(), "user registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

// Me returns the account of the authenticated caller.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.writeUser(w, r, principal, principal.UserID)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.writeUser(w, r, principal, mux.Vars(r)["id"])
}

func (h *UserHandler) writeUser(w http.ResponseWriter, r *http.Request, principal application.Principal, userID string) {
	user, err := h.service.GetUser(r.Context(), principal, userID)
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.UserID, "user_id", userID).WarnContext(r.Context(), "user lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		logger.WarnContext(r.Context(), "user list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result := make([]userDTO, 0, len(users))
	for _, user := range users {
		result = append(result, toUserDTO(user))
	}
	logger.With("result_count", len(result)).InfoContext(r.Context(), "users listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, result)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	userID := mux.Vars(r)["id"]

	var req userUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "user_id", userID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode user update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "user_id", userID)

	user, err := h.service.UpdateUser(r.Context(), application.UpdateUserParams{
		Principal: principal,
		UserID:    userID,
		Input: application.UserUpdateInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			CurrentPassword: req.CurrentPassword,
			Role:            req.Role,
			IsBanned:        req.IsBanned,
			BanDate:         req.BanDate,
		},
	})
	if err != nil {
		logger.WarnContext(r.Context(), "user update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	userID := mux.Vars(r)["id"]
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "user_id", userID)

	if err := h.service.DeleteUser(r.Context(), principal, userID); err != nil {
		logger.WarnContext(r.Context(), "user delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Deposit handles POST /users/{id}/deposits.
func (h *UserHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	userID := mux.Vars(r)["id"]

	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Deposit", "principal_id", principal.UserID, "user_id", userID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode deposit", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Deposit", "principal_id", principal.UserID, "user_id", userID, "amount", req.Amount.String())

	user, err := h.service.Deposit(r.Context(), application.DepositParams{
		Principal: principal,
		UserID:    userID,
		Amount:    req.Amount,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "deposit failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "deposit credited")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// Ledger handles GET /users/{id}/ledger.
func (h *UserHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	userID := mux.Vars(r)["id"]

	entries, err := h.service.LedgerEntries(r.Context(), principal, userID)
	if err != nil {
		h.log(r.Context(), "Ledger", "principal_id", principal.UserID, "user_id", userID).WarnContext(r.Context(), "ledger lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result := make([]ledgerEntryDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, ledgerEntryDTO{
			ID:           entry.ID,
			BookingID:    entry.BookingID,
			Kind:         string(entry.Kind),
			Amount:       entry.Amount,
			BalanceAfter: entry.BalanceAfter,
			CreatedAt:    entry.CreatedAt,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, result)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userUpdateRequest struct {
	Username        *string    `json:"username"`
	Email           *string    `json:"email"`
	Password        *string    `json:"password"`
	CurrentPassword string     `json:"currentPassword"`
	Role            *string    `json:"role"`
	IsBanned        *bool      `json:"isBanned"`
	BanDate         *time.Time `json:"banDate"`
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type userDTO struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Balance   decimal.Decimal `json:"balance"`
	IsBanned  bool            `json:"isBanned"`
	BanDate   *time.Time      `json:"banDate,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type ledgerEntryDTO struct {
	ID           string          `json:"id"`
	BookingID    string          `json:"bookingId,omitempty"`
	Kind         string          `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func toUserDTO(user persistence.User) userDTO {
	return userDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		Balance:   user.Balance,
		IsBanned:  user.IsBanned,
		BanDate:   user.BanDate,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
