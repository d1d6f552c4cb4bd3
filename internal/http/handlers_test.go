package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/rental-marketplace/internal/application"
	"github.com/example/rental-marketplace/internal/booking"
	"github.com/example/rental-marketplace/internal/ledger"
	"github.com/example/rental-marketplace/internal/persistence"
)

type bookingServiceStub struct {
	createParams     application.CreateBookingParams
	transitionParams application.TransitionBookingParams
	listParams       application.ListBookingsParams
	details          persistence.BookingDetails
	blocked          []time.Time
	quote            booking.Quote
	err              error
}

func (s *bookingServiceStub) CreateBooking(ctx context.Context, params application.CreateBookingParams) (persistence.BookingDetails, error) {
	s.createParams = params
	return s.details, s.err
}

func (s *bookingServiceStub) TransitionBooking(ctx context.Context, params application.TransitionBookingParams) (persistence.BookingDetails, error) {
	s.transitionParams = params
	return s.details, s.err
}

func (s *bookingServiceStub) GetBooking(ctx context.Context, principal application.Principal, bookingID string) (persistence.BookingDetails, error) {
	return s.details, s.err
}

func (s *bookingServiceStub) ListBookings(ctx context.Context, params application.ListBookingsParams) ([]persistence.BookingDetails, error) {
	s.listParams = params
	if s.err != nil {
		return nil, s.err
	}
	return []persistence.BookingDetails{s.details}, nil
}

func (s *bookingServiceStub) BlockedDates(ctx context.Context, apartmentID string) ([]time.Time, error) {
	return s.blocked, s.err
}

func (s *bookingServiceStub) Quote(ctx context.Context, apartmentID string, start, end time.Time) (booking.Quote, error) {
	return s.quote, s.err
}

type userServiceStub struct {
	depositParams application.DepositParams
	registered    application.RegisterUserInput
	user          persistence.User
	entries       []ledger.Entry
	err           error
}

func (s *userServiceStub) RegisterUser(ctx context.Context, input application.RegisterUserInput) (persistence.User, error) {
	s.registered = input
	return s.user, s.err
}

func (s *userServiceStub) GetUser(ctx context.Context, principal application.Principal, userID string) (persistence.User, error) {
	return s.user, s.err
}

func (s *userServiceStub) ListUsers(ctx context.Context, principal application.Principal) ([]persistence.User, error) {
	return []persistence.User{s.user}, s.err
}

func (s *userServiceStub) UpdateUser(ctx context.Context, params application.UpdateUserParams) (persistence.User, error) {
	return s.user, s.err
}

func (s *userServiceStub) DeleteUser(ctx context.Context, principal application.Principal, userID string) error {
	return s.err
}

func (s *userServiceStub) Deposit(ctx context.Context, params application.DepositParams) (persistence.User, error) {
	s.depositParams = params
	return s.user, s.err
}

func (s *userServiceStub) LedgerEntries(ctx context.Context, principal application.Principal, userID string) ([]ledger.Entry, error) {
	return s.entries, s.err
}

// asPrincipal stands in for token authentication.
func asPrincipal(principal application.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

var guest = application.Principal{UserID: "guest-1", Role: persistence.RoleClient}

func sampleDetails() persistence.BookingDetails {
	return persistence.BookingDetails{
		Booking: persistence.Booking{
			ID:          "booking-1",
			UserID:      "guest-1",
			ApartmentID: "apt-1",
			StartDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC),
			Status:      booking.StatusPending,
			TotalPrice:  decimal.RequireFromString("260"),
		},
		Guest:     persistence.BookingGuest{Username: "guest", Balance: decimal.RequireFromString("500")},
		Apartment: persistence.BookingApartment{Title: "Loft", PricePerNight: decimal.RequireFromString("100"), EntrepreneurID: "host-1"},
	}
}

func serve(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
		t.Fatalf("expected JSON body, got %q: %v", recorder.Body.String(), err)
	}
	return out
}

func TestBookingHandler(t *testing.T) {
	t.Parallel()

	newRouter := func(stub *bookingServiceStub) http.Handler {
		return NewRouter(RouterConfig{
			Bookings:     NewBookingHandler(stub, nil),
			Authenticate: asPrincipal(guest),
		})
	}

	t.Run("create parses dates and passes the principal", func(t *testing.T) {
		t.Parallel()

		stub := &bookingServiceStub{details: sampleDetails()}
		body := `{"userId":"guest-1","apartmentId":"apt-1","startDate":"2025-07-01","endDate":"2025-07-03T00:00:00Z","status":"PENDING","totalPrice":260}`
		recorder := serve(newRouter(stub), http.MethodPost, "/bookings", body)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		input := stub.createParams.Input
		if stub.createParams.Principal != guest {
			t.Fatalf("expected guest principal, got %+v", stub.createParams.Principal)
		}
		if !input.StartDate.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) || !input.EndDate.Equal(time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("expected parsed stay, got %v to %v", input.StartDate, input.EndDate)
		}
		if input.TotalPrice == nil || !input.TotalPrice.Equal(decimal.NewFromInt(260)) {
			t.Fatalf("expected totalPrice 260, got %v", input.TotalPrice)
		}

		dto := decodeBody[map[string]any](t, recorder)
		if dto["startDate"] != "2025-07-01" || dto["status"] != "PENDING" {
			t.Fatalf("expected formatted booking, got %v", dto)
		}
		user, _ := dto["user"].(map[string]any)
		if user["username"] != "guest" || user["balance"] != "500" {
			t.Fatalf("expected embedded guest, got %v", dto["user"])
		}
		apartment, _ := dto["apartment"].(map[string]any)
		if apartment["title"] != "Loft" || apartment["pricePerNight"] != "100" {
			t.Fatalf("expected embedded apartment, got %v", dto["apartment"])
		}
	})

	t.Run("create rejects malformed dates", func(t *testing.T) {
		t.Parallel()

		stub := &bookingServiceStub{}
		recorder := serve(newRouter(stub), http.MethodPost, "/bookings", `{"apartmentId":"apt-1","startDate":"07/01/2025","endDate":"2025-07-03"}`)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", recorder.Code)
		}
		body := decodeBody[errorResponse](t, recorder)
		if body.Errors["startDate"] == "" {
			t.Fatalf("expected startDate error, got %v", body.Errors)
		}
		if stub.createParams.Input.ApartmentID != "" {
			t.Fatalf("expected service not to be called")
		}
	})

	t.Run("create rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		recorder := serve(newRouter(&bookingServiceStub{}), http.MethodPost, "/bookings", `{"apartmentId":"apt-1","discount":50}`)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", recorder.Code)
		}
	})

	t.Run("transition maps insufficient funds", func(t *testing.T) {
		t.Parallel()

		stub := &bookingServiceStub{err: application.ErrInsufficientFunds}
		recorder := serve(newRouter(stub), http.MethodPatch, "/bookings/booking-1", `{"status":"CONFIRMED"}`)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", recorder.Code)
		}
		if body := decodeBody[errorResponse](t, recorder); body.ErrorCode != "INSUFFICIENT_FUNDS" {
			t.Fatalf("expected INSUFFICIENT_FUNDS, got %q", body.ErrorCode)
		}
		if stub.transitionParams.BookingID != "booking-1" || stub.transitionParams.Status != "CONFIRMED" {
			t.Fatalf("expected transition params, got %+v", stub.transitionParams)
		}
	})

	t.Run("transition returns the updated booking", func(t *testing.T) {
		t.Parallel()

		details := sampleDetails()
		details.Status = booking.StatusConfirmed
		recorder := serve(newRouter(&bookingServiceStub{details: details}), http.MethodPatch, "/bookings/booking-1", `{"status":"CONFIRMED"}`)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		if dto := decodeBody[map[string]any](t, recorder); dto["status"] != "CONFIRMED" {
			t.Fatalf("expected CONFIRMED, got %v", dto["status"])
		}
	})

	t.Run("get maps not found", func(t *testing.T) {
		t.Parallel()

		recorder := serve(newRouter(&bookingServiceStub{err: application.ErrNotFound}), http.MethodGet, "/bookings/missing", "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", recorder.Code)
		}
	})

	t.Run("list forwards filters", func(t *testing.T) {
		t.Parallel()

		stub := &bookingServiceStub{details: sampleDetails()}
		recorder := serve(newRouter(stub), http.MethodGet, "/bookings?entrepreneurId=host-1&status=PENDING,CONFIRMED", "")

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		if stub.listParams.EntrepreneurID != "host-1" {
			t.Fatalf("expected entrepreneur filter, got %+v", stub.listParams)
		}
		if len(stub.listParams.Statuses) != 2 || stub.listParams.Statuses[1] != "CONFIRMED" {
			t.Fatalf("expected split statuses, got %v", stub.listParams.Statuses)
		}
		if list := decodeBody[[]map[string]any](t, recorder); len(list) != 1 {
			t.Fatalf("expected one booking, got %d", len(list))
		}
	})

	t.Run("blocked dates are formatted as days", func(t *testing.T) {
		t.Parallel()

		stub := &bookingServiceStub{blocked: []time.Time{
			time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
		}}
		recorder := serve(newRouter(stub), http.MethodGet, "/apartments/apt-1/blocked-dates", "")

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		body := decodeBody[blockedDatesResponse](t, recorder)
		if len(body.Dates) != 2 || body.Dates[0] != "2025-07-01" {
			t.Fatalf("expected formatted dates, got %v", body.Dates)
		}
	})

	t.Run("quote reports the breakdown", func(t *testing.T) {
		t.Parallel()

		stub := &bookingServiceStub{quote: booking.Quote{
			Nights:      2,
			NightlyRate: decimal.NewFromInt(100),
			Subtotal:    decimal.NewFromInt(200),
			CleaningFee: decimal.NewFromInt(50),
			ServiceFee:  decimal.NewFromInt(10),
			Total:       decimal.NewFromInt(260),
		}}
		recorder := serve(newRouter(stub), http.MethodGet, "/apartments/apt-1/quote?startDate=2025-07-01&endDate=2025-07-03", "")

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		body := decodeBody[map[string]any](t, recorder)
		if body["total"] != "260" || body["nights"] != float64(2) {
			t.Fatalf("expected total 260 over 2 nights, got %v", body)
		}
	})
}

func TestUserHandler(t *testing.T) {
	t.Parallel()

	newRouter := func(stub *userServiceStub) http.Handler {
		return NewRouter(RouterConfig{
			Users:        NewUserHandler(stub, nil),
			Authenticate: asPrincipal(guest),
		})
	}

	t.Run("deposit accepts string and number amounts", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{`{"amount":"100.50"}`, `{"amount":100.5}`} {
			stub := &userServiceStub{user: persistence.User{ID: "guest-1", Balance: decimal.RequireFromString("600.5")}}
			recorder := serve(newRouter(stub), http.MethodPost, "/users/guest-1/deposits", body)

			if recorder.Code != http.StatusOK {
				t.Fatalf("expected status 200 for %s, got %d", body, recorder.Code)
			}
			if !stub.depositParams.Amount.Equal(decimal.RequireFromString("100.5")) {
				t.Fatalf("expected amount 100.5, got %s", stub.depositParams.Amount)
			}
			if dto := decodeBody[map[string]any](t, recorder); dto["balance"] != "600.5" {
				t.Fatalf("expected balance 600.5, got %v", dto["balance"])
			}
		}
	})

	t.Run("register is public and hides the password hash", func(t *testing.T) {
		t.Parallel()

		stub := &userServiceStub{user: persistence.User{ID: "user-9", Username: "newbie", PasswordHash: "secret-hash", Role: persistence.RoleClient}}
		router := NewRouter(RouterConfig{
			Users: NewUserHandler(stub, nil),
			Authenticate: func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatalf("registration should not require authentication")
				})
			},
		})
		recorder := serve(router, http.MethodPost, "/users", `{"username":"newbie","email":"n@example.com","password":"long-password"}`)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", recorder.Code)
		}
		if strings.Contains(recorder.Body.String(), "secret-hash") {
			t.Fatalf("expected password hash to be omitted, got %s", recorder.Body.String())
		}
		if stub.registered.Email != "n@example.com" {
			t.Fatalf("expected registration input, got %+v", stub.registered)
		}
	})

	t.Run("ledger lists entries", func(t *testing.T) {
		t.Parallel()

		stub := &userServiceStub{entries: []ledger.Entry{
			{ID: "e1", BookingID: "booking-1", Kind: ledger.KindDebit, Amount: decimal.NewFromInt(240), BalanceAfter: decimal.NewFromInt(260)},
		}}
		recorder := serve(newRouter(stub), http.MethodGet, "/users/guest-1/ledger", "")

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		entries := decodeBody[[]map[string]any](t, recorder)
		if len(entries) != 1 || entries[0]["kind"] != string(ledger.KindDebit) || entries[0]["amount"] != "240" {
			t.Fatalf("expected debit entry, got %v", entries)
		}
	})
}

func TestRouter(t *testing.T) {
	t.Parallel()

	t.Run("protected routes require authentication", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{
			Bookings:     NewBookingHandler(&bookingServiceStub{}, nil),
			Authenticate: RequireIdentity(&verifierStub{}, resolverStub{}, nil),
		})

		recorder := serve(router, http.MethodGet, "/bookings", "")
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", recorder.Code)
		}

		recorder = serve(router, http.MethodGet, "/apartments/apt-1/blocked-dates", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected public route to succeed, got %d", recorder.Code)
		}
	})

	t.Run("unknown paths return JSON 404", func(t *testing.T) {
		t.Parallel()

		recorder := serve(NewRouter(RouterConfig{}), http.MethodGet, "/nowhere", "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", recorder.Code)
		}
		if body := decodeBody[errorResponse](t, recorder); body.ErrorCode != "NOT_FOUND" {
			t.Fatalf("expected NOT_FOUND, got %q", body.ErrorCode)
		}
	})

	t.Run("wrong methods are rejected", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Bookings: NewBookingHandler(&bookingServiceStub{}, nil), Authenticate: asPrincipal(guest)})
		recorder := serve(router, http.MethodDelete, "/bookings/booking-1", "")
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", recorder.Code)
		}
	})
}
