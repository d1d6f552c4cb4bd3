package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/rental-marketplace/internal/booking"
	"github.com/example/rental-marketplace/internal/ledger"
	"github.com/example/rental-marketplace/internal/persistence"
	"github.com/example/rental-marketplace/internal/testfixtures"
)

type bookingEnv struct {
	harness   *testfixtures.SQLiteHarness
	service   *BookingService
	clock     *testfixtures.Clock
	guest     persistence.User
	host      persistence.User
	apartment persistence.Apartment
}

func newBookingEnv(t *testing.T, guestBalance string, opts ...func(*BookingServiceOptions)) *bookingEnv {
	t.Helper()

	harness := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())

	guest := testfixtures.NewUser(testfixtures.WithBalance(guestBalance))
	host := testfixtures.NewUser(testfixtures.WithRole(persistence.RoleHost))
	apartment := testfixtures.NewApartment(host.ID)
	harness.SeedUsers(guest, host)
	harness.SeedApartments(apartment)

	options := BookingServiceOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	service := NewBookingService(harness.Storage, testfixtures.NewIDGenerator("bk").NextFunc(), clock.NowFunc(), options)

	return &bookingEnv{harness: harness, service: service, clock: clock, guest: guest, host: host, apartment: apartment}
}

func (e *bookingEnv) guestPrincipal() Principal {
	return Principal{UserID: e.guest.ID, Role: persistence.RoleClient}
}

func (e *bookingEnv) hostPrincipal() Principal {
	return Principal{UserID: e.host.ID, Role: persistence.RoleHost}
}

func (e *bookingEnv) request(t *testing.T, start, end string) persistence.BookingDetails {
	t.Helper()
	details, err := e.service.CreateBooking(context.Background(), CreateBookingParams{
		Principal: e.guestPrincipal(),
		Input: BookingInput{
			ApartmentID: e.apartment.ID,
			StartDate:   testfixtures.Date(start),
			EndDate:     testfixtures.Date(end),
		},
	})
	if err != nil {
		t.Fatalf("expected booking request to succeed, got %v", err)
	}
	return details
}

func (e *bookingEnv) transition(principal Principal, id string, status booking.Status) (persistence.BookingDetails, error) {
	return e.service.TransitionBooking(context.Background(), TransitionBookingParams{
		Principal: principal,
		BookingID: id,
		Status:    string(status),
	})
}

func (e *bookingEnv) balance(t *testing.T, userID string) string {
	t.Helper()
	user, err := e.harness.Storage.GetUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected user lookup to succeed, got %v", err)
	}
	return user.Balance.String()
}

func (e *bookingEnv) entries(t *testing.T, userID string) []ledger.Entry {
	t.Helper()
	entries, err := e.harness.Storage.ListLedgerEntries(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected ledger lookup to succeed, got %v", err)
	}
	return entries
}

func TestBookingService_CreateBooking(t *testing.T) {
	t.Parallel()

	t.Run("records a pending booking priced by the server", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "0")

		details := env.request(t, "2024-07-01", "2024-07-03")

		if details.Status != booking.StatusPending {
			t.Fatalf("expected PENDING, got %s", details.Status)
		}
		if !details.TotalPrice.Equal(testfixtures.Money("260")) {
			t.Fatalf("expected total 260, got %s", details.TotalPrice)
		}
		if details.Guest.Username != env.guest.Username {
			t.Fatalf("expected guest summary %q, got %q", env.guest.Username, details.Guest.Username)
		}
		if details.Apartment.EntrepreneurID != env.host.ID {
			t.Fatalf("expected apartment summary owned by %s, got %s", env.host.ID, details.Apartment.EntrepreneurID)
		}
	})

	t.Run("accepts a matching client total", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "0")
		total := testfixtures.Money("360")

		_, err := env.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: env.guestPrincipal(),
			Input: BookingInput{
				ApartmentID: env.apartment.ID,
				StartDate:   testfixtures.Date("2024-07-01"),
				EndDate:     testfixtures.Date("2024-07-04"),
				TotalPrice:  &total,
			},
		})
		if err != nil {
			t.Fatalf("expected matching total to be accepted, got %v", err)
		}
	})

	t.Run("rejects a disagreeing client total", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "0")
		total := testfixtures.Money("1")

		_, err := env.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: env.guestPrincipal(),
			Input: BookingInput{
				ApartmentID: env.apartment.ID,
				StartDate:   testfixtures.Date("2024-07-01"),
				EndDate:     testfixtures.Date("2024-07-03"),
				TotalPrice:  &total,
			},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["totalPrice"]; !ok {
			t.Fatalf("expected totalPrice error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("validates dates and status", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "0")

		cases := []struct {
			name  string
			input BookingInput
			field string
		}{
			{"missing apartment", BookingInput{StartDate: testfixtures.Date("2024-07-01"), EndDate: testfixtures.Date("2024-07-02")}, "apartmentId"},
			{"zero nights", BookingInput{ApartmentID: env.apartment.ID, StartDate: testfixtures.Date("2024-07-01"), EndDate: testfixtures.Date("2024-07-01")}, "endDate"},
			{"missing end", BookingInput{ApartmentID: env.apartment.ID, StartDate: testfixtures.Date("2024-07-01")}, "endDate"},
			{"past stay", BookingInput{ApartmentID: env.apartment.ID, StartDate: testfixtures.Date("2024-05-01"), EndDate: testfixtures.Date("2024-05-03")}, "startDate"},
			{"confirmed on create", BookingInput{ApartmentID: env.apartment.ID, StartDate: testfixtures.Date("2024-07-01"), EndDate: testfixtures.Date("2024-07-02"), Status: "CONFIRMED"}, "status"},
		}

		for _, tc := range cases {
			_, err := env.service.CreateBooking(context.Background(), CreateBookingParams{Principal: env.guestPrincipal(), Input: tc.input})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("%s: expected %s error, got %v", tc.name, tc.field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects booking on behalf of another guest", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "0")

		_, err := env.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: env.guestPrincipal(),
			Input: BookingInput{
				UserID:      env.host.ID,
				ApartmentID: env.apartment.ID,
				StartDate:   testfixtures.Date("2024-07-01"),
				EndDate:     testfixtures.Date("2024-07-02"),
			},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("reports unknown apartments as not found", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "0")

		_, err := env.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: env.guestPrincipal(),
			Input: BookingInput{
				ApartmentID: "missing",
				StartDate:   testfixtures.Date("2024-07-01"),
				EndDate:     testfixtures.Date("2024-07-02"),
			},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects stays overlapping a confirmed booking", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "0")
		env.harness.SeedBookings(testfixtures.NewBooking(env.host.ID, env.apartment.ID,
			testfixtures.WithStay("2024-07-02", "2024-07-04"),
			testfixtures.WithStatus(booking.StatusConfirmed),
		))

		_, err := env.service.CreateBooking(context.Background(), CreateBookingParams{
			Principal: env.guestPrincipal(),
			Input: BookingInput{
				ApartmentID: env.apartment.ID,
				StartDate:   testfixtures.Date("2024-07-01"),
				EndDate:     testfixtures.Date("2024-07-03"),
			},
		})
		if !errors.Is(err, ErrDatesUnavailable) {
			t.Fatalf("expected ErrDatesUnavailable, got %v", err)
		}
	})

	t.Run("pending bookings do not block requests", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "0")

		env.request(t, "2024-07-01", "2024-07-03")
		env.request(t, "2024-07-01", "2024-07-03")
	})

	t.Run("checkout day blocking follows the availability policy", func(t *testing.T) {
		t.Parallel()

		seed := func(env *bookingEnv) {
			env.harness.SeedBookings(testfixtures.NewBooking(env.host.ID, env.apartment.ID,
				testfixtures.WithStay("2024-07-03", "2024-07-05"),
				testfixtures.WithStatus(booking.StatusConfirmed),
			))
		}
		input := func(env *bookingEnv) CreateBookingParams {
			return CreateBookingParams{
				Principal: env.guestPrincipal(),
				Input: BookingInput{
					ApartmentID: env.apartment.ID,
					StartDate:   testfixtures.Date("2024-07-01"),
					EndDate:     testfixtures.Date("2024-07-03"),
				},
			}
		}

		strict := newBookingEnv(t, "0")
		seed(strict)
		if _, err := strict.service.CreateBooking(context.Background(), input(strict)); !errors.Is(err, ErrDatesUnavailable) {
			t.Fatalf("expected shared boundary day to conflict by default, got %v", err)
		}

		relaxed := newBookingEnv(t, "0", func(o *BookingServiceOptions) {
			o.Availability = &booking.AvailabilityPolicy{BlockCheckoutDay: false}
		})
		seed(relaxed)
		if _, err := relaxed.service.CreateBooking(context.Background(), input(relaxed)); err != nil {
			t.Fatalf("expected back-to-back stay to be accepted, got %v", err)
		}
	})
}

func TestBookingService_TransitionBooking(t *testing.T) {
	t.Parallel()

	t.Run("insufficient funds leave booking and balance untouched", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "200")
		pending := env.request(t, "2024-07-01", "2024-07-03")

		_, err := env.transition(env.hostPrincipal(), pending.ID, booking.StatusConfirmed)
		if !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}

		stored, err := env.service.GetBooking(context.Background(), env.guestPrincipal(), pending.ID)
		if err != nil {
			t.Fatalf("expected booking lookup to succeed, got %v", err)
		}
		if stored.Status != booking.StatusPending {
			t.Fatalf("expected booking to remain PENDING, got %s", stored.Status)
		}
		if got := env.balance(t, env.guest.ID); got != "200" {
			t.Fatalf("expected balance 200, got %s", got)
		}
		if entries := env.entries(t, env.guest.ID); len(entries) != 0 {
			t.Fatalf("expected no ledger entries, got %d", len(entries))
		}
	})

	t.Run("confirm debits and cancel refunds the guest", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "500")
		pending := env.request(t, "2024-07-01", "2024-07-03")

		confirmed, err := env.transition(env.hostPrincipal(), pending.ID, booking.StatusConfirmed)
		if err != nil {
			t.Fatalf("expected confirmation to succeed, got %v", err)
		}
		if confirmed.Status != booking.StatusConfirmed {
			t.Fatalf("expected CONFIRMED, got %s", confirmed.Status)
		}
		if got := confirmed.Guest.Balance.String(); got != "240" {
			t.Fatalf("expected guest summary balance 240, got %s", got)
		}

		cancelled, err := env.transition(env.hostPrincipal(), pending.ID, booking.StatusCancelled)
		if err != nil {
			t.Fatalf("expected cancellation to succeed, got %v", err)
		}
		if cancelled.Status != booking.StatusCancelled {
			t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
		}
		if got := env.balance(t, env.guest.ID); got != "500" {
			t.Fatalf("expected balance restored to 500, got %s", got)
		}

		entries := env.entries(t, env.guest.ID)
		if len(entries) != 2 {
			t.Fatalf("expected two ledger entries, got %d", len(entries))
		}
		kinds := map[ledger.Kind]string{}
		for _, entry := range entries {
			if entry.BookingID != pending.ID {
				t.Fatalf("expected ledger entry for %s, got %s", pending.ID, entry.BookingID)
			}
			kinds[entry.Kind] = entry.BalanceAfter.String()
		}
		if kinds[ledger.KindDebit] != "240" || kinds[ledger.KindCredit] != "500" {
			t.Fatalf("expected debit to 240 and credit to 500, got %v", kinds)
		}
	})

	t.Run("cancelled bookings cannot be revived", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "500")
		pending := env.request(t, "2024-07-01", "2024-07-03")
		if _, err := env.transition(env.hostPrincipal(), pending.ID, booking.StatusCancelled); err != nil {
			t.Fatalf("expected cancellation to succeed, got %v", err)
		}

		_, err := env.transition(env.hostPrincipal(), pending.ID, booking.StatusConfirmed)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
		if got := env.balance(t, env.guest.ID); got != "500" {
			t.Fatalf("expected balance unchanged, got %s", got)
		}
	})

	t.Run("rejects self transitions", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "500")
		pending := env.request(t, "2024-07-01", "2024-07-03")

		if _, err := env.transition(env.hostPrincipal(), pending.ID, booking.StatusPending); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("guests may withdraw their own pending request", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "500")
		pending := env.request(t, "2024-07-01", "2024-07-03")

		if _, err := env.transition(env.guestPrincipal(), pending.ID, booking.StatusConfirmed); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected guest confirmation to be unauthorized, got %v", err)
		}
		cancelled, err := env.transition(env.guestPrincipal(), pending.ID, booking.StatusCancelled)
		if err != nil {
			t.Fatalf("expected guest withdrawal to succeed, got %v", err)
		}
		if cancelled.Status != booking.StatusCancelled {
			t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
		}
		if got := env.balance(t, env.guest.ID); got != "500" {
			t.Fatalf("expected no ledger effect, got balance %s", got)
		}
	})

	t.Run("other hosts cannot transition", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "500")
		pending := env.request(t, "2024-07-01", "2024-07-03")
		stranger := Principal{UserID: "someone-else", Role: persistence.RoleHost}

		if _, err := env.transition(stranger, pending.ID, booking.StatusConfirmed); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("administrators may transition any booking", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "500")
		pending := env.request(t, "2024-07-01", "2024-07-03")
		admin := Principal{UserID: "admin-1", Role: persistence.RoleAdmin}

		if _, err := env.transition(admin, pending.ID, booking.StatusConfirmed); err != nil {
			t.Fatalf("expected admin confirmation to succeed, got %v", err)
		}
	})

	t.Run("second overlapping confirmation fails", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "1000")
		first := env.request(t, "2024-07-01", "2024-07-03")
		second := env.request(t, "2024-07-02", "2024-07-04")

		if _, err := env.transition(env.hostPrincipal(), first.ID, booking.StatusConfirmed); err != nil {
			t.Fatalf("expected first confirmation to succeed, got %v", err)
		}
		if _, err := env.transition(env.hostPrincipal(), second.ID, booking.StatusConfirmed); !errors.Is(err, ErrDatesUnavailable) {
			t.Fatalf("expected ErrDatesUnavailable, got %v", err)
		}
		if got := env.balance(t, env.guest.ID); got != "740" {
			t.Fatalf("expected only one debit, got balance %s", got)
		}
	})

	t.Run("concurrent confirmations of overlapping stays leave one winner", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "10000")

		ids := make([]string, 8)
		for i := range ids {
			ids[i] = env.request(t, "2024-07-01", "2024-07-03").ID
		}

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := env.transition(env.hostPrincipal(), id, booking.StatusConfirmed)
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				if !errors.Is(err, ErrDatesUnavailable) {
					t.Errorf("expected ErrDatesUnavailable for losers, got %v", err)
				}
			}(id)
		}
		wg.Wait()

		if succeeded != 1 {
			t.Fatalf("expected exactly one confirmation, got %d", succeeded)
		}
		if got := env.balance(t, env.guest.ID); got != "9740" {
			t.Fatalf("expected a single debit, got balance %s", got)
		}
	})

	t.Run("validates status and existence", func(t *testing.T) {
		t.Parallel()
		env := newBookingEnv(t, "500")

		_, err := env.service.TransitionBooking(context.Background(), TransitionBookingParams{
			Principal: env.hostPrincipal(),
			BookingID: "missing",
			Status:    "ARCHIVED",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError for unknown status, got %v", err)
		}

		if _, err := env.transition(env.hostPrincipal(), "missing", booking.StatusConfirmed); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBookingService_GetAndList(t *testing.T) {
	t.Parallel()

	env := newBookingEnv(t, "500")
	pending := env.request(t, "2024-07-01", "2024-07-03")
	ctx := context.Background()

	t.Run("guest, host and admin can read the booking", func(t *testing.T) {
		for _, principal := range []Principal{
			env.guestPrincipal(),
			env.hostPrincipal(),
			{UserID: "admin-1", Role: persistence.RoleAdmin},
		} {
			if _, err := env.service.GetBooking(ctx, principal, pending.ID); err != nil {
				t.Fatalf("expected %s to read booking, got %v", principal.UserID, err)
			}
		}
	})

	t.Run("strangers cannot read the booking", func(t *testing.T) {
		stranger := Principal{UserID: "stranger", Role: persistence.RoleClient}
		if _, err := env.service.GetBooking(ctx, stranger, pending.ID); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("clients default to their own bookings", func(t *testing.T) {
		got, err := env.service.ListBookings(ctx, ListBookingsParams{Principal: env.guestPrincipal()})
		if err != nil {
			t.Fatalf("expected listing to succeed, got %v", err)
		}
		if len(got) != 1 || got[0].ID != pending.ID {
			t.Fatalf("expected the guest booking, got %v", got)
		}
	})

	t.Run("hosts list bookings of their apartments", func(t *testing.T) {
		got, err := env.service.ListBookings(ctx, ListBookingsParams{Principal: env.hostPrincipal(), EntrepreneurID: env.host.ID})
		if err != nil {
			t.Fatalf("expected listing to succeed, got %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected one booking, got %d", len(got))
		}
	})

	t.Run("clients cannot list other users", func(t *testing.T) {
		_, err := env.service.ListBookings(ctx, ListBookingsParams{Principal: env.guestPrincipal(), UserID: env.host.ID})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		_, err = env.service.ListBookings(ctx, ListBookingsParams{Principal: env.guestPrincipal(), EntrepreneurID: env.host.ID})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for entrepreneur filter, got %v", err)
		}
	})

	t.Run("status filters are validated", func(t *testing.T) {
		_, err := env.service.ListBookings(ctx, ListBookingsParams{Principal: env.guestPrincipal(), Statuses: []string{"LOST"}})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestBookingService_BlockedDates(t *testing.T) {
	t.Parallel()

	env := newBookingEnv(t, "500")
	ctx := context.Background()
	pending := env.request(t, "2024-07-01", "2024-07-03")

	dates, err := env.service.BlockedDates(ctx, env.apartment.ID)
	if err != nil {
		t.Fatalf("expected blocked dates, got %v", err)
	}
	if len(dates) != 0 {
		t.Fatalf("expected no blocked dates for pending bookings, got %v", dates)
	}

	if _, err := env.transition(env.hostPrincipal(), pending.ID, booking.StatusConfirmed); err != nil {
		t.Fatalf("expected confirmation to succeed, got %v", err)
	}

	dates, err = env.service.BlockedDates(ctx, env.apartment.ID)
	if err != nil {
		t.Fatalf("expected blocked dates, got %v", err)
	}
	want := []string{"2024-07-01", "2024-07-02", "2024-07-03"}
	if len(dates) != len(want) {
		t.Fatalf("expected %v, got %v", want, dates)
	}
	for i, d := range dates {
		if booking.FormatDate(d) != want[i] {
			t.Fatalf("expected %v, got %v", want, dates)
		}
	}

	if _, err := env.service.BlockedDates(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown apartment, got %v", err)
	}

	t.Run("deleted apartment is not served from cache", func(t *testing.T) {
		empty := testfixtures.NewApartment(env.host.ID)
		env.harness.SeedApartments(empty)

		dates, err := env.service.BlockedDates(ctx, empty.ID)
		if err != nil {
			t.Fatalf("expected blocked dates, got %v", err)
		}
		if len(dates) != 0 {
			t.Fatalf("expected no blocked dates, got %v", dates)
		}

		if err := env.harness.Storage.DeleteApartment(ctx, empty.ID); err != nil {
			t.Fatalf("expected delete to succeed, got %v", err)
		}
		if _, err := env.service.BlockedDates(ctx, empty.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestBookingService_Quote(t *testing.T) {
	t.Parallel()

	env := newBookingEnv(t, "0")
	ctx := context.Background()

	quote, err := env.service.Quote(ctx, env.apartment.ID, testfixtures.Date("2024-07-01"), testfixtures.Date("2024-07-04"))
	if err != nil {
		t.Fatalf("expected quote, got %v", err)
	}
	if quote.Nights != 3 || !quote.Total.Equal(testfixtures.Money("360")) {
		t.Fatalf("expected 3 nights totalling 360, got %d nights and %s", quote.Nights, quote.Total)
	}

	_, err = env.service.Quote(ctx, env.apartment.ID, testfixtures.Date("2024-07-04"), testfixtures.Date("2024-07-01"))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for reversed dates, got %v", err)
	}

	if _, err := env.service.Quote(ctx, "missing", testfixtures.Date("2024-07-01"), testfixtures.Date("2024-07-02")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	t.Run("fractional service fee is not rounded", func(t *testing.T) {
		odd := testfixtures.NewApartment(env.host.ID, testfixtures.WithPricePerNight("99.99"))
		env.harness.SeedApartments(odd)

		quote, err := env.service.Quote(ctx, odd.ID, testfixtures.Date("2024-07-01"), testfixtures.Date("2024-07-02"))
		if err != nil {
			t.Fatalf("expected quote, got %v", err)
		}
		if !quote.ServiceFee.Equal(testfixtures.Money("9.999")) || !quote.Total.Equal(testfixtures.Money("159.989")) {
			t.Fatalf("expected serviceFee 9.999 and total 159.989, got %s and %s", quote.ServiceFee, quote.Total)
		}
	})

	t.Run("invalid rate is not reported as a date error", func(t *testing.T) {
		free := testfixtures.NewApartment(env.host.ID, testfixtures.WithPricePerNight("0"))
		env.harness.SeedApartments(free)

		_, err := env.service.Quote(ctx, free.ID, testfixtures.Date("2024-07-01"), testfixtures.Date("2024-07-02"))
		if !errors.Is(err, booking.ErrInvalidRate) {
			t.Fatalf("expected ErrInvalidRate, got %v", err)
		}
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			t.Fatalf("expected a non-validation error, got %v", vErr)
		}
	})
}
