package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/rental-marketplace/internal/booking"
	"github.com/example/rental-marketplace/internal/ledger"
	"github.com/example/rental-marketplace/internal/persistence"
)

// BookingStore captures the persistence operations needed by the booking service.
type BookingStore interface {
	persistence.Transactor
	persistence.BookingReader
	GetApartment(ctx context.Context, id string) (persistence.Apartment, error)
}

// BookingServiceOptions tunes pricing, availability and caching. Nil and zero
// values fall back to defaults.
type BookingServiceOptions struct {
	Pricing      *booking.Pricing
	Availability *booking.AvailabilityPolicy
	Policy       *AccessPolicy
	CacheSize    int
	CacheTTL     time.Duration
	Logger       *slog.Logger
}

// BookingService runs the booking lifecycle: requests, status transitions with
// their balance effects, availability and quotes.
type BookingService struct {
	store        BookingStore
	ledger       *ledger.Ledger
	pricing      booking.Pricing
	availability booking.AvailabilityPolicy
	policy       *AccessPolicy
	cache        *blockedDatesCache
	locks        *keyedMutex
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(store BookingStore, idGenerator func() string, now func() time.Time, opts BookingServiceOptions) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	pricing := booking.DefaultPricing()
	if opts.Pricing != nil {
		pricing = *opts.Pricing
	}
	availability := booking.DefaultAvailabilityPolicy()
	if opts.Availability != nil {
		availability = *opts.Availability
	}
	policy := opts.Policy
	if policy == nil {
		policy = MustAccessPolicy()
	}
	return &BookingService{
		store:        store,
		ledger:       ledger.New(idGenerator, now),
		pricing:      pricing,
		availability: availability,
		policy:       policy,
		cache:        newBlockedDatesCache(opts.CacheSize, opts.CacheTTL),
		locks:        newKeyedMutex(),
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(opts.Logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking records a PENDING request for a stay. The total price is always
// computed from the apartment's current rate; a client supplied total must match it.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (details persistence.BookingDetails, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	input := params.Input
	principal := params.Principal
	if input.UserID == "" {
		input.UserID = principal.UserID
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", principal.UserID,
		"user_id", input.UserID,
		"apartment_id", input.ApartmentID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "booking created",
			"booking_id", details.ID,
			"total_price", details.TotalPrice.String(),
		)
	}()

	if err = s.policy.authorize(principal, resourceBooking, actionCreate); err != nil {
		return
	}
	if !principal.owns(input.UserID) && !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	stay, vErr := s.validateBookingInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	unlock := s.locks.Lock(input.ApartmentID)
	defer unlock()

	createdAt := s.now()
	record := persistence.Booking{
		ID:          s.idGenerator(),
		UserID:      input.UserID,
		ApartmentID: input.ApartmentID,
		StartDate:   stay.Start,
		EndDate:     stay.End,
		Status:      booking.StatusPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		apartment, getErr := tx.GetApartment(ctx, record.ApartmentID)
		if getErr != nil {
			return mapRepoError(getErr)
		}
		if _, getErr := tx.GetUser(ctx, record.UserID); getErr != nil {
			return mapRepoError(getErr)
		}

		quote, quoteErr := s.pricing.Quote(apartment.PricePerNight, stay.Start, stay.End)
		if quoteErr != nil {
			return fmt.Errorf("price stay: %w", quoteErr)
		}
		if input.TotalPrice != nil && !input.TotalPrice.Equal(quote.Total) {
			return fieldError("totalPrice", fmt.Sprintf("totalPrice must equal the quoted total of %s", quote.Total.String()))
		}

		if overlapErr := s.ensureAvailable(ctx, tx, record.ApartmentID, stay); overlapErr != nil {
			return overlapErr
		}

		record.TotalPrice = quote.Total
		return mapRepoError(tx.CreateBooking(ctx, record))
	})
	if err != nil {
		return
	}

	details, err = s.store.GetBooking(ctx, record.ID)
	err = mapRepoError(err)
	return
}

// TransitionBooking moves a booking to a new status and applies the matching
// balance effect in the same transaction as the status write.
func (s *BookingService) TransitionBooking(ctx context.Context, params TransitionBookingParams) (details persistence.BookingDetails, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	principal := params.Principal
	logger := s.loggerWith(ctx, "TransitionBooking",
		"principal_id", principal.UserID,
		"booking_id", params.BookingID,
		"target_status", params.Status,
	)
	var effect booking.Effect
	defer func() {
		logOutcome(ctx, logger, err, "booking transitioned",
			"status", details.Status.String(),
			"effect", effect.String(),
		)
	}()

	if err = s.policy.authorize(principal, resourceBooking, actionTransition); err != nil {
		return
	}
	target, parseErr := booking.ParseStatus(params.Status)
	if parseErr != nil {
		err = fieldError("status", "status must be one of PENDING, CONFIRMED, CANCELLED")
		return
	}

	current, err := s.store.GetBooking(ctx, params.BookingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	unlock := s.locks.Lock(current.ApartmentID)
	defer unlock()

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		stored, getErr := tx.GetBookingForUpdate(ctx, params.BookingID)
		if getErr != nil {
			return mapRepoError(getErr)
		}
		apartment, getErr := tx.GetApartment(ctx, stored.ApartmentID)
		if getErr != nil {
			return mapRepoError(getErr)
		}
		if authErr := authorizeTransition(principal, stored, apartment, target); authErr != nil {
			return authErr
		}

		planned, planErr := booking.PlanTransition(stored.Status, target)
		if planErr != nil {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, stored.Status, target)
		}

		switch planned {
		case booking.EffectDebit:
			if overlapErr := s.ensureAvailable(ctx, tx, stored.ApartmentID, stored.Range()); overlapErr != nil {
				return overlapErr
			}
			if _, debitErr := s.ledger.Debit(ctx, tx, stored.UserID, stored.TotalPrice, stored.ID); debitErr != nil {
				return mapLedgerError(debitErr)
			}
		case booking.EffectCredit:
			if _, creditErr := s.ledger.Credit(ctx, tx, stored.UserID, stored.TotalPrice, stored.ID); creditErr != nil {
				return mapLedgerError(creditErr)
			}
		}

		if updateErr := tx.UpdateBookingStatus(ctx, stored.ID, target, s.now()); updateErr != nil {
			return mapRepoError(updateErr)
		}
		effect = planned
		return nil
	})
	if err != nil {
		effect = booking.EffectNone
		return
	}

	// Debits and credits coincide with entering and leaving CONFIRMED.
	if effect != booking.EffectNone {
		s.cache.Invalidate(current.ApartmentID)
	}

	details, err = s.store.GetBooking(ctx, params.BookingID)
	err = mapRepoError(err)
	return
}

// authorizeTransition allows administrators and the owning host any transition
// and lets guests withdraw their own pending requests.
func authorizeTransition(principal Principal, stored persistence.Booking, apartment persistence.Apartment, target booking.Status) error {
	switch {
	case principal.IsAdmin():
		return nil
	case principal.owns(apartment.EntrepreneurID):
		return nil
	case principal.owns(stored.UserID) && stored.Status == booking.StatusPending && target == booking.StatusCancelled:
		return nil
	}
	return ErrUnauthorized
}

func (s *BookingService) ensureAvailable(ctx context.Context, tx persistence.Tx, apartmentID string, stay booking.DateRange) error {
	confirmed, err := tx.ListApartmentRanges(ctx, apartmentID, booking.StatusConfirmed)
	if err != nil {
		return mapRepoError(err)
	}
	if overlaps := s.availability.Conflicts(confirmed, stay); len(overlaps) > 0 {
		return fmt.Errorf("%w: %s overlaps confirmed stay %s", ErrDatesUnavailable, stay, overlaps[0])
	}
	return nil
}

// GetBooking returns a booking visible to the principal: its guest, the owning
// host, or an administrator.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, bookingID string) (details persistence.BookingDetails, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}
	logger := s.loggerWith(ctx, "GetBooking", "principal_id", principal.UserID, "booking_id", bookingID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "booking lookup failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if err = s.policy.authorize(principal, resourceBooking, actionRead); err != nil {
		return
	}

	details, err = s.store.GetBooking(ctx, bookingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if !principal.IsAdmin() && !principal.owns(details.UserID) && !principal.owns(details.Apartment.EntrepreneurID) {
		details = persistence.BookingDetails{}
		err = ErrUnauthorized
	}
	return
}

// ListBookings returns bookings matching the filter. Non-administrators only see
// their own stays or, for hosts, bookings of apartments they own.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) (bookings []persistence.BookingDetails, err error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if s.store == nil {
		return nil, fmt.Errorf("booking store not configured")
	}

	principal := params.Principal
	logger := s.loggerWith(ctx, "ListBookings",
		"principal_id", principal.UserID,
		"user_filter", params.UserID,
		"entrepreneur_filter", params.EntrepreneurID,
		"apartment_filter", params.ApartmentID,
	)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "booking listing failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "bookings listed", "count", len(bookings))
	}()

	if err = s.policy.authorize(principal, resourceBooking, actionRead); err != nil {
		return nil, err
	}

	filter := persistence.BookingFilter{
		UserID:         params.UserID,
		ApartmentID:    params.ApartmentID,
		EntrepreneurID: params.EntrepreneurID,
	}
	for _, raw := range params.Statuses {
		status, parseErr := booking.ParseStatus(raw)
		if parseErr != nil {
			return nil, fieldError("status", "status must be one of PENDING, CONFIRMED, CANCELLED")
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	if !principal.IsAdmin() {
		switch {
		case filter.EntrepreneurID != "":
			if !principal.IsHost() || !principal.owns(filter.EntrepreneurID) {
				return nil, ErrUnauthorized
			}
		case filter.UserID != "":
			if !principal.owns(filter.UserID) {
				return nil, ErrUnauthorized
			}
		case principal.IsHost():
			filter.EntrepreneurID = principal.UserID
		default:
			filter.UserID = principal.UserID
		}
	}

	bookings, err = s.store.ListBookings(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if bookings == nil {
		bookings = []persistence.BookingDetails{}
	}
	return bookings, nil
}

// BlockedDates lists the calendar days covered by the apartment's confirmed
// bookings, ascending and without duplicates.
func (s *BookingService) BlockedDates(ctx context.Context, apartmentID string) (dates []time.Time, err error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if s.store == nil {
		return nil, fmt.Errorf("booking store not configured")
	}

	if _, err = s.store.GetApartment(ctx, apartmentID); err != nil {
		return nil, mapRepoError(err)
	}
	cached, generation, ok := s.cache.Get(apartmentID)
	if ok {
		return cached, nil
	}

	ranges, err := s.store.ListApartmentRanges(ctx, apartmentID, booking.StatusConfirmed)
	if err != nil {
		s.loggerWith(ctx, "BlockedDates", "apartment_id", apartmentID).
			ErrorContext(ctx, "failed to load confirmed stays", "error", err)
		return nil, mapRepoError(err)
	}

	dates = s.availability.BlockedDates(ranges)
	s.cache.Store(apartmentID, dates, generation)
	return cloneDates(dates), nil
}

// Quote prices a prospective stay at the apartment's current nightly rate.
func (s *BookingService) Quote(ctx context.Context, apartmentID string, start, end time.Time) (booking.Quote, error) {
	if s == nil {
		return booking.Quote{}, fmt.Errorf("BookingService is nil")
	}
	if s.store == nil {
		return booking.Quote{}, fmt.Errorf("booking store not configured")
	}

	vErr := &ValidationError{}
	if start.IsZero() {
		vErr.add("startDate", "startDate is required")
	}
	if end.IsZero() {
		vErr.add("endDate", "endDate is required")
	}
	if vErr.HasErrors() {
		return booking.Quote{}, vErr
	}

	apartment, err := s.store.GetApartment(ctx, apartmentID)
	if err != nil {
		return booking.Quote{}, mapRepoError(err)
	}
	quote, err := s.pricing.Quote(apartment.PricePerNight, start, end)
	if errors.Is(err, booking.ErrInvalidDateRange) {
		return booking.Quote{}, fieldError("endDate", "endDate must be after startDate")
	}
	if err != nil {
		return booking.Quote{}, fmt.Errorf("price stay: %w", err)
	}
	return quote, nil
}

func (s *BookingService) validateBookingInput(input BookingInput) (booking.DateRange, *ValidationError) {
	vErr := validateInput(input)

	if input.Status != "" {
		status, err := booking.ParseStatus(input.Status)
		if err != nil || status != booking.StatusPending {
			vErr.add("status", "new bookings must be PENDING")
		}
	}
	if input.TotalPrice != nil && !input.TotalPrice.IsPositive() {
		vErr.add("totalPrice", "totalPrice must be positive")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return booking.DateRange{}, vErr
	}

	stay, err := booking.NewDateRange(input.StartDate, input.EndDate)
	if err != nil {
		vErr.add("endDate", "endDate must be after startDate")
		return booking.DateRange{}, vErr
	}
	if stay.Start.Before(booking.Date(s.now())) {
		vErr.add("startDate", "startDate must not be in the past")
	}
	return stay, vErr
}
