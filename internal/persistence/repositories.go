package persistence

import (
	"context"
	"time"

	"github.com/example/rental-marketplace/internal/booking"
	"github.com/example/rental-marketplace/internal/ledger"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ApartmentRepository exposes CRUD operations for apartments.
type ApartmentRepository interface {
	CreateApartment(ctx context.Context, apartment Apartment) error
	UpdateApartment(ctx context.Context, apartment Apartment) error
	GetApartment(ctx context.Context, id string) (Apartment, error)
	ListApartments(ctx context.Context, entrepreneurID string) ([]Apartment, error)
	DeleteApartment(ctx context.Context, id string) error
}

// BookingReader reads bookings and their embedded summaries.
type BookingReader interface {
	GetBooking(ctx context.Context, id string) (BookingDetails, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]BookingDetails, error)
	ListApartmentRanges(ctx context.Context, apartmentID string, status booking.Status) ([]booking.DateRange, error)
}

// LedgerReader lists balance movements for a user, newest first.
type LedgerReader interface {
	ListLedgerEntries(ctx context.Context, userID string) ([]ledger.Entry, error)
}

// ReviewRepository stores apartment reviews.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review Review) error
	ListReviews(ctx context.Context, apartmentID string) ([]Review, error)
	GetReview(ctx context.Context, id string) (Review, error)
	DeleteReview(ctx context.Context, id string) error
}

// SliderRepository stores homepage carousel entries.
type SliderRepository interface {
	CreateSlider(ctx context.Context, slider Slider) error
	UpdateSlider(ctx context.Context, slider Slider) error
	ListSliders(ctx context.Context) ([]Slider, error)
	DeleteSlider(ctx context.Context, id string) error
}

// ContactRepository stores contact-form submissions.
type ContactRepository interface {
	CreateContact(ctx context.Context, contact Contact) error
	ListContacts(ctx context.Context) ([]Contact, error)
	DeleteContact(ctx context.Context, id string) error
}

// Tx is the set of operations available inside a transaction. Reads observe
// the transaction's own writes.
type Tx interface {
	ledger.Accounts

	GetUser(ctx context.Context, id string) (User, error)
	GetApartment(ctx context.Context, id string) (Apartment, error)
	GetBookingForUpdate(ctx context.Context, id string) (Booking, error)
	ListApartmentRanges(ctx context.Context, apartmentID string, status booking.Status) ([]booking.DateRange, error)
	CreateBooking(ctx context.Context, b Booking) error
	UpdateBookingStatus(ctx context.Context, id string, status booking.Status, at time.Time) error
}

// Transactor runs fn inside a transaction that commits when fn returns nil
// and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
