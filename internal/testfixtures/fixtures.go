package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/rental-marketplace/internal/booking"
	"github.com/example/rental-marketplace/internal/persistence"
)

var (
	userCounter      uint64
	apartmentCounter uint64
	bookingCounter   uint64
)

var referenceTime = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Date parses a YYYY-MM-DD literal and panics on malformed input.
func Date(value string) time.Time {
	d, err := booking.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Money parses a decimal literal and panics on malformed input.
func Money(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// UserOption configures a generated user.
type UserOption func(*persistence.User)

// NewUser returns a deterministic CLIENT with a zero balance.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:           id,
		Username:     fmt.Sprintf("guest%03d", idx),
		Email:        id + "@example.com",
		PasswordHash: "hash-" + id,
		Role:         persistence.RoleClient,
		Balance:      decimal.Zero,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID and derived email.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) {
		u.ID = id
		u.Email = id + "@example.com"
	}
}

// WithUserEmail overrides the email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithRole sets the user's role.
func WithRole(role persistence.Role) UserOption {
	return func(u *persistence.User) { u.Role = role }
}

// WithBalance sets the starting balance.
func WithBalance(amount string) UserOption {
	return func(u *persistence.User) { u.Balance = Money(amount) }
}

// ApartmentOption configures a generated apartment.
type ApartmentOption func(*persistence.Apartment)

// NewApartment returns a deterministic listing owned by entrepreneurID at 100 per night.
func NewApartment(entrepreneurID string, opts ...ApartmentOption) persistence.Apartment {
	idx := atomic.AddUint64(&apartmentCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	apartment := persistence.Apartment{
		ID:             fmt.Sprintf("apartment-%03d", idx),
		EntrepreneurID: entrepreneurID,
		Title:          fmt.Sprintf("Seaside flat %03d", idx),
		Description:    "Two rooms with a view",
		Location:       "Lisbon",
		PricePerNight:  decimal.NewFromInt(100),
		Features:       []string{"WIFI", "KITCHEN"},
		Rules:          []string{"NO_SMOKING"},
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&apartment)
	}
	return apartment
}

// WithApartmentID overrides the generated apartment ID.
func WithApartmentID(id string) ApartmentOption {
	return func(a *persistence.Apartment) { a.ID = id }
}

// WithPricePerNight sets the nightly rate.
func WithPricePerNight(amount string) ApartmentOption {
	return func(a *persistence.Apartment) { a.PricePerNight = Money(amount) }
}

// BookingOption configures a generated booking.
type BookingOption func(*persistence.Booking)

// NewBooking returns a PENDING booking for two nights from 2024-07-01 priced at 260.
func NewBooking(userID, apartmentID string, opts ...BookingOption) persistence.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	b := persistence.Booking{
		ID:          fmt.Sprintf("booking-%03d", idx),
		UserID:      userID,
		ApartmentID: apartmentID,
		StartDate:   Date("2024-07-01"),
		EndDate:     Date("2024-07-03"),
		Status:      booking.StatusPending,
		TotalPrice:  decimal.NewFromInt(260),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(b *persistence.Booking) { b.ID = id }
}

// WithStay sets the check-in and check-out dates.
func WithStay(start, end string) BookingOption {
	return func(b *persistence.Booking) {
		b.StartDate = Date(start)
		b.EndDate = Date(end)
	}
}

// WithStatus sets the booking status.
func WithStatus(status booking.Status) BookingOption {
	return func(b *persistence.Booking) { b.Status = status }
}

// WithTotalPrice sets the booking total.
func WithTotalPrice(amount string) BookingOption {
	return func(b *persistence.Booking) { b.TotalPrice = Money(amount) }
}
