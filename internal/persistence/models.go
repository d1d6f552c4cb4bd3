package persistence

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/rental-marketplace/internal/booking"
)

// Role is the persona a user account acts as.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleHost   Role = "HOST"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleHost, RoleAdmin:
		return true
	}
	return false
}

// User represents a marketplace account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Balance      decimal.Decimal
	IsBanned     bool
	BanDate      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Apartment is a listing owned by a host.
type Apartment struct {
	ID             string
	EntrepreneurID string
	Title          string
	Description    string
	Location       string
	PricePerNight  decimal.Decimal
	Features       []string
	Rules          []string
	// AvgRating and ReviewCount are aggregated from reviews on read.
	AvgRating   float64
	ReviewCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Booking is a reservation of an apartment for a date range.
type Booking struct {
	ID          string
	UserID      string
	ApartmentID string
	StartDate   time.Time
	EndDate     time.Time
	Status      booking.Status
	TotalPrice  decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Range returns the stay covered by the booking.
func (b Booking) Range() booking.DateRange {
	return booking.DateRange{Start: b.StartDate, End: b.EndDate}
}

// BookingGuest is the guest summary embedded in booking listings.
type BookingGuest struct {
	Username string
	Balance  decimal.Decimal
}

// BookingApartment is the apartment summary embedded in booking listings.
type BookingApartment struct {
	Title          string
	PricePerNight  decimal.Decimal
	EntrepreneurID string
}

// BookingDetails joins a booking with its guest and apartment summaries.
type BookingDetails struct {
	Booking
	Guest     BookingGuest
	Apartment BookingApartment
}

// BookingFilter narrows booking listings. Empty fields do not constrain.
type BookingFilter struct {
	UserID         string
	ApartmentID    string
	EntrepreneurID string
	Statuses       []booking.Status
}

// Review is a guest rating of an apartment.
type Review struct {
	ID          string
	UserID      string
	ApartmentID string
	Rating      int
	Comment     string
	CreatedAt   time.Time
}

// Slider is a homepage carousel entry.
type Slider struct {
	ID        string
	Title     string
	ImageURL  string
	Position  int
	CreatedAt time.Time
}

// Contact is a contact-form submission.
type Contact struct {
	ID        string
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}
