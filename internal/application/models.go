package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/rental-marketplace/internal/persistence"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   persistence.Role
}

// IsAdmin reports whether the principal carries the ADMIN role.
func (p Principal) IsAdmin() bool { return p.Role == persistence.RoleAdmin }

// IsHost reports whether the principal carries the HOST role.
func (p Principal) IsHost() bool { return p.Role == persistence.RoleHost }

func (p Principal) owns(userID string) bool {
	return p.UserID != "" && p.UserID == userID
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	UserID      string           `json:"userId"`
	ApartmentID string           `json:"apartmentId" validate:"required"`
	StartDate   time.Time        `json:"startDate" validate:"required"`
	EndDate     time.Time        `json:"endDate" validate:"required"`
	Status      string           `json:"status"`
	TotalPrice  *decimal.Decimal `json:"totalPrice"`
}

// CreateBookingParams wraps the data required to request a stay.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// TransitionBookingParams wraps the data required to move a booking to a new status.
type TransitionBookingParams struct {
	Principal Principal
	BookingID string
	Status    string
}

// ListBookingsParams narrows a booking listing.
type ListBookingsParams struct {
	Principal      Principal
	UserID         string
	ApartmentID    string
	EntrepreneurID string
	Statuses       []string
}

// ApartmentInput captures caller provided listing fields.
type ApartmentInput struct {
	EntrepreneurID string          `json:"entrepreneurId"`
	Title          string          `json:"title" validate:"required,max=200"`
	Description    string          `json:"description" validate:"max=5000"`
	Location       string          `json:"location" validate:"required,max=200"`
	PricePerNight  decimal.Decimal `json:"pricePerNight"`
	Features       []string        `json:"features" validate:"max=50,dive,required,max=100"`
	Rules          []string        `json:"rules" validate:"max=50,dive,required,max=200"`
}

// CreateApartmentParams wraps the data required to publish a listing.
type CreateApartmentParams struct {
	Principal Principal
	Input     ApartmentInput
}

// UpdateApartmentParams wraps the data required to edit a listing.
type UpdateApartmentParams struct {
	Principal   Principal
	ApartmentID string
	Input       ApartmentInput
}

// RegisterUserInput captures sign-up fields.
type RegisterUserInput struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=CLIENT HOST"`
}

// UserUpdateInput captures profile and moderation changes. Nil fields are left untouched.
type UserUpdateInput struct {
	Username        *string    `json:"username" validate:"omitempty,min=3,max=50,username"`
	Email           *string    `json:"email" validate:"omitempty,email,max=254"`
	Password        *string    `json:"password" validate:"omitempty,min=8,max=128"`
	CurrentPassword string     `json:"currentPassword"`
	Role            *string    `json:"role" validate:"omitempty,oneof=CLIENT HOST ADMIN"`
	IsBanned        *bool      `json:"isBanned"`
	BanDate         *time.Time `json:"banDate"`
}

// UpdateUserParams wraps the data required to edit a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserUpdateInput
}

// DepositParams wraps a balance top-up.
type DepositParams struct {
	Principal Principal
	UserID    string
	Amount    decimal.Decimal
}

// ReviewInput captures a guest review.
type ReviewInput struct {
	ApartmentID string `json:"apartmentId" validate:"required"`
	Rating      int    `json:"rating" validate:"min=1,max=5"`
	Comment     string `json:"comment" validate:"max=2000"`
}

// CreateReviewParams wraps the data required to review an apartment.
type CreateReviewParams struct {
	Principal Principal
	Input     ReviewInput
}

// SliderInput captures a homepage carousel entry.
type SliderInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	ImageURL string `json:"imageUrl" validate:"required,url,max=2048"`
	Position int    `json:"position" validate:"min=0"`
}

// ContactInput captures a contact-form submission.
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Message string `json:"message" validate:"required,max=5000"`
}
