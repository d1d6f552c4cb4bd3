package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	// StatusPending is the initial state of every booking.
	StatusPending Status = "PENDING"
	// StatusConfirmed marks a booking whose price has been debited from the guest.
	StatusConfirmed Status = "CONFIRMED"
	// StatusCancelled is terminal.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidStatus indicates a status value outside the closed set.
var ErrInvalidStatus = errors.New("booking: invalid status")

// ErrInvalidTransition indicates the requested status change is not permitted from the stored status.
var ErrInvalidTransition = errors.New("booking: invalid status transition")

// ParseStatus converts a wire value into a Status. Matching is case-insensitive.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Effect is the ledger side effect paired with a status transition.
type Effect int

const (
	// EffectNone moves no funds.
	EffectNone Effect = iota
	// EffectDebit withdraws the booking total from the guest balance.
	EffectDebit
	// EffectCredit returns the booking total to the guest balance.
	EffectCredit
)

func (e Effect) String() string {
	switch e {
	case EffectDebit:
		return "debit"
	case EffectCredit:
		return "credit"
	}
	return "none"
}

// PlanTransition validates a change from the stored status to the requested one
// and returns the ledger effect that must accompany it.
//
//	PENDING   -> CONFIRMED  debit
//	PENDING   -> CANCELLED  none
//	CONFIRMED -> CANCELLED  credit
//
// Every other pair, including self transitions, is rejected.
func PlanTransition(from, to Status) (Effect, error) {
	switch from {
	case StatusPending:
		switch to {
		case StatusConfirmed:
			return EffectDebit, nil
		case StatusCancelled:
			return EffectNone, nil
		}
	case StatusConfirmed:
		if to == StatusCancelled {
			return EffectCredit, nil
		}
	}
	return EffectNone, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
