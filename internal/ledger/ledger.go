// Package ledger owns every mutation of a user's balance. Each debit or credit
// rewrites the balance and appends an entry through the same Accounts handle,
// which callers obtain from an open transaction so the balance change commits
// or rolls back together with the write that triggered it.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the current balance.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
)

// Kind distinguishes debits from credits.
type Kind string

const (
	KindDebit  Kind = "debit"
	KindCredit Kind = "credit"
)

// Entry is an append-only record of one balance movement.
type Entry struct {
	ID           string
	UserID       string
	BookingID    string
	Kind         Kind
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}

// Accounts is the storage port the ledger mutates.
type Accounts interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	SetBalance(ctx context.Context, userID string, balance decimal.Decimal, at time.Time) error
	AppendLedgerEntry(ctx context.Context, entry Entry) error
}

// Ledger applies debits and credits.
type Ledger struct {
	idGenerator func() string
	now         func() time.Time
}

// New constructs a Ledger.
func New(idGenerator func() string, now func() time.Time) *Ledger {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{idGenerator: idGenerator, now: now}
}

// Debit withdraws amount from the user. The balance never goes negative.
func (l *Ledger) Debit(ctx context.Context, accounts Accounts, userID string, amount decimal.Decimal, bookingID string) (Entry, error) {
	return l.apply(ctx, accounts, KindDebit, userID, amount, bookingID)
}

// Credit adds amount to the user.
func (l *Ledger) Credit(ctx context.Context, accounts Accounts, userID string, amount decimal.Decimal, bookingID string) (Entry, error) {
	return l.apply(ctx, accounts, KindCredit, userID, amount, bookingID)
}

func (l *Ledger) apply(ctx context.Context, accounts Accounts, kind Kind, userID string, amount decimal.Decimal, bookingID string) (Entry, error) {
	if !amount.IsPositive() {
		return Entry{}, ErrInvalidAmount
	}

	balance, err := accounts.Balance(ctx, userID)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: read balance: %w", err)
	}

	next := balance.Add(amount)
	if kind == KindDebit {
		if balance.LessThan(amount) {
			return Entry{}, ErrInsufficientFunds
		}
		next = balance.Sub(amount)
	}

	at := l.now().UTC()
	if err := accounts.SetBalance(ctx, userID, next, at); err != nil {
		return Entry{}, fmt.Errorf("ledger: write balance: %w", err)
	}

	entry := Entry{
		ID:           l.idGenerator(),
		UserID:       userID,
		BookingID:    bookingID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: next,
		CreatedAt:    at,
	}
	if err := accounts.AppendLedgerEntry(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("ledger: append entry: %w", err)
	}
	return entry, nil
}
