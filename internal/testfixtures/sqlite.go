package testfixtures

import (
	"context"
	"testing"

	"github.com/example/rental-marketplace/internal/persistence"
	"github.com/example/rental-marketplace/internal/persistence/sqlite"
)

// SQLiteHarness is a migrated in-memory store for integration-style tests.
type SQLiteHarness struct {
	Storage *sqlite.Storage
	tb      testing.TB
}

// NewSQLiteHarness opens and migrates a private in-memory database that is
// closed when the test ends.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	storage, err := sqlite.Open(":memory:")
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return &SQLiteHarness{Storage: storage, tb: tb}
}

// SeedUsers inserts users or fails the test.
func (h *SQLiteHarness) SeedUsers(users ...persistence.User) {
	h.tb.Helper()
	for _, u := range users {
		if err := h.Storage.CreateUser(context.Background(), u); err != nil {
			h.tb.Fatalf("seed user %s: %v", u.ID, err)
		}
	}
}

// SeedApartments inserts apartments or fails the test.
func (h *SQLiteHarness) SeedApartments(apartments ...persistence.Apartment) {
	h.tb.Helper()
	for _, a := range apartments {
		if err := h.Storage.CreateApartment(context.Background(), a); err != nil {
			h.tb.Fatalf("seed apartment %s: %v", a.ID, err)
		}
	}
}

// SeedBookings inserts bookings directly, bypassing lifecycle rules.
func (h *SQLiteHarness) SeedBookings(bookings ...persistence.Booking) {
	h.tb.Helper()
	err := h.Storage.WithinTx(context.Background(), func(ctx context.Context, tx persistence.Tx) error {
		for _, b := range bookings {
			if err := tx.CreateBooking(ctx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.tb.Fatalf("seed bookings: %v", err)
	}
}
