package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/rental-marketplace/internal/persistence"
	"github.com/example/rental-marketplace/internal/testfixtures"
)

func TestReviewService(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	host := testfixtures.NewUser(testfixtures.WithRole(persistence.RoleHost))
	guest := testfixtures.NewUser()
	other := testfixtures.NewUser()
	harness.SeedUsers(host, guest, other)
	apartment := testfixtures.NewApartment(host.ID)
	harness.SeedApartments(apartment)

	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	service := NewReviewService(harness.Storage, testfixtures.NewIDGenerator("rev").NextFunc(), clock.NowFunc(), nil, nil)
	apartments := NewApartmentService(harness.Storage, nil, clock.NowFunc(), nil, nil)
	ctx := context.Background()
	guestPrincipal := Principal{UserID: guest.ID, Role: persistence.RoleClient}

	first, err := service.CreateReview(ctx, CreateReviewParams{Principal: guestPrincipal, Input: ReviewInput{ApartmentID: apartment.ID, Rating: 5, Comment: " Lovely "}})
	if err != nil {
		t.Fatalf("expected review to be created, got %v", err)
	}
	if first.Comment != "Lovely" || first.UserID != guest.ID {
		t.Fatalf("expected trimmed review by guest, got %+v", first)
	}
	clock.Advance(1)
	if _, err := service.CreateReview(ctx, CreateReviewParams{Principal: Principal{UserID: other.ID, Role: persistence.RoleClient}, Input: ReviewInput{ApartmentID: apartment.ID, Rating: 4}}); err != nil {
		t.Fatalf("expected second review to be created, got %v", err)
	}

	rated, err := apartments.GetApartment(ctx, apartment.ID)
	if err != nil {
		t.Fatalf("expected apartment, got %v", err)
	}
	if rated.AvgRating != 4.5 || rated.ReviewCount != 2 {
		t.Fatalf("expected average 4.5 over 2 reviews, got %v over %d", rated.AvgRating, rated.ReviewCount)
	}

	t.Run("validates rating range", func(t *testing.T) {
		_, err := service.CreateReview(ctx, CreateReviewParams{Principal: guestPrincipal, Input: ReviewInput{ApartmentID: apartment.ID, Rating: 0}})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["rating"] == "" {
			t.Fatalf("expected rating error, got %v", err)
		}
	})

	t.Run("unknown apartments are not found", func(t *testing.T) {
		_, err := service.CreateReview(ctx, CreateReviewParams{Principal: guestPrincipal, Input: ReviewInput{ApartmentID: "missing", Rating: 3}})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := service.ListReviews(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound when listing, got %v", err)
		}
	})

	t.Run("only the author or an administrator deletes", func(t *testing.T) {
		otherPrincipal := Principal{UserID: other.ID, Role: persistence.RoleClient}
		if err := service.DeleteReview(ctx, otherPrincipal, first.ID); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if err := service.DeleteReview(ctx, guestPrincipal, first.ID); err != nil {
			t.Fatalf("expected author delete to succeed, got %v", err)
		}
		reviews, err := service.ListReviews(ctx, apartment.ID)
		if err != nil {
			t.Fatalf("expected listing, got %v", err)
		}
		if len(reviews) != 1 {
			t.Fatalf("expected one remaining review, got %d", len(reviews))
		}
	})
}
