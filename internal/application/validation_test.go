package application

import "testing"

func TestValidateInput(t *testing.T) {
	t.Parallel()

	t.Run("accepts valid input", func(t *testing.T) {
		t.Parallel()

		vErr := validateInput(ContactInput{Name: "Ana", Email: "ana@example.com", Message: "Hello"})
		if vErr.HasErrors() {
			t.Fatalf("expected no errors, got %v", vErr.FieldErrors)
		}
	})

	t.Run("keys errors by json name", func(t *testing.T) {
		t.Parallel()

		vErr := validateInput(ContactInput{Name: "", Email: "not-an-email", Message: "Hello"})
		if got := vErr.FieldErrors["name"]; got != "name is required" {
			t.Fatalf("expected required message for name, got %q", got)
		}
		if got := vErr.FieldErrors["email"]; got != "email must be a valid email address" {
			t.Fatalf("expected email message, got %q", got)
		}
	})

	t.Run("reports numeric bounds", func(t *testing.T) {
		t.Parallel()

		vErr := validateInput(ReviewInput{ApartmentID: "a-1", Rating: 6})
		if got := vErr.FieldErrors["rating"]; got != "rating must be at most 5" {
			t.Fatalf("expected rating bound message, got %q", got)
		}
	})

	t.Run("reports slice elements by index", func(t *testing.T) {
		t.Parallel()

		vErr := validateInput(ApartmentInput{Title: "Loft", Location: "Split", Features: []string{"wifi", ""}})
		if got := vErr.FieldErrors["features[1]"]; got != "features[1] is required" {
			t.Fatalf("expected element error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects usernames with spaces", func(t *testing.T) {
		t.Parallel()

		vErr := validateInput(RegisterUserInput{Username: "bad name", Email: "a@b.io", Password: "longenough"})
		if _, ok := vErr.FieldErrors["username"]; !ok {
			t.Fatalf("expected username error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("restricts self-assigned roles", func(t *testing.T) {
		t.Parallel()

		vErr := validateInput(RegisterUserInput{Username: "ana", Email: "a@b.io", Password: "longenough", Role: "ADMIN"})
		if got := vErr.FieldErrors["role"]; got != "role must be one of CLIENT, HOST" {
			t.Fatalf("expected role message, got %q", got)
		}
	})
}
