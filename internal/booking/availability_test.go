package booking

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := ParseDate(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	r, err := NewDateRange(mustDate(t, start), mustDate(t, end))
	if err != nil {
		t.Fatalf("range %s/%s: %v", start, end, err)
	}
	return r
}

func formatAll(days []time.Time) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, FormatDate(d))
	}
	return out
}

func TestNewDateRange(t *testing.T) {
	t.Parallel()

	day := mustDate(t, "2024-06-01")
	if _, err := NewDateRange(day, day); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange for zero nights, got %v", err)
	}
	if _, err := NewDateRange(day, day.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange for negative nights, got %v", err)
	}

	tokyo := time.FixedZone("JST", 9*60*60)
	r, err := NewDateRange(time.Date(2024, 6, 1, 23, 30, 0, 0, tokyo), time.Date(2024, 6, 4, 1, 0, 0, 0, tokyo))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Nights() != 3 {
		t.Fatalf("expected 3 nights, got %d", r.Nights())
	}
}

func TestAvailabilityPolicy_BlockedDates(t *testing.T) {
	t.Parallel()

	ranges := []DateRange{
		mustRange(t, "2024-06-05", "2024-06-07"),
		mustRange(t, "2024-06-01", "2024-06-03"),
		mustRange(t, "2024-06-03", "2024-06-04"),
	}

	t.Run("inclusive of checkout day by default", func(t *testing.T) {
		t.Parallel()
		got := formatAll(DefaultAvailabilityPolicy().BlockedDates(ranges))
		want := []string{"2024-06-01", "2024-06-02", "2024-06-03", "2024-06-04", "2024-06-05", "2024-06-06", "2024-06-07"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("checkout day left open when configured", func(t *testing.T) {
		t.Parallel()
		got := formatAll(AvailabilityPolicy{BlockCheckoutDay: false}.BlockedDates(ranges))
		want := []string{"2024-06-01", "2024-06-02", "2024-06-03", "2024-06-05", "2024-06-06"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("no bookings yields empty set", func(t *testing.T) {
		t.Parallel()
		if got := DefaultAvailabilityPolicy().BlockedDates(nil); len(got) != 0 {
			t.Fatalf("expected empty set, got %v", got)
		}
	})

	t.Run("repeated calls are identical", func(t *testing.T) {
		t.Parallel()
		policy := DefaultAvailabilityPolicy()
		first := policy.BlockedDates(ranges)
		second := policy.BlockedDates(ranges)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("expected identical results, got %v and %v", first, second)
		}
	})
}

func TestAvailabilityPolicy_Conflicts(t *testing.T) {
	t.Parallel()

	existing := []DateRange{mustRange(t, "2024-06-10", "2024-06-12")}

	t.Run("arrival on checkout day conflicts when checkout day is blocked", func(t *testing.T) {
		t.Parallel()
		got := DefaultAvailabilityPolicy().Conflicts(existing, mustRange(t, "2024-06-12", "2024-06-14"))
		if len(got) != 1 {
			t.Fatalf("expected one conflict, got %v", got)
		}
	})

	t.Run("arrival on checkout day allowed when checkout day is open", func(t *testing.T) {
		t.Parallel()
		got := AvailabilityPolicy{}.Conflicts(existing, mustRange(t, "2024-06-12", "2024-06-14"))
		if len(got) != 0 {
			t.Fatalf("expected no conflicts, got %v", got)
		}
	})

	t.Run("disjoint stays never conflict", func(t *testing.T) {
		t.Parallel()
		got := DefaultAvailabilityPolicy().Conflicts(existing, mustRange(t, "2024-06-20", "2024-06-22"))
		if len(got) != 0 {
			t.Fatalf("expected no conflicts, got %v", got)
		}
	})

	t.Run("enclosing stay conflicts", func(t *testing.T) {
		t.Parallel()
		got := AvailabilityPolicy{}.Conflicts(existing, mustRange(t, "2024-06-01", "2024-06-30"))
		if len(got) != 1 {
			t.Fatalf("expected one conflict, got %v", got)
		}
	})
}
