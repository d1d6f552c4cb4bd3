package booking

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// ErrInvalidDateRange indicates a stay of zero or negative nights.
var ErrInvalidDateRange = errors.New("booking: end date must be after start date")

// Date truncates t to its calendar date at UTC midnight. The calendar day is
// read in t's own location so a local midnight keeps its date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("booking: parse date %q: %w", value, err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return Date(t).Format(DateLayout)
}

// DateRange is a stay from check-in (Start) to check-out (End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalises both bounds to calendar dates and requires at least one night.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Date(start), End: Date(end)}
	if r.Nights() <= 0 {
		return DateRange{}, ErrInvalidDateRange
	}
	return r, nil
}

// Nights is the calendar-day difference between End and Start.
func (r DateRange) Nights() int {
	start := Date(r.Start)
	end := Date(r.End)
	// UTC midnights are exactly 24h apart, so integer division is exact.
	return int(end.Sub(start) / (24 * time.Hour))
}

func (r DateRange) String() string {
	return FormatDate(r.Start) + "/" + FormatDate(r.End)
}
