package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/rental-marketplace/internal/booking"
	"github.com/example/rental-marketplace/internal/persistence"
)

const bookingColumns = `b.id, b.user_id, b.apartment_id, b.start_date, b.end_date, b.status, b.total_price, b.created_at, b.updated_at`

const bookingDetailsSelect = `
	SELECT ` + bookingColumns + `,
	       u.username, u.balance, a.title, a.price_per_night, a.entrepreneur_id
	FROM bookings b
	JOIN users u ON u.id = b.user_id
	JOIN apartments a ON a.id = b.apartment_id
`

// CreateBooking inserts a booking.
func (q *queries) CreateBooking(ctx context.Context, b persistence.Booking) error {
	if !b.Status.Valid() {
		return persistence.ErrConstraintViolation
	}
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO bookings (id, user_id, apartment_id, start_date, end_date, status, total_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID,
		b.UserID,
		b.ApartmentID,
		booking.FormatDate(b.StartDate),
		booking.FormatDate(b.EndDate),
		string(b.Status),
		b.TotalPrice.String(),
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
	)
	return q.mapper.MapError(err)
}

// GetBookingForUpdate reads the stored booking row. SQLite locks the whole
// database for a writing transaction, so no row lock is needed.
func (q *queries) GetBookingForUpdate(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	row := q.q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, id)
	var b persistence.Booking
	if err := scanBooking(row, q.mapper, &b); err != nil {
		return persistence.Booking{}, err
	}
	return b, nil
}

// UpdateBookingStatus writes a new status.
func (q *queries) UpdateBookingStatus(ctx context.Context, id string, status booking.Status, at time.Time) error {
	if !status.Valid() {
		return persistence.ErrConstraintViolation
	}
	return q.execAffectingOne(ctx, `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`, string(status), formatTime(at), id)
}

// GetBooking reads a booking with its guest and apartment summaries.
func (q *queries) GetBooking(ctx context.Context, id string) (persistence.BookingDetails, error) {
	if id == "" {
		return persistence.BookingDetails{}, persistence.ErrNotFound
	}
	return scanBookingDetails(q.q.QueryRowContext(ctx, bookingDetailsSelect+` WHERE b.id = ?`, id), q.mapper)
}

// ListBookings returns bookings matching filter, newest first.
func (q *queries) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.BookingDetails, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != "" {
		clauses = append(clauses, "b.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ApartmentID != "" {
		clauses = append(clauses, "b.apartment_id = ?")
		args = append(args, filter.ApartmentID)
	}
	if filter.EntrepreneurID != "" {
		clauses = append(clauses, "a.entrepreneur_id = ?")
		args = append(args, filter.EntrepreneurID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			placeholders = append(placeholders, "?")
			args = append(args, string(status))
		}
		clauses = append(clauses, fmt.Sprintf("b.status IN (%s)", strings.Join(placeholders, ", ")))
	}

	query := bookingDetailsSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY b.created_at DESC, b.id ASC"

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	var out []persistence.BookingDetails
	for rows.Next() {
		details, err := scanBookingDetails(rows, q.mapper)
		if err != nil {
			return nil, err
		}
		out = append(out, details)
	}
	if err := rows.Err(); err != nil {
		return nil, q.mapper.MapError(err)
	}
	return out, nil
}

// ListApartmentRanges returns the stays of an apartment's bookings in the given status.
func (q *queries) ListApartmentRanges(ctx context.Context, apartmentID string, status booking.Status) ([]booking.DateRange, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT start_date, end_date
		FROM bookings
		WHERE apartment_id = ? AND status = ?
		ORDER BY start_date ASC
	`, apartmentID, string(status))
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	var ranges []booking.DateRange
	for rows.Next() {
		var start, end string
		if err := rows.Scan(&start, &end); err != nil {
			return nil, q.mapper.MapError(err)
		}
		r, err := parseRange(start, end)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	if err := rows.Err(); err != nil {
		return nil, q.mapper.MapError(err)
	}
	return ranges, nil
}

func scanBooking(row rowScanner, mapper *ErrorMapper, b *persistence.Booking, extra ...any) error {
	var (
		start, end, status   string
		createdAt, updatedAt string
	)
	dest := append([]any{
		&b.ID,
		&b.UserID,
		&b.ApartmentID,
		&start,
		&end,
		&status,
		&b.TotalPrice,
		&createdAt,
		&updatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return mapper.MapError(err)
	}

	r, err := parseRange(start, end)
	if err != nil {
		return err
	}
	b.StartDate, b.EndDate = r.Start, r.End

	if b.Status, err = booking.ParseStatus(status); err != nil {
		return fmt.Errorf("failed to parse status: %w", err)
	}
	if b.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return err
	}
	if b.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return err
	}
	return nil
}

func scanBookingDetails(row rowScanner, mapper *ErrorMapper) (persistence.BookingDetails, error) {
	var details persistence.BookingDetails
	err := scanBooking(row, mapper, &details.Booking,
		&details.Guest.Username,
		&details.Guest.Balance,
		&details.Apartment.Title,
		&details.Apartment.PricePerNight,
		&details.Apartment.EntrepreneurID,
	)
	if err != nil {
		return persistence.BookingDetails{}, err
	}
	return details, nil
}

func parseRange(start, end string) (booking.DateRange, error) {
	s, err := booking.ParseDate(start)
	if err != nil {
		return booking.DateRange{}, err
	}
	e, err := booking.ParseDate(end)
	if err != nil {
		return booking.DateRange{}, err
	}
	return booking.DateRange{Start: s, End: e}, nil
}
