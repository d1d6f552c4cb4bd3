package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/rental-marketplace/internal/ledger"
)

// AppendLedgerEntry records a balance movement.
func (q *queries) AppendLedgerEntry(ctx context.Context, entry ledger.Entry) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, user_id, booking_id, kind, amount, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.UserID,
		nullableString(entry.BookingID),
		string(entry.Kind),
		entry.Amount.String(),
		entry.BalanceAfter.String(),
		formatTime(entry.CreatedAt),
	)
	return q.mapper.MapError(err)
}

// ListLedgerEntries returns a user's movements, newest first.
func (q *queries) ListLedgerEntries(ctx context.Context, userID string) ([]ledger.Entry, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, user_id, booking_id, kind, amount, balance_after, created_at
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			entry     ledger.Entry
			bookingID sql.NullString
			kind      string
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &bookingID, &kind, &entry.Amount, &entry.BalanceAfter, &createdAt); err != nil {
			return nil, q.mapper.MapError(err)
		}
		entry.BookingID = bookingID.String
		entry.Kind = ledger.Kind(kind)
		if entry.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, q.mapper.MapError(err)
	}
	return entries, nil
}
