package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/rental-marketplace/internal/persistence"
)

const userColumns = `id, username, email, password_hash, role, balance, is_banned, ban_date, created_at, updated_at`

// CreateUser inserts a new user. The balance is written as given; later
// changes go through SetBalance.
func (q *queries) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := q.q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		user.Username,
		normalizeEmail(user.Email),
		user.PasswordHash,
		string(user.Role),
		user.Balance.String(),
		user.IsBanned,
		formatOptionalTime(user.BanDate),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return q.mapper.MapError(err)
}

// UpdateUser rewrites the profile columns. The balance column is left alone.
func (q *queries) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	return q.execAffectingOne(ctx, `
		UPDATE users
		SET username = ?, email = ?, password_hash = ?, role = ?, is_banned = ?, ban_date = ?, updated_at = ?
		WHERE id = ?
	`,
		user.Username,
		normalizeEmail(user.Email),
		user.PasswordHash,
		string(user.Role),
		user.IsBanned,
		formatOptionalTime(user.BanDate),
		formatTime(user.UpdatedAt),
		user.ID,
	)
}

// GetUser retrieves a user by ID.
func (q *queries) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return scanUser(q.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id), q.mapper)
}

// GetUserByEmail retrieves a user by email address, ignoring case.
func (q *queries) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if strings.TrimSpace(email) == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return scanUser(q.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email)), q.mapper)
}

// ListUsers returns all users ordered by creation time then ID.
func (q *queries) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows, q.mapper)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, q.mapper.MapError(err)
	}
	return users, nil
}

// DeleteUser removes a user. Users referenced by bookings or apartments
// cannot be deleted.
func (q *queries) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return q.execAffectingOne(ctx, `DELETE FROM users WHERE id = ?`, id)
}

// Balance reads the current balance of a user.
func (q *queries) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := q.q.QueryRowContext(ctx, `SELECT balance FROM users WHERE id = ?`, userID).Scan(&balance); err != nil {
		return decimal.Decimal{}, q.mapper.MapError(err)
	}
	return balance, nil
}

// SetBalance overwrites the balance of a user.
func (q *queries) SetBalance(ctx context.Context, userID string, balance decimal.Decimal, at time.Time) error {
	if balance.IsNegative() {
		return persistence.ErrConstraintViolation
	}
	return q.execAffectingOne(ctx, `UPDATE users SET balance = ?, updated_at = ? WHERE id = ?`, balance.String(), formatTime(at), userID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, mapper *ErrorMapper) (persistence.User, error) {
	var (
		user                 persistence.User
		role                 string
		banDate              sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.Balance,
		&user.IsBanned,
		&banDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.User{}, mapper.MapError(err)
	}

	user.Role = persistence.Role(role)
	if user.BanDate, err = parseOptionalTime("ban_date", banDate); err != nil {
		return persistence.User{}, err
	}
	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
