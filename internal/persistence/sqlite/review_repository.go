package sqlite

import (
	"context"

	"github.com/example/rental-marketplace/internal/persistence"
)

const reviewColumns = `id, user_id, apartment_id, rating, comment, created_at`

// CreateReview inserts a review.
func (q *queries) CreateReview(ctx context.Context, review persistence.Review) error {
	_, err := q.q.ExecContext(ctx, `INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		review.ID,
		review.UserID,
		review.ApartmentID,
		review.Rating,
		review.Comment,
		formatTime(review.CreatedAt),
	)
	return q.mapper.MapError(err)
}

// GetReview retrieves a review by ID.
func (q *queries) GetReview(ctx context.Context, id string) (persistence.Review, error) {
	if id == "" {
		return persistence.Review{}, persistence.ErrNotFound
	}
	return scanReview(q.q.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id), q.mapper)
}

// ListReviews returns reviews, optionally for one apartment, newest first.
func (q *queries) ListReviews(ctx context.Context, apartmentID string) ([]persistence.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews`
	var args []any
	if apartmentID != "" {
		query += ` WHERE apartment_id = ?`
		args = append(args, apartmentID)
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	var reviews []persistence.Review
	for rows.Next() {
		review, err := scanReview(rows, q.mapper)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, q.mapper.MapError(err)
	}
	return reviews, nil
}

// DeleteReview removes a review.
func (q *queries) DeleteReview(ctx context.Context, id string) error {
	return q.execAffectingOne(ctx, `DELETE FROM reviews WHERE id = ?`, id)
}

func scanReview(row rowScanner, mapper *ErrorMapper) (persistence.Review, error) {
	var (
		review    persistence.Review
		createdAt string
	)
	if err := row.Scan(&review.ID, &review.UserID, &review.ApartmentID, &review.Rating, &review.Comment, &createdAt); err != nil {
		return persistence.Review{}, mapper.MapError(err)
	}
	var err error
	if review.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Review{}, err
	}
	return review, nil
}
