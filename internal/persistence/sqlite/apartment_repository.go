package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/rental-marketplace/internal/persistence"
)

const apartmentSelect = `
	SELECT a.id, a.entrepreneur_id, a.title, a.description, a.location, a.price_per_night,
	       a.features, a.rules, a.created_at, a.updated_at,
	       COALESCE(AVG(r.rating), 0), COUNT(r.id)
	FROM apartments a
	LEFT JOIN reviews r ON r.apartment_id = a.id
`

// CreateApartment inserts a listing.
func (q *queries) CreateApartment(ctx context.Context, apartment persistence.Apartment) error {
	features, rules, err := encodeApartmentSets(apartment)
	if err != nil {
		return err
	}
	_, err = q.q.ExecContext(ctx, `
		INSERT INTO apartments (id, entrepreneur_id, title, description, location, price_per_night, features, rules, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		apartment.ID,
		apartment.EntrepreneurID,
		apartment.Title,
		apartment.Description,
		apartment.Location,
		apartment.PricePerNight.String(),
		features,
		rules,
		formatTime(apartment.CreatedAt),
		formatTime(apartment.UpdatedAt),
	)
	return q.mapper.MapError(err)
}

// UpdateApartment rewrites a listing. The owner never changes.
func (q *queries) UpdateApartment(ctx context.Context, apartment persistence.Apartment) error {
	features, rules, err := encodeApartmentSets(apartment)
	if err != nil {
		return err
	}
	return q.execAffectingOne(ctx, `
		UPDATE apartments
		SET title = ?, description = ?, location = ?, price_per_night = ?, features = ?, rules = ?, updated_at = ?
		WHERE id = ?
	`,
		apartment.Title,
		apartment.Description,
		apartment.Location,
		apartment.PricePerNight.String(),
		features,
		rules,
		formatTime(apartment.UpdatedAt),
		apartment.ID,
	)
}

// GetApartment retrieves a listing with its rating aggregate.
func (q *queries) GetApartment(ctx context.Context, id string) (persistence.Apartment, error) {
	if id == "" {
		return persistence.Apartment{}, persistence.ErrNotFound
	}
	row := q.q.QueryRowContext(ctx, apartmentSelect+` WHERE a.id = ? GROUP BY a.id`, id)
	apartment, err := scanApartment(row, q.mapper)
	if err != nil {
		return persistence.Apartment{}, err
	}
	return apartment, nil
}

// ListApartments returns listings, optionally only those of one host.
func (q *queries) ListApartments(ctx context.Context, entrepreneurID string) ([]persistence.Apartment, error) {
	query := apartmentSelect
	var args []any
	if entrepreneurID != "" {
		query += ` WHERE a.entrepreneur_id = ?`
		args = append(args, entrepreneurID)
	}
	query += ` GROUP BY a.id ORDER BY a.created_at ASC, a.id ASC`

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	var apartments []persistence.Apartment
	for rows.Next() {
		apartment, err := scanApartment(rows, q.mapper)
		if err != nil {
			return nil, err
		}
		apartments = append(apartments, apartment)
	}
	if err := rows.Err(); err != nil {
		return nil, q.mapper.MapError(err)
	}
	return apartments, nil
}

// DeleteApartment removes a listing that has no bookings.
func (q *queries) DeleteApartment(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return q.execAffectingOne(ctx, `DELETE FROM apartments WHERE id = ?`, id)
}

func scanApartment(row rowScanner, mapper *ErrorMapper) (persistence.Apartment, error) {
	var (
		apartment            persistence.Apartment
		features, rules      string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&apartment.ID,
		&apartment.EntrepreneurID,
		&apartment.Title,
		&apartment.Description,
		&apartment.Location,
		&apartment.PricePerNight,
		&features,
		&rules,
		&createdAt,
		&updatedAt,
		&apartment.AvgRating,
		&apartment.ReviewCount,
	)
	if err != nil {
		return persistence.Apartment{}, mapper.MapError(err)
	}

	if err := json.Unmarshal([]byte(features), &apartment.Features); err != nil {
		return persistence.Apartment{}, fmt.Errorf("failed to decode features: %w", err)
	}
	if err := json.Unmarshal([]byte(rules), &apartment.Rules); err != nil {
		return persistence.Apartment{}, fmt.Errorf("failed to decode rules: %w", err)
	}
	if apartment.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Apartment{}, err
	}
	if apartment.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Apartment{}, err
	}
	return apartment, nil
}

func encodeApartmentSets(apartment persistence.Apartment) (string, string, error) {
	features := apartment.Features
	if features == nil {
		features = []string{}
	}
	rules := apartment.Rules
	if rules == nil {
		rules = []string{}
	}
	f, err := json.Marshal(features)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode features: %w", err)
	}
	r, err := json.Marshal(rules)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode rules: %w", err)
	}
	return string(f), string(r), nil
}
