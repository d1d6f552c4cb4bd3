package sqlite

import (
	"context"

	"github.com/example/rental-marketplace/internal/persistence"
)

// CreateSlider inserts a carousel entry.
func (q *queries) CreateSlider(ctx context.Context, slider persistence.Slider) error {
	_, err := q.q.ExecContext(ctx, `INSERT INTO sliders (id, title, image_url, position, created_at) VALUES (?, ?, ?, ?, ?)`,
		slider.ID, slider.Title, slider.ImageURL, slider.Position, formatTime(slider.CreatedAt))
	return q.mapper.MapError(err)
}

// UpdateSlider rewrites a carousel entry.
func (q *queries) UpdateSlider(ctx context.Context, slider persistence.Slider) error {
	return q.execAffectingOne(ctx, `UPDATE sliders SET title = ?, image_url = ?, position = ? WHERE id = ?`,
		slider.Title, slider.ImageURL, slider.Position, slider.ID)
}

// ListSliders returns carousel entries in display order.
func (q *queries) ListSliders(ctx context.Context) ([]persistence.Slider, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT id, title, image_url, position, created_at FROM sliders ORDER BY position ASC, created_at ASC`)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	var sliders []persistence.Slider
	for rows.Next() {
		var (
			slider    persistence.Slider
			createdAt string
		)
		if err := rows.Scan(&slider.ID, &slider.Title, &slider.ImageURL, &slider.Position, &createdAt); err != nil {
			return nil, q.mapper.MapError(err)
		}
		if slider.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		sliders = append(sliders, slider)
	}
	if err := rows.Err(); err != nil {
		return nil, q.mapper.MapError(err)
	}
	return sliders, nil
}

// DeleteSlider removes a carousel entry.
func (q *queries) DeleteSlider(ctx context.Context, id string) error {
	return q.execAffectingOne(ctx, `DELETE FROM sliders WHERE id = ?`, id)
}

// CreateContact stores a contact-form submission.
func (q *queries) CreateContact(ctx context.Context, contact persistence.Contact) error {
	_, err := q.q.ExecContext(ctx, `INSERT INTO contacts (id, name, email, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		contact.ID, contact.Name, contact.Email, contact.Message, formatTime(contact.CreatedAt))
	return q.mapper.MapError(err)
}

// ListContacts returns submissions, newest first.
func (q *queries) ListContacts(ctx context.Context) ([]persistence.Contact, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT id, name, email, message, created_at FROM contacts ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	var contacts []persistence.Contact
	for rows.Next() {
		var (
			contact   persistence.Contact
			createdAt string
		)
		if err := rows.Scan(&contact.ID, &contact.Name, &contact.Email, &contact.Message, &createdAt); err != nil {
			return nil, q.mapper.MapError(err)
		}
		if contact.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, q.mapper.MapError(err)
	}
	return contacts, nil
}

// DeleteContact removes a submission.
func (q *queries) DeleteContact(ctx context.Context, id string) error {
	return q.execAffectingOne(ctx, `DELETE FROM contacts WHERE id = ?`, id)
}
