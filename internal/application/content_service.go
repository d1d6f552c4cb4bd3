package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/rental-marketplace/internal/persistence"
)

// ContentStore captures the persistence operations needed by the content service.
type ContentStore interface {
	persistence.SliderRepository
	persistence.ContactRepository
}

// ContentService manages homepage sliders and contact-form submissions.
type ContentService struct {
	content     ContentStore
	policy      *AccessPolicy
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewContentService wires dependencies for site content operations.
func NewContentService(content ContentStore, idGenerator func() string, now func() time.Time, policy *AccessPolicy, logger *slog.Logger) *ContentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if policy == nil {
		policy = MustAccessPolicy()
	}
	return &ContentService{content: content, policy: policy, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ContentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ContentService", operation, attrs...)
}

// ListSliders returns carousel entries in display order.
func (s *ContentService) ListSliders(ctx context.Context) ([]persistence.Slider, error) {
	if s == nil {
		return nil, fmt.Errorf("ContentService is nil")
	}
	sliders, err := s.content.ListSliders(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if sliders == nil {
		sliders = []persistence.Slider{}
	}
	return sliders, nil
}

// CreateSlider adds a carousel entry.
func (s *ContentService) CreateSlider(ctx context.Context, principal Principal, input SliderInput) (slider persistence.Slider, err error) {
	if s == nil {
		err = fmt.Errorf("ContentService is nil")
		return
	}
	logger := s.loggerWith(ctx, "CreateSlider", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "slider created", "slider_id", slider.ID)
	}()

	if err = s.policy.authorize(principal, resourceContent, actionCreate); err != nil {
		return
	}
	input = normalizeSliderInput(input)
	if vErr := validateInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	candidate := persistence.Slider{
		ID:        s.idGenerator(),
		Title:     input.Title,
		ImageURL:  input.ImageURL,
		Position:  input.Position,
		CreatedAt: s.now(),
	}
	if err = s.content.CreateSlider(ctx, candidate); err != nil {
		err = mapRepoError(err)
		return
	}
	slider = candidate
	return
}

// UpdateSlider rewrites a carousel entry.
func (s *ContentService) UpdateSlider(ctx context.Context, principal Principal, sliderID string, input SliderInput) (slider persistence.Slider, err error) {
	if s == nil {
		err = fmt.Errorf("ContentService is nil")
		return
	}
	logger := s.loggerWith(ctx, "UpdateSlider", "principal_id", principal.UserID, "slider_id", sliderID)
	defer func() {
		logOutcome(ctx, logger, err, "slider updated")
	}()

	if err = s.policy.authorize(principal, resourceContent, actionUpdate); err != nil {
		return
	}
	input = normalizeSliderInput(input)
	if vErr := validateInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	candidate := persistence.Slider{ID: sliderID, Title: input.Title, ImageURL: input.ImageURL, Position: input.Position}
	if err = s.content.UpdateSlider(ctx, candidate); err != nil {
		err = mapRepoError(err)
		return
	}

	sliders, err := s.content.ListSliders(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	for _, existing := range sliders {
		if existing.ID == sliderID {
			slider = existing
			return
		}
	}
	err = ErrNotFound
	return
}

// DeleteSlider removes a carousel entry.
func (s *ContentService) DeleteSlider(ctx context.Context, principal Principal, sliderID string) (err error) {
	if s == nil {
		return fmt.Errorf("ContentService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteSlider", "principal_id", principal.UserID, "slider_id", sliderID)
	defer func() {
		logOutcome(ctx, logger, err, "slider deleted")
	}()

	if err = s.policy.authorize(principal, resourceContent, actionDelete); err != nil {
		return
	}
	err = mapRepoError(s.content.DeleteSlider(ctx, sliderID))
	return
}

// SubmitContact stores a contact-form message. Anyone may submit.
func (s *ContentService) SubmitContact(ctx context.Context, input ContactInput) (contact persistence.Contact, err error) {
	if s == nil {
		err = fmt.Errorf("ContentService is nil")
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Message = strings.TrimSpace(input.Message)

	logger := s.loggerWith(ctx, "SubmitContact", "email", input.Email)
	defer func() {
		logOutcome(ctx, logger, err, "contact submitted", "contact_id", contact.ID)
	}()

	if vErr := validateInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	candidate := persistence.Contact{
		ID:        s.idGenerator(),
		Name:      input.Name,
		Email:     input.Email,
		Message:   input.Message,
		CreatedAt: s.now(),
	}
	if err = s.content.CreateContact(ctx, candidate); err != nil {
		err = mapRepoError(err)
		return
	}
	contact = candidate
	return
}

// ListContacts returns submissions for administrators, newest first.
func (s *ContentService) ListContacts(ctx context.Context, principal Principal) ([]persistence.Contact, error) {
	if s == nil {
		return nil, fmt.Errorf("ContentService is nil")
	}
	if err := s.policy.authorize(principal, resourceContact, actionRead); err != nil {
		return nil, err
	}
	contacts, err := s.content.ListContacts(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if contacts == nil {
		contacts = []persistence.Contact{}
	}
	return contacts, nil
}

// DeleteContact removes a submission.
func (s *ContentService) DeleteContact(ctx context.Context, principal Principal, contactID string) (err error) {
	if s == nil {
		return fmt.Errorf("ContentService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteContact", "principal_id", principal.UserID, "contact_id", contactID)
	defer func() {
		logOutcome(ctx, logger, err, "contact deleted")
	}()

	if err = s.policy.authorize(principal, resourceContact, actionDelete); err != nil {
		return
	}
	err = mapRepoError(s.content.DeleteContact(ctx, contactID))
	return
}

func normalizeSliderInput(input SliderInput) SliderInput {
	input.Title = strings.TrimSpace(input.Title)
	input.ImageURL = strings.TrimSpace(input.ImageURL)
	return input
}
