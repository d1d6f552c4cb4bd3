package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/rental-marketplace/internal/persistence"
)

// ApartmentStore captures the persistence operations needed by the apartment service.
type ApartmentStore interface {
	persistence.ApartmentRepository
	GetUser(ctx context.Context, id string) (persistence.User, error)
}

// ApartmentService manages listings published by hosts.
type ApartmentService struct {
	apartments  ApartmentStore
	policy      *AccessPolicy
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewApartmentService wires dependencies for listing operations.
func NewApartmentService(apartments ApartmentStore, idGenerator func() string, now func() time.Time, policy *AccessPolicy, logger *slog.Logger) *ApartmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if policy == nil {
		policy = MustAccessPolicy()
	}
	return &ApartmentService{
		apartments:  apartments,
		policy:      policy,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ApartmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ApartmentService", operation, attrs...)
}

// CreateApartment publishes a listing owned by a host.
func (s *ApartmentService) CreateApartment(ctx context.Context, params CreateApartmentParams) (apartment persistence.Apartment, err error) {
	if s == nil {
		err = fmt.Errorf("ApartmentService is nil")
		return
	}
	principal := params.Principal
	input := normalizeApartmentInput(params.Input)
	if input.EntrepreneurID == "" {
		input.EntrepreneurID = principal.UserID
	}

	logger := s.loggerWith(ctx, "CreateApartment", "principal_id", principal.UserID, "entrepreneur_id", input.EntrepreneurID)
	defer func() {
		logOutcome(ctx, logger, err, "apartment created", "apartment_id", apartment.ID)
	}()

	if err = s.policy.authorize(principal, resourceApartment, actionCreate); err != nil {
		return
	}
	if !principal.owns(input.EntrepreneurID) && !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if vErr := validateApartmentInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	owner, err := s.apartments.GetUser(ctx, input.EntrepreneurID)
	if err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrNotFound) {
			err = fieldError("entrepreneurId", "entrepreneurId must reference an existing host")
		}
		return
	}
	if owner.Role != persistence.RoleHost && owner.Role != persistence.RoleAdmin {
		err = fieldError("entrepreneurId", "entrepreneurId must reference an existing host")
		return
	}

	createdAt := s.now()
	candidate := persistence.Apartment{
		ID:             s.idGenerator(),
		EntrepreneurID: input.EntrepreneurID,
		Title:          input.Title,
		Description:    input.Description,
		Location:       input.Location,
		PricePerNight:  input.PricePerNight,
		Features:       input.Features,
		Rules:          input.Rules,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	if err = s.apartments.CreateApartment(ctx, candidate); err != nil {
		err = mapRepoError(err)
		return
	}
	apartment = candidate
	return
}

// UpdateApartment edits a listing. Existing bookings keep the total fixed at
// their creation.
func (s *ApartmentService) UpdateApartment(ctx context.Context, params UpdateApartmentParams) (apartment persistence.Apartment, err error) {
	if s == nil {
		err = fmt.Errorf("ApartmentService is nil")
		return
	}
	principal := params.Principal
	input := normalizeApartmentInput(params.Input)

	logger := s.loggerWith(ctx, "UpdateApartment", "principal_id", principal.UserID, "apartment_id", params.ApartmentID)
	defer func() {
		logOutcome(ctx, logger, err, "apartment updated")
	}()

	existing, err := s.ownedApartment(ctx, principal, actionUpdate, params.ApartmentID)
	if err != nil {
		return
	}
	if vErr := validateApartmentInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Title = input.Title
	updated.Description = input.Description
	updated.Location = input.Location
	updated.PricePerNight = input.PricePerNight
	updated.Features = input.Features
	updated.Rules = input.Rules
	updated.UpdatedAt = s.now()

	if err = s.apartments.UpdateApartment(ctx, updated); err != nil {
		err = mapRepoError(err)
		return
	}
	apartment = updated
	return
}

// DeleteApartment removes a listing without bookings.
func (s *ApartmentService) DeleteApartment(ctx context.Context, principal Principal, apartmentID string) (err error) {
	if s == nil {
		return fmt.Errorf("ApartmentService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteApartment", "principal_id", principal.UserID, "apartment_id", apartmentID)
	defer func() {
		logOutcome(ctx, logger, err, "apartment deleted")
	}()

	if _, err = s.ownedApartment(ctx, principal, actionDelete, apartmentID); err != nil {
		return
	}
	err = mapRepoError(s.apartments.DeleteApartment(ctx, apartmentID))
	return
}

// GetApartment returns a listing with its rating aggregate.
func (s *ApartmentService) GetApartment(ctx context.Context, apartmentID string) (persistence.Apartment, error) {
	if s == nil {
		return persistence.Apartment{}, fmt.Errorf("ApartmentService is nil")
	}
	apartment, err := s.apartments.GetApartment(ctx, apartmentID)
	if err != nil {
		return persistence.Apartment{}, mapRepoError(err)
	}
	return apartment, nil
}

// ListApartments returns every listing, or those of one host when entrepreneurID is set.
func (s *ApartmentService) ListApartments(ctx context.Context, entrepreneurID string) ([]persistence.Apartment, error) {
	if s == nil {
		return nil, fmt.Errorf("ApartmentService is nil")
	}
	apartments, err := s.apartments.ListApartments(ctx, strings.TrimSpace(entrepreneurID))
	if err != nil {
		return nil, mapRepoError(err)
	}
	if apartments == nil {
		apartments = []persistence.Apartment{}
	}
	return apartments, nil
}

func (s *ApartmentService) ownedApartment(ctx context.Context, principal Principal, action, apartmentID string) (persistence.Apartment, error) {
	if err := s.policy.authorize(principal, resourceApartment, action); err != nil {
		return persistence.Apartment{}, err
	}
	existing, err := s.apartments.GetApartment(ctx, apartmentID)
	if err != nil {
		return persistence.Apartment{}, mapRepoError(err)
	}
	if !principal.owns(existing.EntrepreneurID) && !principal.IsAdmin() {
		return persistence.Apartment{}, ErrUnauthorized
	}
	return existing, nil
}

func normalizeApartmentInput(input ApartmentInput) ApartmentInput {
	input.EntrepreneurID = strings.TrimSpace(input.EntrepreneurID)
	input.Title = strings.TrimSpace(input.Title)
	input.Location = strings.TrimSpace(input.Location)
	input.Description = strings.TrimSpace(input.Description)
	input.Features = trimAll(input.Features)
	input.Rules = trimAll(input.Rules)
	return input
}

func validateApartmentInput(input ApartmentInput) *ValidationError {
	vErr := validateInput(input)
	switch {
	case !input.PricePerNight.IsPositive():
		vErr.add("pricePerNight", "pricePerNight must be positive")
	case !input.PricePerNight.Equal(input.PricePerNight.Round(2)):
		vErr.add("pricePerNight", "pricePerNight must have at most two decimal places")
	}
	return vErr
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
