package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/rental-marketplace/internal/ledger"
	"github.com/example/rental-marketplace/internal/persistence"
)

var maxDeposit = decimal.NewFromInt(1_000_000)

// UserStore captures the persistence operations needed by the user service.
type UserStore interface {
	persistence.UserRepository
	persistence.LedgerReader
	persistence.Transactor
}

// PasswordHasher produces an encoded hash for a plaintext password.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates validation, authorization, and persistence for users
// and their balances.
type UserService struct {
	users          UserStore
	ledger         *ledger.Ledger
	policy         *AccessPolicy
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func() string
	now            func() time.Time
	logger         *slog.Logger
}

// PasswordVerifier checks a plaintext password against an encoded hash.
type PasswordVerifier func(hash, password string) error

// NewUserService wires dependencies for the user service.
func NewUserService(users UserStore, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil, nil)
}

// NewUserServiceWithLogger constructs a UserService with a specified policy and logger.
func NewUserServiceWithLogger(users UserStore, idGenerator func() string, now func() time.Time, policy *AccessPolicy, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if policy == nil {
		policy = MustAccessPolicy()
	}
	return &UserService{
		users:  users,
		ledger: ledger.New(idGenerator, now),
		policy: policy,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		verifyPassword: VerifyPassword,
		idGenerator:    idGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

// WithPasswordHasher replaces the hashing functions, which keeps tests fast.
func (s *UserService) WithPasswordHasher(hash PasswordHasher, verify PasswordVerifier) *UserService {
	if hash != nil {
		s.hashPassword = hash
	}
	if verify != nil {
		s.verifyPassword = verify
	}
	return s
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// RegisterUser creates a CLIENT or HOST account with a zero balance.
func (s *UserService) RegisterUser(ctx context.Context, input RegisterUserInput) (user persistence.User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Role = strings.ToUpper(strings.TrimSpace(input.Role))

	logger := s.loggerWith(ctx, "RegisterUser", "email", input.Email, "role", input.Role)
	defer func() {
		logOutcome(ctx, logger, err, "user registered", "user_id", user.ID)
	}()

	if vErr := validateInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	role := persistence.RoleClient
	if input.Role != "" {
		role = persistence.Role(input.Role)
	}

	createdAt := s.now()
	candidate := persistence.User{
		ID:           s.idGenerator(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		Balance:      decimal.Zero,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err = s.users.CreateUser(ctx, candidate); err != nil {
		err = mapUserRepoError(err)
		return
	}

	user = candidate
	return
}

// GetUser returns a user to themselves or to an administrator.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if err := s.authorizeSelfOrAdmin(principal, resourceUser, actionRead, userID); err != nil {
		return persistence.User{}, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return persistence.User{}, mapRepoError(err)
	}
	return user, nil
}

// ListUsers returns all users for administrators ordered by email.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if err := s.policy.authorize(principal, resourceUser, actionModerate); err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	out := make([]persistence.User, len(users))
	copy(out, users)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Email == out[j].Email {
			return out[i].ID < out[j].ID
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

// UpdateUser applies profile changes. Users edit their own profile and must
// confirm their current password to change it; role and ban changes are
// reserved for administrators.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user persistence.User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	principal := params.Principal
	input := params.Input

	logger := s.loggerWith(ctx, "UpdateUser", "principal_id", principal.UserID, "user_id", params.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "user updated")
	}()

	if err = s.authorizeSelfOrAdmin(principal, resourceUser, actionUpdate, params.UserID); err != nil {
		return
	}
	moderating := input.Role != nil || input.IsBanned != nil || input.BanDate != nil
	if moderating {
		if err = s.policy.authorize(principal, resourceUser, actionModerate); err != nil {
			return
		}
	}

	if input.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*input.Email))
		input.Email = &normalized
	}
	if input.Username != nil {
		trimmed := strings.TrimSpace(*input.Username)
		input.Username = &trimmed
	}
	if input.Role != nil {
		upper := strings.ToUpper(strings.TrimSpace(*input.Role))
		input.Role = &upper
	}
	if vErr := validateInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	updated := existing
	if input.Username != nil {
		updated.Username = *input.Username
	}
	if input.Email != nil {
		updated.Email = *input.Email
	}
	if input.Password != nil {
		if !principal.IsAdmin() {
			if verifyErr := s.verifyPassword(existing.PasswordHash, input.CurrentPassword); verifyErr != nil {
				err = fieldError("currentPassword", "currentPassword is incorrect")
				return
			}
		}
		hash, hashErr := s.hashPassword(*input.Password)
		if hashErr != nil {
			err = fmt.Errorf("hash password: %w", hashErr)
			return
		}
		updated.PasswordHash = hash
	}
	if input.Role != nil {
		updated.Role = persistence.Role(*input.Role)
	}
	if input.IsBanned != nil {
		updated.IsBanned = *input.IsBanned
		if !updated.IsBanned {
			updated.BanDate = nil
		}
	}
	if input.BanDate != nil {
		banDate := input.BanDate.UTC()
		updated.BanDate = &banDate
	}
	updated.UpdatedAt = s.now()

	if err = s.users.UpdateUser(ctx, updated); err != nil {
		err = mapUserRepoError(err)
		return
	}
	user = updated
	return
}

// DeleteUser removes a user when requested by an administrator. Users with
// bookings or apartments cannot be removed.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "user deleted")
	}()

	if err = s.policy.authorize(principal, resourceUser, actionModerate); err != nil {
		return
	}
	err = mapRepoError(s.users.DeleteUser(ctx, userID))
	return
}

// Deposit credits the user's balance through the ledger.
func (s *UserService) Deposit(ctx context.Context, params DepositParams) (user persistence.User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	principal := params.Principal

	logger := s.loggerWith(ctx, "Deposit",
		"principal_id", principal.UserID,
		"user_id", params.UserID,
		"amount", params.Amount.String(),
	)
	defer func() {
		logOutcome(ctx, logger, err, "deposit credited", "balance", user.Balance.String())
	}()

	if err = s.authorizeSelfOrAdmin(principal, resourceBalance, actionDeposit, params.UserID); err != nil {
		return
	}

	switch {
	case !params.Amount.IsPositive():
		err = fieldError("amount", "amount must be positive")
		return
	case !params.Amount.Equal(params.Amount.Round(2)):
		err = fieldError("amount", "amount must have at most two decimal places")
		return
	case params.Amount.GreaterThan(maxDeposit):
		err = fieldError("amount", fmt.Sprintf("amount must be at most %s", maxDeposit))
		return
	}

	err = s.users.WithinTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if _, getErr := tx.GetUser(ctx, params.UserID); getErr != nil {
			return mapRepoError(getErr)
		}
		_, creditErr := s.ledger.Credit(ctx, tx, params.UserID, params.Amount, "")
		return mapLedgerError(creditErr)
	})
	if err != nil {
		return
	}

	user, err = s.users.GetUser(ctx, params.UserID)
	err = mapRepoError(err)
	return
}

// LedgerEntries lists the balance history of a user, newest first.
func (s *UserService) LedgerEntries(ctx context.Context, principal Principal, userID string) ([]ledger.Entry, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if err := s.authorizeSelfOrAdmin(principal, resourceBalance, actionRead, userID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, mapRepoError(err)
	}
	entries, err := s.users.ListLedgerEntries(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	return entries, nil
}

// ResolvePrincipal turns a verified token subject into a principal. The stored
// role wins over any role carried by the token, and banned accounts are refused.
func (s *UserService) ResolvePrincipal(ctx context.Context, userID string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if strings.TrimSpace(userID) == "" {
		err = ErrUnauthenticated
		return
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthenticated
			return
		}
		err = mapRepoError(err)
		return
	}
	if isBanned(user, s.now()) {
		s.loggerWith(ctx, "ResolvePrincipal", "user_id", userID).
			WarnContext(ctx, "banned user rejected", "error_kind", ErrorKind(ErrAccountDisabled))
		err = ErrAccountDisabled
		return
	}
	principal = Principal{UserID: user.ID, Role: user.Role}
	return
}

// isBanned treats a ban without a date as permanent and a dated ban as lasting
// until that instant.
func isBanned(user persistence.User, now time.Time) bool {
	if user.BanDate != nil {
		return user.BanDate.After(now)
	}
	return user.IsBanned
}

func (s *UserService) authorizeSelfOrAdmin(principal Principal, resource, action, userID string) error {
	if err := s.policy.authorize(principal, resource, action); err != nil {
		return err
	}
	if !principal.owns(userID) && !principal.IsAdmin() {
		return ErrUnauthorized
	}
	return nil
}

func mapUserRepoError(err error) error {
	if errors.Is(err, persistence.ErrDuplicate) {
		return fmt.Errorf("%w: email is already registered", ErrAlreadyExists)
	}
	return mapRepoError(err)
}
