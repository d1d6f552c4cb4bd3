package application

import (
	"errors"
	"fmt"

	"github.com/example/rental-marketplace/internal/ledger"
	"github.com/example/rental-marketplace/internal/persistence"
)

// mapRepoError translates persistence sentinels into service level errors.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func mapLedgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	}
	return mapRepoError(err)
}
