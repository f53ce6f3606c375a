package core

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the ledger matches exactly one of
// them with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
)

var (
	ErrEmptyName              = fmt.Errorf("%w: name is required", ErrValidation)
	ErrNameTooLong            = fmt.Errorf("%w: name too long (max 100 characters)", ErrValidation)
	ErrInvalidAccountType     = fmt.Errorf("%w: account type must be one of bank, cash, wallet", ErrValidation)
	ErrInvalidTransactionType = fmt.Errorf("%w: transaction type must be income or expense", ErrValidation)
	ErrInvalidAmount          = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrNoteTooLong            = fmt.Errorf("%w: note too long (max 500 characters)", ErrValidation)
	ErrInvalidAccountRef      = fmt.Errorf("%w: invalid account reference", ErrValidation)
	ErrEmptySettingKey        = fmt.Errorf("%w: setting key is required", ErrValidation)

	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrSettingNotFound     = fmt.Errorf("setting %w", ErrNotFound)
)

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
