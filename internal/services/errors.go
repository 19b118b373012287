package services

import (
	"errors"
	"fmt"

	"github.com/VinayBibyan/Donation-Network/internal/repository"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrStorageUnavailable = errors.New("file storage is not configured")
)

// ValidationError carries a message that is safe to show to the caller.
// It matches ErrInvalidInput under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// fromStore lifts repository sentinels into the service taxonomy.
func fromStore(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrConflict
	default:
		return err
	}
}
