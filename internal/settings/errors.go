package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the caller has no identity
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller targets another user's settings
	ErrForbidden = fmt.Errorf("%w: settings belong to another user", ErrUnauthorized)

	// ErrValidation is returned for a request that would store invalid settings
	ErrValidation = errors.New("invalid settings")

	// ErrLimitExceeded is returned when an update sets more themes than allowed
	ErrLimitExceeded = errors.New("limit exceeded")
)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
