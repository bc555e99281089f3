package core

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrCompanyNotFound    = errors.New("company not found")
	ErrDuplicatePartition = errors.New("duplicate partition")
	ErrUpstream           = errors.New("upstream failure")
)

// IsClientError reports whether err was caused by the caller's input rather than by
// infrastructure. Client errors map to 4xx and are never retried.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrDuplicatePartition)
}
