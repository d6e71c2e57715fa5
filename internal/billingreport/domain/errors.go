package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidCustomer        = errors.New("invalid_customer")
	ErrCustomerNotFound       = errors.New("customer_not_found")
	ErrInvalidDateRange       = errors.New("invalid_date_range")
	ErrNoServicesConfigured   = errors.New("no_services_configured")
	ErrInvalidCustomerService = errors.New("invalid_customer_service")
	ErrInvalidFormat          = errors.New("invalid_format")
	ErrInconsistentReport     = errors.New("inconsistent_report")
	ErrReportGeneration       = errors.New("report_generation_failed")
	ErrNotFound               = errors.New("not_found")
)

// ValidationError rejects a generation request before any work starts.
type ValidationError struct {
	Err     error
	Message string
}

func NewValidationError(err error, format string, args ...any) *ValidationError {
	return &ValidationError{Err: err, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// GenerationError wraps an unexpected failure during generation. It matches
// ErrReportGeneration with errors.Is.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return ErrReportGeneration.Error() + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool {
	return target == ErrReportGeneration
}
