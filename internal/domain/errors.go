package domain

import "fmt"

// Error types for consistent error handling across the API.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrHistoryWrite indicates the reminder history could not be persisted.
// Surfaced explicitly so a reminder is never silently lost or silently
// recorded: the caller must tell the user to retry deliberately.
type ErrHistoryWrite struct {
	InvoiceID string
	Err       error
}

func (e *ErrHistoryWrite) Error() string {
	return fmt.Sprintf("reminder history write failed for invoice %s: %v", e.InvoiceID, e.Err)
}

func (e *ErrHistoryWrite) Unwrap() error {
	return e.Err
}

// ErrEmailTransport indicates the rendered reminder could not be handed
// to the email transport.
type ErrEmailTransport struct {
	To  string
	Err error
}

func (e *ErrEmailTransport) Error() string {
	return fmt.Sprintf("email transport failed for %s: %v", e.To, e.Err)
}

func (e *ErrEmailTransport) Unwrap() error {
	return e.Err
}
