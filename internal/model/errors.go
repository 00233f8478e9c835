package model

import (
	"errors"
	"fmt"
)

// Validation rules
const (
	RuleCustomerData  = "customer_required"
	RulePositiveTotal = "positive_total"
	RuleNotCommitted  = "not_committed"
	RuleMinQuantity   = "min_quantity"
	RuleMinCount      = "min_count"
	RuleRequiredField = "required"
	RuleInvalidFormat = "format"
)

// Remote operations reported by RemoteServiceError
const (
	OpLastAuthorized = "last_authorized"
	OpCreateInvoice  = "create_invoice"
	OpRequestCAE     = "request_cae"
	OpGetInvoice     = "get_invoice"
)

var (
	// ErrMissingCustomerData is returned when the customer name or identity document is empty.
	ErrMissingCustomerData = &ValidationError{
		Field:   "customer",
		Rule:    RuleCustomerData,
		Message: "customer name and identity document are required",
	}

	// ErrEmptyInvoice is returned when the receipt total is not positive.
	ErrEmptyInvoice = &ValidationError{
		Field:   "items",
		Rule:    RulePositiveTotal,
		Message: "receipt total must be greater than zero",
	}

	// ErrAlreadyCommitted is returned when committing a receipt that already has a CAE.
	ErrAlreadyCommitted = &ValidationError{
		Field:   "cae",
		Rule:    RuleNotCommitted,
		Message: "receipt is already committed",
	}
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// Is matches validation errors by rule, so errors.Is(err, ErrEmptyInvoice)
// holds for any error raised under the same rule.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Rule != "" && t.Rule == e.Rule
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// AuthenticationError is returned when a session cannot be obtained.
type AuthenticationError struct {
	Cause error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Cause)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(cause error) *AuthenticationError {
	return &AuthenticationError{Cause: cause}
}

// MalformedIdentifierError is returned for identifiers not shaped pos:type:number.
type MalformedIdentifierError struct {
	Identifier string
	Cause      error
}

func (e *MalformedIdentifierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed receipt identifier %q: %v", e.Identifier, e.Cause)
	}
	return fmt.Sprintf("malformed receipt identifier %q", e.Identifier)
}

func (e *MalformedIdentifierError) Unwrap() error {
	return e.Cause
}

// NewMalformedIdentifierError creates a new malformed identifier error
func NewMalformedIdentifierError(identifier string, cause error) *MalformedIdentifierError {
	return &MalformedIdentifierError{Identifier: identifier, Cause: cause}
}

// RemoteServiceError wraps a failure reported by, or while talking to, AFIP.
type RemoteServiceError struct {
	Op    string
	Cause error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Cause)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Cause
}

// NewRemoteServiceError creates a new remote service error
func NewRemoteServiceError(op string, cause error) *RemoteServiceError {
	return &RemoteServiceError{Op: op, Cause: cause}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
