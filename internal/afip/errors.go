package afip

import (
	"errors"
	"fmt"
	"net/http"
)

// codeNoRecord is what FECompConsultar reports for an unknown invoice.
const codeNoRecord = "602"

// FaultError is a SOAP fault or an error list returned inside a WSFEv1 result.
type FaultError struct {
	Code    string
	Message string
}

func (e *FaultError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("afip fault: %s", e.Message)
	}
	return fmt.Sprintf("afip fault %s: %s", e.Code, e.Message)
}

// NewFaultError creates a new fault error
func NewFaultError(code, message string) *FaultError {
	return &FaultError{Code: code, Message: message}
}

// TransportError is a failure to get a usable response: network errors and
// HTTP errors that carry no SOAP fault.
type TransportError struct {
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("afip transport: HTTP %d: %v", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("afip transport: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Temporary reports whether repeating the call may succeed.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// IsTransient reports whether err is worth retrying. Faults are never transient.
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Temporary()
}

// IsNotFound reports whether err says the requested invoice does not exist.
func IsNotFound(err error) bool {
	var fe *FaultError
	return errors.As(err, &fe) && fe.Code == codeNoRecord
}
