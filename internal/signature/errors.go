package signature

import "fmt"

// Error codes for certificate material and CMS signing
const (
	ErrCodeInvalidCertificate = "INVALID_CERTIFICATE"
	ErrCodeInvalidKey         = "INVALID_KEY"
	ErrCodeUnsupportedKey     = "UNSUPPORTED_KEY"
	ErrCodeKeyMismatch        = "KEY_MISMATCH"
	ErrCodeCertExpired        = "CERT_EXPIRED"
	ErrCodeCertNotYetValid    = "CERT_NOT_YET_VALID"
	ErrCodeChainInvalid       = "CHAIN_INVALID"
	ErrCodeSigningFailed      = "SIGNING_FAILED"
)

// SignatureError represents certificate and signing errors
type SignatureError struct {
	Code    string
	Field   string
	Message string
	Cause   error
}

func (e *SignatureError) Error() string {
	if e.Field != "" && e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Field, e.Message, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SignatureError) Unwrap() error {
	return e.Cause
}

// NewSignatureError creates a new signature error
func NewSignatureError(code, field, message string, cause error) *SignatureError {
	return &SignatureError{
		Code:    code,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ErrInvalidCertificate returns error when the certificate PEM cannot be parsed
func ErrInvalidCertificate(cause error) *SignatureError {
	return NewSignatureError(ErrCodeInvalidCertificate, "certificate", "cannot parse certificate", cause)
}

// ErrInvalidKey returns error when the private key PEM cannot be parsed
func ErrInvalidKey(cause error) *SignatureError {
	return NewSignatureError(ErrCodeInvalidKey, "private_key", "cannot parse private key", cause)
}

// ErrUnsupportedKey returns error for key types that cannot sign
func ErrUnsupportedKey(kind string) *SignatureError {
	return NewSignatureError(ErrCodeUnsupportedKey, "private_key", fmt.Sprintf("unsupported key type: %s", kind), nil)
}

// ErrKeyMismatch returns error when the private key does not belong to the certificate
func ErrKeyMismatch() *SignatureError {
	return NewSignatureError(ErrCodeKeyMismatch, "private_key", "private key does not match certificate", nil)
}

// ErrCertExpired returns error when certificate has expired
func ErrCertExpired(subject string) *SignatureError {
	return NewSignatureError(ErrCodeCertExpired, "certificate", fmt.Sprintf("certificate expired: %s", subject), nil)
}

// ErrCertNotYetValid returns error when certificate is not yet valid
func ErrCertNotYetValid(subject string) *SignatureError {
	return NewSignatureError(ErrCodeCertNotYetValid, "certificate", fmt.Sprintf("certificate not yet valid: %s", subject), nil)
}

// ErrChainInvalid returns error when certificate chain is invalid
func ErrChainInvalid(cause error) *SignatureError {
	return NewSignatureError(ErrCodeChainInvalid, "chain", "certificate chain validation failed", cause)
}

// ErrSigningFailed returns error when CMS generation fails
func ErrSigningFailed(cause error) *SignatureError {
	return NewSignatureError(ErrCodeSigningFailed, "", "cannot build CMS signed data", cause)
}
