package tax

// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps them to HTTP status codes.
const (
	codeInternal = "internal"
	codeInvalid  = "invalid"
)

// TaxError represents a tax-specific error with a code and message.
type TaxError struct {
	Code    string
	Message string
}

func (e *TaxError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *TaxError) ErrorCode() string {
	return e.Code
}
