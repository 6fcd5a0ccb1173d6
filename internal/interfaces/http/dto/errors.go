package dto

import "net/http"

// Error codes returned by the API
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeValidation covers domain validation and request binding failures
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds http.max_body_size
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeInvalidState  = "ERR_INVALID_STATE"
)

// Stock error codes
const (
	// ErrCodeAlreadyFinalized is used when a document already left DRAFT
	ErrCodeAlreadyFinalized = "ERR_ALREADY_FINALIZED"
	// ErrCodeInsufficientStock is used when open lots cannot cover a write-off
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	// ErrCodeContention is used when lot rows were locked or changed concurrently.
	// Nothing was committed and the request can be resubmitted unchanged.
	ErrCodeContention = "ERR_CONTENTION"
	// ErrCodeRequestInProgress is used when an Idempotency-Key is still in flight
	ErrCodeRequestInProgress = "ERR_REQUEST_IN_PROGRESS"
)

// ContentionRetryAfter is the Retry-After value, in seconds, sent with ERR_CONTENTION
const ContentionRetryAfter = "1"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeInvalidState:  http.StatusConflict,

	ErrCodeAlreadyFinalized:  http.StatusConflict,
	ErrCodeInsufficientStock: http.StatusConflict,
	ErrCodeContention:        http.StatusServiceUnavailable,
	ErrCodeRequestInProgress: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"ALREADY_EXISTS":      ErrCodeAlreadyExists,
	"INVALID_INPUT":       ErrCodeValidation,
	"INVALID_STATE":       ErrCodeInvalidState,
	"VALIDATION_ERROR":    ErrCodeValidation,
	"ALREADY_FINALIZED":   ErrCodeAlreadyFinalized,
	"INSUFFICIENT_STOCK":  ErrCodeInsufficientStock,
	"CONTENTION":          ErrCodeContention,
	"REQUEST_IN_PROGRESS": ErrCodeRequestInProgress,
	// optimistic lock failures surface as contention
	"CONCURRENCY_CONFLICT": ErrCodeContention,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
