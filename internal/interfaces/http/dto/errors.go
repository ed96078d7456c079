package dto

import "net/http"

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	ErrCodeUnauthorized      = "ERR_UNAUTHORIZED"
	ErrCodeForbidden         = "ERR_FORBIDDEN"
	ErrCodeTokenExpired      = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid      = "ERR_TOKEN_INVALID"
	ErrCodeSignatureMismatch = "ERR_SIGNATURE_MISMATCH"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeUnknownSourceDomain = "ERR_UNKNOWN_SOURCE_DOMAIN"
)

// Business rule error codes
const (
	ErrCodeInvalidState       = "ERR_INVALID_STATE"
	ErrCodeMissingCredentials = "ERR_MISSING_CREDENTIALS"
)

// Availability error codes
const (
	// ErrCodeSyncLocked is returned when a sync or sweep for the tenant is
	// already running; the client should retry after the current run finishes
	ErrCodeSyncLocked = "ERR_SYNC_LOCKED"
	// ErrCodeStorageUnavailable is returned when backing storage stayed
	// unreachable through the bounded retry window
	ErrCodeStorageUnavailable = "ERR_STORAGE_UNAVAILABLE"
	// ErrCodeUpstreamUnavailable is returned when the storefront API could
	// not serve a request that strictly required it
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeUnauthorized:      http.StatusUnauthorized,
	ErrCodeForbidden:         http.StatusForbidden,
	ErrCodeTokenExpired:      http.StatusUnauthorized,
	ErrCodeTokenInvalid:      http.StatusUnauthorized,
	ErrCodeSignatureMismatch: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeUnknownSourceDomain: http.StatusNotFound,

	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeMissingCredentials: http.StatusUnprocessableEntity,

	ErrCodeSyncLocked:          http.StatusTooManyRequests,
	ErrCodeStorageUnavailable:  http.StatusServiceUnavailable,
	ErrCodeUpstreamUnavailable: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"DOMAIN_TAKEN":          ErrCodeAlreadyExists,
	"ALREADY_ACTIVE":        ErrCodeInvalidState,
	"ALREADY_INACTIVE":      ErrCodeInvalidState,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_NAME":          ErrCodeValidation,
	"INVALID_DOMAIN":        ErrCodeValidation,
	"INVALID_TOPIC":         ErrCodeValidation,
	"INVALID_SOURCE":        ErrCodeValidation,
	"INVALID_STATE":         ErrCodeInvalidState,
	"UNAUTHORIZED":          ErrCodeUnauthorized,
	"FORBIDDEN":             ErrCodeForbidden,
	"SYNC_LOCKED":           ErrCodeSyncLocked,
	"STORAGE_UNAVAILABLE":   ErrCodeStorageUnavailable,
	"MISSING_CREDENTIALS":   ErrCodeMissingCredentials,
	"SIGNATURE_MISMATCH":    ErrCodeSignatureMismatch,
	"UNKNOWN_SOURCE_DOMAIN": ErrCodeUnknownSourceDomain,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
