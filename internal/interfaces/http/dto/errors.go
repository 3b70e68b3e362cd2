package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeAlreadyReviewed is used when a payment has already been approved or rejected
	ErrCodeAlreadyReviewed = "ERR_ALREADY_REVIEWED"
	// ErrCodeExceedsBalance is used when a payment is larger than the outstanding balance
	ErrCodeExceedsBalance = "ERR_EXCEEDS_BALANCE"
	// ErrCodeHasPayments is used when deleting a due that still has payments
	ErrCodeHasPayments = "ERR_HAS_PAYMENTS"
	// ErrCodeDueSettled is used when paying against an already settled due
	ErrCodeDueSettled = "ERR_DUE_SETTLED"
	// ErrCodeInvalidReceipt is used when a receipt upload is missing or unacceptable
	ErrCodeInvalidReceipt = "ERR_INVALID_RECEIPT"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors
	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:    http.StatusUnprocessableEntity,
	ErrCodeAlreadyReviewed: http.StatusConflict,
	ErrCodeExceedsBalance:  http.StatusUnprocessableEntity,
	ErrCodeHasPayments:     http.StatusConflict,
	ErrCodeDueSettled:      http.StatusUnprocessableEntity,
	ErrCodeInvalidReceipt:  http.StatusBadRequest,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the standardized API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"PHARMACY_NOT_FOUND":    ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"ALREADY_REVIEWED":      ErrCodeAlreadyReviewed,
	"EXCEEDS_BALANCE":       ErrCodeExceedsBalance,
	"HAS_PAYMENTS":          ErrCodeHasPayments,
	"DUE_SETTLED":           ErrCodeDueSettled,
	"DUE_TYPE_INACTIVE":     ErrCodeInvalidState,
	"PHARMACY_INACTIVE":     ErrCodeInvalidState,
	"INVALID_STATE":         ErrCodeInvalidState,
	"UNAUTHORIZED":          ErrCodeUnauthorized,
	"FORBIDDEN":             ErrCodeForbidden,
	"RECEIPT_REQUIRED":      ErrCodeInvalidReceipt,
	"INVALID_RECEIPT_TYPE":  ErrCodeInvalidReceipt,
	"RECEIPT_TOO_LARGE":     ErrCodeInvalidReceipt,
	"RECEIPT_UPLOAD_FAILED": ErrCodeInternal,
	"NO_TARGETS":            ErrCodeInvalidInput,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Codes already in the new format or unknown are returned as-is, except that
// INVALID_* codes collapse to ERR_INVALID_INPUT.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeInvalidInput
	}
	return code
}
