// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation error", Fields: fields}
}

// Kind classifies a domain error so handlers can map it to an HTTP status
// without string matching. Every error the services return is recoverable at
// the request boundary; none is fatal to the process.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindStateConflict
	KindAuthorization
	KindInsufficientStock
	KindInsufficientAllowance
	KindDuplicateKey
)

// DomainError carries a Kind plus a message safe to show to the caller.
type DomainError struct {
	Kind Kind
	Msg  string
}

func (e *DomainError) Error() string { return e.Msg }

func Validation(msg string) error    { return &DomainError{Kind: KindValidation, Msg: msg} }
func NotFound(msg string) error      { return &DomainError{Kind: KindNotFound, Msg: msg} }
func StateConflict(msg string) error { return &DomainError{Kind: KindStateConflict, Msg: msg} }
func Authorization(msg string) error { return &DomainError{Kind: KindAuthorization, Msg: msg} }

func InsufficientStock(msg string) error {
	return &DomainError{Kind: KindInsufficientStock, Msg: msg}
}

func InsufficientAllowance(msg string) error {
	return &DomainError{Kind: KindInsufficientAllowance, Msg: msg}
}

func DuplicateKey(msg string) error { return &DomainError{Kind: KindDuplicateKey, Msg: msg} }

// KindOf returns the Kind of err, or KindInternal when err is not a DomainError.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// HTTPStatus maps a service error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInsufficientStock, KindInsufficientAllowance:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict, KindDuplicateKey:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
