// Package apperr is the error taxonomy shared by the services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	InvalidIdentifier   Kind = "invalid_identifier"
	ProductNotFound     Kind = "product_not_found"
	InsufficientStock   Kind = "insufficient_stock"
	SaleNotFound        Kind = "sale_not_found"
	CannotReturnAReturn Kind = "cannot_return_a_return"
	AlreadyReturned     Kind = "already_returned"
	ValidationFailed    Kind = "validation_failed"
	StorageUnavailable  Kind = "storage_unavailable"
	Unauthorized        Kind = "unauthorized"
	Forbidden           Kind = "forbidden"
	Conflict            Kind = "conflict"
	NotFound            Kind = "not_found"
	Unavailable         Kind = "unavailable"
)

// Error carries a kind for matching, a message safe to show to clients and
// an optional cause that is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind only, so errors.Is(err, apperr.ErrAlreadyReturned) holds
// whatever the message says.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidIdentifier   = &Error{Kind: InvalidIdentifier, Message: "Invalid ID"}
	ErrProductNotFound     = &Error{Kind: ProductNotFound, Message: "Product not found"}
	ErrInsufficientStock   = &Error{Kind: InsufficientStock, Message: "Insufficient stock"}
	ErrSaleNotFound        = &Error{Kind: SaleNotFound, Message: "Sale not found"}
	ErrCannotReturnAReturn = &Error{Kind: CannotReturnAReturn, Message: "Cannot return a return"}
	ErrAlreadyReturned     = &Error{Kind: AlreadyReturned, Message: "Sale already returned"}
	ErrValidation          = &Error{Kind: ValidationFailed, Message: "Validation failed"}
	ErrStorage             = &Error{Kind: StorageUnavailable, Message: "Server error"}
	ErrUnauthorized        = &Error{Kind: Unauthorized, Message: "Unauthorized"}
	ErrForbidden           = &Error{Kind: Forbidden, Message: "Forbidden"}
	ErrConflict            = &Error{Kind: Conflict, Message: "Already exists"}
	ErrNotFound            = &Error{Kind: NotFound, Message: "Not found"}
	ErrUnavailable         = &Error{Kind: Unavailable, Message: "Service unavailable"}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a driver error. The cause stays out of client responses.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: StorageUnavailable, Message: "Server error", Err: err}
}

func Validation(message string) *Error {
	return New(ValidationFailed, message)
}

func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return StorageUnavailable
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Server error"
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case InvalidIdentifier, InsufficientStock, CannotReturnAReturn, AlreadyReturned, ValidationFailed:
		return http.StatusBadRequest
	case ProductNotFound, SaleNotFound, NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
