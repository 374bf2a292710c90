package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an error for callers
type Kind string

// Error kinds
const (
	KindValidation                  Kind = "VALIDATION_ERROR"
	KindInvalidTransition           Kind = "INVALID_TRANSITION"
	KindInsufficientStock           Kind = "INSUFFICIENT_STOCK"
	KindDeviceAllocationMismatch    Kind = "DEVICE_ALLOCATION_MISMATCH"
	KindInsufficientDeviceSelection Kind = "INSUFFICIENT_DEVICE_SELECTION"
	KindConcurrentModification      Kind = "CONCURRENT_MODIFICATION"
	KindInvalidTransfer             Kind = "INVALID_TRANSFER"
	KindLocationRequired            Kind = "LOCATION_REQUIRED"
	KindNotFound                    Kind = "NOT_FOUND"
	KindInternal                    Kind = "INTERNAL"
)

// Sentinels for errors.Is
var (
	ErrValidation                  = &Error{Kind: KindValidation}
	ErrInvalidTransition           = &Error{Kind: KindInvalidTransition}
	ErrInsufficientStock           = &Error{Kind: KindInsufficientStock}
	ErrDeviceAllocationMismatch    = &Error{Kind: KindDeviceAllocationMismatch}
	ErrInsufficientDeviceSelection = &Error{Kind: KindInsufficientDeviceSelection}
	ErrConcurrentModification      = &Error{Kind: KindConcurrentModification}
	ErrInvalidTransfer             = &Error{Kind: KindInvalidTransfer}
	ErrLocationRequired            = &Error{Kind: KindLocationRequired}
	ErrNotFound                    = &Error{Kind: KindNotFound}
)

// Error is a typed domain error carrying the identifiers needed to correct the request
type Error struct {
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// New creates an error of the given kind
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// With attaches a detail and returns the same error
func (e *Error) With(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the *Error from a chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps an error kind to an HTTP status code
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindLocationRequired, KindInvalidTransfer:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition, KindConcurrentModification:
		return http.StatusConflict
	case KindInsufficientStock, KindDeviceAllocationMismatch, KindInsufficientDeviceSelection:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Validation is shorthand for a ValidationError
func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

// NotFound is shorthand for a NotFound error on an entity
func NotFound(entity string, id interface{}) *Error {
	return New(KindNotFound, "%s not found", entity).With(entity+"_id", id)
}
