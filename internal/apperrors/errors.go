// Package apperrors declares the error kinds shared by repositories, services and handlers.
//
// Errors are classified by wrapping one of the sentinels below, e.g.
//
//	fmt.Errorf("%w: block %d does not exist", apperrors.ErrNotFound, id)
//
// Anything that does not wrap a sentinel is treated as unexpected.
package apperrors

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrValidation indicates a malformed request (missing fields, wrong content shape, ...)
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates that a referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness or reference-integrity violation
	ErrConflict = errors.New("conflict")
)

// Kind is the classification of an error
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

// String returns a short name of the kind
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unexpected"
	}
}

// KindOf returns the kind of err, KindUnexpected if err does not wrap any sentinel
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnexpected
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindUnexpected
	}
}

// HTTPStatus maps an error to the response status code.
//
// Conflicts map to 409, except the caller may decide otherwise (block deletion answers 400).
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text of err.
//
// The "<sentinel>: " segment is removed wherever the sentinel sits in the wrap chain, so
// "failed to update course: conflict: duplicate" becomes "failed to update course: duplicate".
// Unexpected errors are replaced by a generic text so that driver messages never reach the client.
func Message(err error) string {
	if KindOf(err) == KindUnexpected {
		return "internal server error"
	}

	msg := err.Error()
	for e := err; e != nil; e = errors.Unwrap(e) {
		inner := errors.Unwrap(e)
		if !isSentinel(inner) {
			continue
		}
		wrapped := e.Error()
		return strings.Replace(msg, wrapped, strings.TrimPrefix(wrapped, inner.Error()+": "), 1)
	}
	return msg
}

func isSentinel(err error) bool {
	return err == ErrValidation || err == ErrNotFound || err == ErrConflict
}
