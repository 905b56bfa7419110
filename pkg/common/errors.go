package common

import (
	"errors"
	"net/http"
)

var (
	// ErrStoreUnavailable marks connection or query failures of a backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotFound marks an absent post, vote, community or account.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks input rejected before it reaches a store.
	ErrValidation = errors.New("validation failed")
	// ErrExpiredCredential marks a one-time code that is absent, expired or wrong.
	ErrExpiredCredential = errors.New("invalid or expired credential")
)

// UserError carries the message shown to the user next to the wrapped cause.
type UserError struct {
	Msg string
	Err error
}

func (e *UserError) Error() string { return e.Msg + ": " + e.Err.Error() }
func (e *UserError) Unwrap() error { return e.Err }

// Userf wraps kind with a user facing message.
func Userf(kind error, msg string) error {
	return &UserError{Msg: msg, Err: kind}
}

// StatusOf maps an error to a user facing message and an HTTP status.
func StatusOf(err error) (string, int) {
	msg := ""
	var ue *UserError
	if errors.As(err, &ue) {
		msg = ue.Msg
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, ErrExpiredCredential):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrStoreUnavailable):
		code = http.StatusServiceUnavailable
	}

	if msg == "" {
		switch code {
		case http.StatusBadRequest:
			msg = "bad request"
		case http.StatusNotFound:
			msg = "not found"
		case http.StatusServiceUnavailable:
			msg = "service temporarily unavailable, try again"
		default:
			msg = "internal error"
		}
	}
	return msg, code
}

// WriteErr writes the user facing form of err.
func WriteErr(w http.ResponseWriter, err error) {
	msg, code := StatusOf(err)
	WriteMsg(w, msg, code)
}

type storeError struct {
	msg string
	err error
}

func (e *storeError) Error() string { return e.msg + ": " + e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

func (e *storeError) Is(target error) bool { return target == ErrStoreUnavailable }

// StoreErr wraps a driver error so that it matches both the cause and
// ErrStoreUnavailable.
func StoreErr(msg string, err error) error {
	return &storeError{msg: msg, err: err}
}
