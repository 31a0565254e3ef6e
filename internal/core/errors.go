package core

import "fmt"

// ErrorKind is the service-level error taxonomy surfaced to handlers, which
// map each kind to an HTTP status.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindNotFound
	KindValidation
	KindNoPlan
	KindQuotaExceeded
	KindLimitReached
	KindProviderRejected
	KindProviderUnavailable
	KindStore
)

type Error struct {
	Kind ErrorKind
	Msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.err }

func ErrUnauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func ErrNotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Msg: msg} }
func ErrValidation(msg string) *Error   { return &Error{Kind: KindValidation, Msg: msg} }
func ErrNoPlan() *Error                 { return &Error{Kind: KindNoPlan, Msg: "no active plan"} }
func ErrLimitReached(msg string) *Error { return &Error{Kind: KindLimitReached, Msg: msg} }

func ErrQuotaExceeded(msg string) *Error { return &Error{Kind: KindQuotaExceeded, Msg: msg} }

// ErrProviderRejected carries the provider's message verbatim; the caller
// may show it to the end user.
func ErrProviderRejected(msg string) *Error { return &Error{Kind: KindProviderRejected, Msg: msg} }

// ErrProviderUnavailable marks operations that failed because the provider
// could not be reached or did not answer properly. Not the user's fault.
func ErrProviderUnavailable(msg string) *Error {
	return &Error{Kind: KindProviderUnavailable, Msg: msg}
}

func ErrStore(msg string, err error) *Error { return &Error{Kind: KindStore, Msg: msg, err: err} }
