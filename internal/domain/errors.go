package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures of the word-addition pipeline.
type Kind string

const (
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindNotFound          Kind = "NOT_FOUND"
	KindSourceUnavailable Kind = "SOURCE_UNAVAILABLE"
	KindSessionExpired    Kind = "SESSION_EXPIRED"
	KindStoreFailure      Kind = "STORE_FAILURE"
)

// Error carries a Kind, the operation that failed and an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Code is the stable identifier logged as err_code.
func (e *Error) Code() string { return string(e.Kind) }

// Is matches any *Error of the same kind, so sentinels compare by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	// ErrNotFound reports that the dictionary has no entry for a token.
	ErrNotFound = &Error{Kind: KindNotFound}
	// ErrSessionExpired reports an unknown, consumed, expired or foreign session token.
	ErrSessionExpired = &Error{Kind: KindSessionExpired}
)

// E builds an *Error of kind for op wrapping err.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err's chain contains an *Error of kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
