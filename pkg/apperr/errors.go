// Package apperr classifies the errors tomato surfaces to its callers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the classification of an application error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation means user input was rejected before anything was mutated.
	KindValidation
	// KindInvariant means an internal contract was broken, usually by an
	// injected collaborator such as a Clock returning malformed strings.
	KindInvariant
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvariant:
		return "invariant"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is an error with a Kind attached.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrBlacklistLocked) keeps working after wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// ErrBlacklistLocked is returned when a blacklist change would remove a
// process while a work session holds the lock.
var ErrBlacklistLocked = &Error{Kind: KindConflict, Message: "blacklist is locked while a focus session is running; entries can only be added"}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Invariantf(format string, args ...any) error {
	return &Error{Kind: KindInvariant, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsInvariant(err error) bool  { return KindOf(err) == KindInvariant }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
