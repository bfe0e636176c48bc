// Package errs defines the error taxonomy shared by every integrity engine
// component. Per-entity failures are classified into a small set of kinds so
// callers can decide, without parsing messages, whether a failure is
// recoverable (counted in stats and the run continues) or fatal (the run
// aborts before any entity is touched).
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes an error for programmatic handling.
type Kind string

const (
	// I/O faults against one entity.
	AccessFile Kind = "ACCESS_FILE"
	OpenFile   Kind = "OPEN_FILE"
	ReadData   Kind = "READ_DATA"
	MmapFile   Kind = "MMAP_FILE"

	// Table and codec faults.
	ZeroLength   Kind = "ZERO_LENGTH"
	WrongLength  Kind = "WRONG_LENGTH"
	NotEqualData Kind = "NOT_EQUAL_DATA"
	OutOfMemory  Kind = "OUT_OF_MEMORY"

	// Table lookup faults.
	HTableKeyExists   Kind = "HTABLE_KEY_EXISTS"
	HTableKeyNotFound Kind = "HTABLE_KEY_NOT_FOUND"
	HTableNullElement Kind = "HTABLE_NULL_ELEMENT"

	// Configuration faults: fatal, abort the run.
	KeyUsage    Kind = "KEY_USAGE"
	OidName     Kind = "OID_NAME"
	NullPointer Kind = "NULL_POINTER"

	// Verify-mode signal: a database entry has no corresponding file.
	FileExists Kind = "FILE_EXISTS"
)

// recoverable holds the kinds an evaluator/verifier must catch, count, and
// continue past rather than abort on. Everything else is fatal.
var recoverable = map[Kind]bool{
	AccessFile:        true,
	OpenFile:          true,
	ReadData:          true,
	MmapFile:          true,
	ZeroLength:        true,
	WrongLength:       true,
	NotEqualData:      true,
	OutOfMemory:       true,
	HTableKeyExists:   true,
	HTableKeyNotFound: true,
	HTableNullElement: true,
	FileExists:        true,
}

// Recoverable reports whether errors of this kind must be counted and
// swallowed by the evaluator/verifier instead of aborting the run.
func (k Kind) Recoverable() bool {
	return recoverable[k]
}

// Error is a typed error carrying a Kind, a human message and an optional
// wrapped cause.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New creates an Error of the given kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Wrap creates an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// Is lets errors.Is(err, errs.New(kind, "")) match any Error of that kind,
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.kind == e.kind
	}
	return false
}

// KindOf extracts the Kind from err, if err (or something it wraps) is an
// *Error. The second return is false for ordinary errors.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return "", false
}
