package belot

import (
	"errors"
	"fmt"
)

// Kind classifies an error for clients. Every rejection an entity handler
// produces carries exactly one kind.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindNotMember   Kind = "not_member"
	KindWrongPhase  Kind = "wrong_phase"
	KindNotYourTurn Kind = "not_your_turn"
	KindIllegalMove Kind = "illegal_move"
	KindCapacity    Kind = "capacity"
	KindDuplicate   Kind = "duplicate"
	KindStale       Kind = "stale"
	KindTimeout     Kind = "timeout"
	KindConflict    Kind = "conflict"
	KindForbidden   Kind = "forbidden"
	KindInternal    Kind = "internal"
)

// Error is a typed rejection. State is never mutated when one is returned.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Detail
}

// E builds a typed error.
func E(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error; unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
