package model

import (
	"errors"
	"fmt"
)

// Kind is a stable error code. Agents and scripts may rely on these values.
type Kind string

const (
	KindTemplateMissing    Kind = "TEMPLATE_MISSING"
	KindDestinationExists  Kind = "DESTINATION_EXISTS"
	KindUnknownSection     Kind = "UNKNOWN_SECTION"
	KindSectionNotFound    Kind = "SECTION_NOT_FOUND"
	KindPositionOutOfRange Kind = "POSITION_OUT_OF_RANGE"
	KindEntryNotFound      Kind = "ENTRY_NOT_FOUND"
	KindStaleIndex         Kind = "STALE_INDEX"
	KindIndexCorrupt       Kind = "INDEX_CORRUPT"
	KindIDCollision        Kind = "ID_COLLISION"
	KindDocumentNotFound   Kind = "DOCUMENT_NOT_FOUND"
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindLocked             Kind = "LOCKED"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrTemplateMissing    = &Error{Kind: KindTemplateMissing}
	ErrDestinationExists  = &Error{Kind: KindDestinationExists}
	ErrUnknownSection     = &Error{Kind: KindUnknownSection}
	ErrSectionNotFound    = &Error{Kind: KindSectionNotFound}
	ErrPositionOutOfRange = &Error{Kind: KindPositionOutOfRange}
	ErrEntryNotFound      = &Error{Kind: KindEntryNotFound}
	ErrStaleIndex         = &Error{Kind: KindStaleIndex}
	ErrIndexCorrupt       = &Error{Kind: KindIndexCorrupt}
	ErrIDCollision        = &Error{Kind: KindIDCollision}
	ErrDocumentNotFound   = &Error{Kind: KindDocumentNotFound}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrLocked             = &Error{Kind: KindLocked}
)

// Error is a failure from the brag document layers.
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
