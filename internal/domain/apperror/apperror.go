// Package apperror is the error taxonomy shared by the workflows and the
// HTTP layer. Kinds are user-visible outcomes; transport status codes are
// assigned by the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindMissingField
	KindWhitespaceOnly
	KindMalformed
	KindInvalidCharacters
	KindOutOfBounds
	KindDuplicateEmail
	KindEmailNotRegistered
	KindInvalidPassword
	KindWrongEmailOrAnswer
	KindUnauthenticated
	KindUnauthorized
	KindNotFound
)

var kindNames = map[Kind]string{
	KindUnexpected:         "Unexpected",
	KindMissingField:       "MissingField",
	KindWhitespaceOnly:     "WhitespaceOnly",
	KindMalformed:          "Malformed",
	KindInvalidCharacters:  "InvalidCharacters",
	KindOutOfBounds:        "OutOfBounds",
	KindDuplicateEmail:     "DuplicateEmail",
	KindEmailNotRegistered: "EmailNotRegistered",
	KindInvalidPassword:    "InvalidPassword",
	KindWrongEmailOrAnswer: "WrongEmailOrAnswer",
	KindUnauthenticated:    "Unauthenticated",
	KindUnauthorized:       "Unauthorized",
	KindNotFound:           "NotFound",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// User-facing messages that clients match on.
const (
	MsgInvalidCharacters  = "Invalid characters detected"
	MsgAlreadyRegistered  = "Already Register please login"
	MsgEmailNotRegistered = "Email is not registered"
	MsgInvalidPassword    = "Invalid Password"
	MsgWrongEmailOrAnswer = "Wrong Email Or Answer"
	MsgUnauthenticated    = "Unauthenticated: missing or invalid token"
	MsgUnauthorized       = "UnAuthorized Access"
	MsgUnexpected         = "Something went wrong"
)

// Error is a classified failure. Err, when set, is the underlying cause and
// is never shown to clients.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func ForField(kind Kind, field, message string) *Error {
	return &Error{Kind: kind, Field: field, Message: message}
}

// Unexpected wraps an internal failure behind the generic message.
func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: MsgUnexpected, Err: err}
}

// KindOf returns the kind carried by err, or KindUnexpected when err is not
// classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
