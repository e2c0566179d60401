package service

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is the typed failure returned by the service layer. UserID and
// NeedsVerification are only set for sign-in on an unverified account.
type Error struct {
	Kind              Kind
	Message           string
	UserID            string
	NeedsVerification bool
	Err               error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func badRequest(message string) *Error   { return newError(KindBadRequest, message) }
func unauthorized(message string) *Error { return newError(KindUnauthorized, message) }
func notFound(message string) *Error     { return newError(KindNotFound, message) }
func conflict(message string) *Error     { return newError(KindConflict, message) }

func needsVerification(userID string) *Error {
	return &Error{
		Kind:              KindForbidden,
		Message:           "Please verify your email address before signing in. Check your email for verification link.",
		UserID:            userID,
		NeedsVerification: true,
	}
}

// KindOf reports the Kind carried by err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// Messages shared by several operations.
const (
	msgUserNotFound        = "User not found"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgInvalidVerifyToken  = "Invalid or expired verification token"
	msgInvalidResetToken   = "Invalid or expired reset token"
	msgPasswordsMismatch   = "Passwords do not match"
)
