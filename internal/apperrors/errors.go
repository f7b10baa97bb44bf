package apperrors

import (
	"errors"
	"net/http"
)

// Kind is the closed set of failure classes the service reports to clients
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthorized
	KindInvalidToken
	KindTokenReuse
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidToken:
		return "invalid_token"
	case KindTokenReuse:
		return "token_reuse_detected"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal_error"
	}
}

// HTTPStatus maps kind to response status code
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized, KindInvalidToken, KindTokenReuse:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a tagged application error
// Message is safe to show to the client, Err (if any) is not
type Error struct {
	Kind    Kind
	Code    string // optional refinement of Kind.String(), e.g. "token_expired"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns machine readable code of the error
func (e *Error) ErrorCode() string {
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.String()
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation creates a new validation error with the client facing message
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Internal wraps unexpected error (storage, hashing, signing) so it never reaches the client as is
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Something went wrong", Err: err}
}

// KindOf returns the kind of the first *Error in chain or KindInternal if there is none
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

var (
	ErrUserAlreadyExists  = New(KindConflict, "User with email or username already exists")
	ErrUserNotFound       = New(KindNotFound, "User does not exist")
	ErrInvalidCredentials = New(KindUnauthorized, "Invalid user credentials")
	ErrInvalidIdentifier  = New(KindValidation, "Username must not contain '@' and email must contain it")

	ErrTokenMissing = New(KindUnauthorized, "Unauthorized request")
	ErrAccountGone  = New(KindUnauthorized, "Account no longer exists")

	ErrTokenExpired          = &Error{Kind: KindInvalidToken, Code: "token_expired", Message: "Token is expired"}
	ErrTokenSignatureInvalid = New(KindInvalidToken, "Token signature is invalid")
	ErrTokenMalformed        = New(KindInvalidToken, "Token is malformed")
	ErrTokenInvalid          = New(KindInvalidToken, "Token is invalid")

	ErrRefreshTokenReused = New(KindTokenReuse, "Refresh token is expired or used")

	ErrTooManyAttempts = New(KindRateLimited, "Too many attempts, try again later")
)
