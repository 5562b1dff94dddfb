package auth

import (
	"errors"
	"fmt"
)

const (
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeNetworkFailed     = "auth/network-request-failed"
	CodeUnauthenticated   = "auth/unauthenticated"
	CodeOAuthFailed       = "auth/oauth-failed"
	CodeOAuthDisabled     = "auth/operation-not-allowed"
	CodeUnverifiedEmail   = "auth/unverified-email"
)

var messages = map[string]string{
	CodeUserNotFound:      "No account found with this email. Please sign up first.",
	CodeWrongPassword:     "Incorrect password. Please try again.",
	CodeInvalidCredential: "Invalid login credentials. Please check your email and password and try again.",
	CodeTooManyRequests:   "Too many failed login attempts, please try again later",
	CodeEmailInUse:        "Email is already in use",
	CodeWeakPassword:      "Password should be at least 6 characters",
	CodeInvalidEmail:      "Please enter a valid email address",
	CodeNetworkFailed:     "Network error. Please check your internet connection and try again.",
	CodeUnauthenticated:   "Please sign in to continue",
	CodeOAuthFailed:       "Google sign-in failed. Please try again.",
	CodeOAuthDisabled:     "Google sign-in is not available right now.",
	CodeUnverifiedEmail:   "Your Google account email is not verified.",
}

// Error is an authentication failure with a stable code.
type Error struct {
	Code string
}

func (e *Error) Error() string {
	return e.Code
}

// Message is the user-facing text for the error.
func (e *Error) Message() string {
	return MessageFor(e.Code)
}

func NewError(code string) *Error {
	return &Error{Code: code}
}

// MessageFor maps an auth error code to the text shown to the user.
func MessageFor(code string) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return fmt.Sprintf("An error occurred during authentication (%s). Please try again.", code)
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
