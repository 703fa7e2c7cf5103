package portal

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeAuthenticationFailed identifies rejected credentials or a
	// deactivated account.
	TextCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	// TextCodeRegistrationFailed identifies registration rejections such as a
	// duplicate email.
	TextCodeRegistrationFailed = "REGISTRATION_FAILED"
	// TextCodePasswordResetFailed identifies password reset request or
	// confirmation rejections.
	TextCodePasswordResetFailed = "PASSWORD_RESET_FAILED"
	// TextCodePasswordChangeFailed identifies rejected authenticated password
	// changes.
	TextCodePasswordChangeFailed = "PASSWORD_CHANGE_FAILED"
	// TextCodeSessionExpired identifies a 401 on an authenticated call, the
	// authoritative expiry/revocation signal.
	TextCodeSessionExpired = "SESSION_EXPIRED"
	// TextCodeStorageFailure identifies an unavailable persistence layer.
	TextCodeStorageFailure = "SESSION_STORAGE_FAILURE"
	// TextCodeUnknownRole identifies a principal whose role is outside the
	// known set; such principals are never routed anywhere.
	TextCodeUnknownRole = "UNKNOWN_ROLE"
	// TextCodeInvalidSessionTransition identifies a session lifecycle change
	// the state machine does not allow.
	TextCodeInvalidSessionTransition = "INVALID_SESSION_TRANSITION"
)

// ErrAuthenticationFailed is returned when the backend rejects credentials.
var ErrAuthenticationFailed = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeAuthenticationFailed).
	WithCode(goerrors.CodeUnauthorized)

// ErrRegistrationFailed is returned when the backend rejects a registration.
var ErrRegistrationFailed = goerrors.New("unable to register the account", goerrors.CategoryConflict).
	WithTextCode(TextCodeRegistrationFailed).
	WithCode(goerrors.CodeConflict)

// ErrPasswordResetFailed is returned on password reset rejection. The message
// never discloses whether the email is registered.
var ErrPasswordResetFailed = goerrors.New("unable to process the password reset", goerrors.CategoryOperation).
	WithTextCode(TextCodePasswordResetFailed).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordChangeFailed is returned when an authenticated password change
// is rejected.
var ErrPasswordChangeFailed = goerrors.New("unable to change the password", goerrors.CategoryOperation).
	WithTextCode(TextCodePasswordChangeFailed).
	WithCode(goerrors.CodeBadRequest)

// ErrSessionExpired signals that the bearer token was rejected by the
// backend. Consumers react by logging out and re-routing to login; see
// SessionContext.HandleAuthError.
var ErrSessionExpired = goerrors.New("session expired or revoked", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrStorage signals that the session store could not persist or clear
// state. Fatal to the current operation, never to the process.
var ErrStorage = goerrors.New("session storage unavailable", goerrors.CategoryInternal).
	WithTextCode(TextCodeStorageFailure).
	WithCode(goerrors.CodeInternal)

// ErrUnknownRole is returned when an authenticated principal carries a role
// outside the known set.
var ErrUnknownRole = goerrors.New("principal role is not recognized", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnknownRole).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidTransition is returned when a requested session state change is
// not allowed.
var ErrInvalidTransition = goerrors.New("invalid session state transition", goerrors.CategoryConflict).
	WithTextCode(TextCodeInvalidSessionTransition).
	WithCode(goerrors.CodeConflict)

// IsSessionExpired reports whether err derives from a rejected bearer token.
func IsSessionExpired(err error) bool {
	return hasTextCode(err, TextCodeSessionExpired)
}

// IsAuthenticationError reports whether err derives from rejected
// credentials.
func IsAuthenticationError(err error) bool {
	return hasTextCode(err, TextCodeAuthenticationFailed)
}

// IsStorageError reports whether err derives from the persistence layer.
func IsStorageError(err error) bool {
	return hasTextCode(err, TextCodeStorageFailure)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// withMessage clones base and replaces its user-displayable message, keeping
// category, code and text code intact. Used to surface backend-provided
// messages without losing classification.
func withMessage(base *goerrors.Error, message string) *goerrors.Error {
	clone := base.Clone()
	if message != "" {
		clone.Message = message
	}
	return clone
}
