package core

import (
	"errors"

	"github.com/vovakirdan/espachat/internal/auth"
)

// ErrorKind classifies a failed operation.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindAuth       ErrorKind = "auth"
	KindConflict   ErrorKind = "conflict"
	KindInternal   ErrorKind = "internal"
)

// Error codes for domain errors.
const (
	ErrCodeUsage          = "usage"
	ErrCodeUnknownCommand = "unknown_command"
	ErrCodeBanned         = "banned"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeInternal       = "internal"

	ErrCodeNameInvalid = "name_invalid"
	ErrCodeNameTaken   = "name_taken"
	ErrCodeNameInUse   = "name_in_use"

	ErrCodePasswordMismatch     = "password_mismatch"
	ErrCodePasswordTooShort     = "password_too_short"
	ErrCodePasswordTooLong      = "password_too_long"
	ErrCodeOldPasswordIncorrect = "old_password_incorrect"
	ErrCodeNameRegistered       = "name_registered"
	ErrCodeAlreadyLoggedIn      = "already_logged_in"
	ErrCodeInvalidCredentials   = "invalid_credentials"
	ErrCodeNotRegistered        = "not_registered"

	ErrCodeUserNotFound       = "user_not_found"
	ErrCodeTargetIsAdmin      = "target_is_admin"
	ErrCodeNotAdmin           = "not_admin"
	ErrCodeNotBanned          = "not_banned"
	ErrCodeGuestCannotBeAdmin = "guest_cannot_be_admin"
	ErrCodeTopicTooShort      = "topic_too_short"
)

// CoreError wraps a kind, a code and a human-readable message.
type CoreError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(kind ErrorKind, code, msg string) *CoreError {
	return &CoreError{Kind: kind, Code: code, Message: msg}
}

func validationError(code, msg string) *CoreError {
	return coreError(KindValidation, code, msg)
}

func usageError(msg string) *CoreError {
	return coreError(KindValidation, ErrCodeUsage, msg)
}

func notFoundError(code, msg string) *CoreError {
	return coreError(KindNotFound, code, msg)
}

func authError(code, msg string) *CoreError {
	return coreError(KindAuth, code, msg)
}

func conflictError(code, msg string) *CoreError {
	return coreError(KindConflict, code, msg)
}

func internalError() *CoreError {
	return &CoreError{
		Kind:    KindInternal,
		Code:    ErrCodeInternal,
		Message: "Interner Fehler. Bitte versuche es später erneut.",
	}
}

// fromAccountError maps account service sentinels without a name in the
// message. Unknown errors become internal errors.
func fromAccountError(err error) *CoreError {
	var ce *CoreError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, auth.ErrPasswordMismatch):
		return validationError(ErrCodePasswordMismatch, "Passwörter stimmen nicht überein. Bitte versuche es erneut.")
	case errors.Is(err, auth.ErrPasswordTooShort):
		return validationError(ErrCodePasswordTooShort, "Passwort muss mindestens 8 Zeichen lang sein.")
	case errors.Is(err, auth.ErrPasswordTooLong):
		return validationError(ErrCodePasswordTooLong, "Passwort darf maximal 20 Zeichen lang sein.")
	case errors.Is(err, auth.ErrOldPasswordIncorrect):
		return authError(ErrCodeOldPasswordIncorrect, "Das alte Passwort ist falsch. Bitte versuche es erneut.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return authError(ErrCodeInvalidCredentials, "Ungültiger Benutzername oder falsches Passwort.")
	case errors.Is(err, auth.ErrBanned):
		return authError(ErrCodeBanned, "Du wurdest gebannt und kannst dich nicht einloggen.")
	case errors.Is(err, auth.ErrGuestCannotBeAdmin):
		return validationError(ErrCodeGuestCannotBeAdmin, "Gäste können nicht Administrator werden.")
	default:
		return internalError()
	}
}
