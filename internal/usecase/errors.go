package usecase

import "errors"

var (
	// ErrInvalidCredentials covers every login failure: unknown email, wrong
	// password, deactivated account, and expired temporary password are
	// indistinguishable so login attempts cannot probe for accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated indicates the session token does not resolve to an
	// active user.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrPermissionDenied indicates the acting user lacks the capability.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates the email is already registered, active or not.
	ErrEmailTaken = errors.New("email already in use")

	// ErrSelfDeactivation indicates an admin attempted to deactivate their own account.
	ErrSelfDeactivation = errors.New("cannot deactivate own account")

	// ErrInvalidResetCode covers every reset failure: unknown email, wrong
	// code, expired code, and already-consumed code look identical.
	ErrInvalidResetCode = errors.New("invalid or expired reset code")

	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.New("invalid role")

	// ErrDossierNotFound indicates the referenced dossier does not exist.
	ErrDossierNotFound = errors.New("dossier not found")

	// ErrTaskNotFound indicates the referenced dossier task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrReferenceTaken indicates the dossier reference is already registered.
	ErrReferenceTaken = errors.New("dossier reference already in use")
)
