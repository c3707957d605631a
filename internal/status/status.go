package status

import "errors"

var (
	ErrForbidden          = errors.New("authz: role not allowed")
	ErrEventNotFound      = errors.New("event: event not found")
	ErrPostNotFound       = errors.New("post: post not found")
	ErrUserNotFound       = errors.New("user: user not found")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserAccountNeeded  = errors.New("auth: a users account is required")
	ErrRegistrationClosed = errors.New("registration: registration closed")
	ErrAlreadyRegistered  = errors.New("registration: already registered")
	ErrNotRegistered      = errors.New("registration: registration not found")
	ErrFileTooLarge       = errors.New("upload: file too large")
	ErrFileTypeNotAllowed = errors.New("upload: file type not allowed")
)

// PermissionError reports which action a role was refused. It matches ErrForbidden with errors.Is.
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return "only editors and admins can " + e.Action
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}
