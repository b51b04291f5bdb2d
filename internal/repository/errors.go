package repository

import "errors"

// Common repository errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInviteNotFound     = errors.New("invite not found")
	ErrPermissionNotFound = errors.New("permission not found")

	// ErrEmailTaken is returned when an identity with the same email exists
	ErrEmailTaken = errors.New("email already registered")

	ErrUnknownCapability = errors.New("unknown capability")
)
