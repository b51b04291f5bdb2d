package service

import (
	"errors"
	"fmt"

	"collabolab/internal/model"
	"collabolab/internal/repository"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrDeliveryFailure    = errors.New("push delivery failed")
	ErrOwnerCannotLeave   = errors.New("the project owner cannot leave the project")
	ErrInvalidAssignee    = model.ErrInvalidAssignee
	ErrInvalidStatus      = errors.New("invalid task status")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var notFoundErrors = []error{
	repository.ErrUserNotFound,
	repository.ErrIdentityNotFound,
	repository.ErrProjectNotFound,
	repository.ErrTaskNotFound,
	repository.ErrInviteNotFound,
	repository.ErrPermissionNotFound,
}

// wrapNotFound tags repository lookups that found nothing with ErrNotFound
// and leaves every other error untouched.
func wrapNotFound(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}
	return err
}
