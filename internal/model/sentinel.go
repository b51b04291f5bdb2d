package model

import (
	"errors"

	"github.com/google/uuid"
)

// UnassignedUserID is the reserved assignee id clients use for tasks nobody
// owns. It never appears in storage, where unassigned is a NULL assigned_to.
const UnassignedUserID = "W2fwORpFcBjiTBICwnwm"

var ErrInvalidAssignee = errors.New("invalid assignee id")

// FormatAssignee renders an assignee for the wire.
func FormatAssignee(id *uuid.UUID) string {
	if id == nil {
		return UnassignedUserID
	}
	return id.String()
}

// ParseAssignee accepts a user id, the sentinel, or an empty string.
func ParseAssignee(s string) (*uuid.UUID, error) {
	if s == "" || s == UnassignedUserID {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, ErrInvalidAssignee
	}
	return &id, nil
}
