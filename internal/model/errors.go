package model

import "errors"

var (
	// ErrNotFound is returned by stores when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUserNotFound is returned when an operation references an unknown user.
	ErrUserNotFound = errors.New("user not found")
)
