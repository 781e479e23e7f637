package domain

import "errors"

// DateLayout is the calendar date format used for check-in, check-out and due dates.
const DateLayout = "2006-01-02"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)
