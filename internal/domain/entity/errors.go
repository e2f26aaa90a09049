package entity

import "errors"

var (
	ErrIDIsRequired           = errors.New("id is required")
	ErrUnknownStatus          = errors.New("unknown status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidCoordinate      = errors.New("coordinate out of range")
	ErrOrderMismatch          = errors.New("order id mismatch")
)
