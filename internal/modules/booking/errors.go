package booking

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("booking not found")
	ErrForbidden    = errors.New("booking belongs to another user")
	ErrSlotConflict = errors.New("slot already booked")
	ErrInvalidState = errors.New("booking is not in a cancellable state")
	ErrPastSlot     = errors.New("slot is in the past")
)
