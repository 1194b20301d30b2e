package payment

import "errors"

var (
	ErrValidation       = errors.New("validation error")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrExternalService  = errors.New("payment provider failure")
	ErrMinTopup         = errors.New("top-up below minimum")
)
