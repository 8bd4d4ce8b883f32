package payment

import "errors"

var (
	ErrInvalidSignature = errors.New("webhook signature mismatch")
	ErrOrderNotFound    = errors.New("no booking for order code")
	ErrUnknownStatus    = errors.New("unknown gateway status")
)
