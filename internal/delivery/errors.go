package delivery

import "errors"

// Domain errors for delivery.
var (
	// ErrRejected is returned when a sink's endpoint refuses a payload.
	ErrRejected = errors.New("delivery: payload rejected")

	// ErrEncode is returned when a payload cannot be serialised.
	ErrEncode = errors.New("delivery: encoding payload")
)
