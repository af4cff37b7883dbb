package collect

import "errors"

// Domain errors for collection.
var (
	// ErrConnectFailed is returned when a Modbus session cannot be opened.
	ErrConnectFailed = errors.New("collect: connect failed")

	// ErrReadFailed is returned when a register read fails or returns the
	// wrong number of words.
	ErrReadFailed = errors.New("collect: register read failed")

	// ErrBatchTimeout is returned when a batch exceeds its deadline.
	ErrBatchTimeout = errors.New("collect: batch deadline exceeded")

	// ErrNonFinite is returned when a meter reports NaN or an infinity.
	ErrNonFinite = errors.New("collect: non-finite value")
)
