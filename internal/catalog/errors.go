package catalog

import "errors"

// Domain errors for the catalog package.
var (
	// ErrInvalidRow is returned when a seed row cannot be parsed.
	ErrInvalidRow = errors.New("catalog: invalid row")

	// ErrInvalidPoint is returned when a point fails validation.
	ErrInvalidPoint = errors.New("catalog: invalid measurement point")
)
