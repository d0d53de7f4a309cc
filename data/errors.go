package data

import (
	"fmt"
	"time"
)

// Predefined errors
var (
	// ErrMissingDependency is returned when the service is built without a
	// store or source
	ErrMissingDependency = fmt.Errorf("data: store and source are required")
)

// ErrInvalidTTL returns an error for an invalid duration field
func ErrInvalidTTL(field string, d time.Duration) error {
	return fmt.Errorf("data: invalid %s: %v", field, d)
}
