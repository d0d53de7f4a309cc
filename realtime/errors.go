package realtime

import "fmt"

// Predefined errors
var (
	// ErrDispatcherClosed is returned when publishing to a closed dispatcher
	ErrDispatcherClosed = fmt.Errorf("realtime: dispatcher is closed")
)

// ErrInvalidInitialBuffer returns an error for an invalid buffer capacity
func ErrInvalidInitialBuffer(size int) error {
	return fmt.Errorf("realtime: invalid initial buffer: %d (must be > 0)", size)
}
