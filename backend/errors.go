package backend

import "fmt"

// Predefined errors
var (
	// ErrNilConfig is returned when no configuration is provided
	ErrNilConfig = fmt.Errorf("backend: config is required")
)

// ErrInvalidConfig returns a configuration error
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("backend: invalid config: %s", msg)
}

// ErrConnect wraps a client construction failure
func ErrConnect(err error) error {
	return fmt.Errorf("backend: failed to create client: %w", err)
}

// ErrAuth wraps an auth service failure
func ErrAuth(err error) error {
	return fmt.Errorf("backend: auth failed: %w", err)
}

// ErrQuery wraps a read query failure
func ErrQuery(table string, err error) error {
	return fmt.Errorf("backend: query on %s failed: %w", table, err)
}

// ErrMutation wraps a write failure
func ErrMutation(table string, err error) error {
	return fmt.Errorf("backend: mutation on %s failed: %w", table, err)
}

// ErrNotFound reports a missing entity
func ErrNotFound(entity, id string) error {
	return fmt.Errorf("backend: %s %q not found", entity, id)
}
