package cache

import (
	"fmt"
	"time"
)

// Predefined errors
var (
	// ErrInvalidConfig is the base of every configuration validation error,
	// so callers can match the whole family with errors.Is
	ErrInvalidConfig = fmt.Errorf("cache: invalid config")
)

// Error constructors

// ErrInvalidName returns an error for an invalid cache name
func ErrInvalidName(name string) error {
	return fmt.Errorf("%w: name %q (must be non-empty)", ErrInvalidConfig, name)
}

// ErrInvalidDefaultTTL returns an error for an invalid default TTL
func ErrInvalidDefaultTTL(ttl time.Duration) error {
	return fmt.Errorf("%w: default ttl %v (must be > 0)", ErrInvalidConfig, ttl)
}

// ErrInvalidPattern wraps a regular-expression compilation failure for an
// invalidation pattern
func ErrInvalidPattern(pattern string, err error) error {
	return fmt.Errorf("cache: invalid pattern %q: %w", pattern, err)
}

// ErrTypeMismatch is returned when a cached value does not have the type the
// caller asked for
func ErrTypeMismatch(key string) error {
	return fmt.Errorf("cache: cached value for key %q has unexpected type", key)
}
