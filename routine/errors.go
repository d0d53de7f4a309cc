package routine

import "fmt"

// ErrPanicRecovered is the base of every error produced from a recovered
// goroutine panic, so callers can match the family with errors.Is
var ErrPanicRecovered = fmt.Errorf("routine: panic recovered")

// ErrPanic wraps the recovered panic value
func ErrPanic(recovered any) error {
	return fmt.Errorf("%w: %v", ErrPanicRecovered, recovered)
}
