package realtime

// Config holds configuration for Dispatcher
type Config struct {
	// InitialBuffer is the initial capacity of the event buffer.
	// The buffer itself grows without bound.
	// default: 16
	InitialBuffer int `mapstructure:"initial_buffer"`
}

// DefaultConfig returns the default configuration for Dispatcher
func DefaultConfig() *Config {
	return &Config{
		InitialBuffer: 16,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.InitialBuffer <= 0 {
		return ErrInvalidInitialBuffer(c.InitialBuffer)
	}
	return nil
}
