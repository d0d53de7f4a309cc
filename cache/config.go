package cache

import "time"

// Config holds configuration for Store
type Config struct {
	// Name is used for logging purposes to identify the cache
	// default: "store"
	Name string `mapstructure:"name"`
	// DefaultTTL is applied when an entry is stored without an explicit TTL
	// default: 5 * time.Minute
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

// DefaultConfig returns the default configuration for Store
func DefaultConfig() *Config {
	return &Config{
		Name:       "store",
		DefaultTTL: 5 * time.Minute,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Name == "" {
		return ErrInvalidName(c.Name)
	}
	if c.DefaultTTL <= 0 {
		return ErrInvalidDefaultTTL(c.DefaultTTL)
	}
	return nil
}
