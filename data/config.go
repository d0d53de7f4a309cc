package data

import "time"

// Config holds the per-entity cache TTLs and the remote-change refresh
// delay. Frequently mutated collections get the short TTL; slow-changing
// entities the long one.
type Config struct {
	// PlaceTTL caches single place records
	// default: 10 * time.Minute
	PlaceTTL time.Duration `mapstructure:"place_ttl"`
	// ReviewsTTL caches review lists, summaries and places-with-reviews
	// default: 2 * time.Minute
	ReviewsTTL time.Duration `mapstructure:"reviews_ttl"`
	// GroupsTTL caches group lists and member lists
	// default: 5 * time.Minute
	GroupsTTL time.Duration `mapstructure:"groups_ttl"`
	// RefreshDelay is waited after a remote change before re-fetching, to
	// absorb the backend's replication lag
	// default: 300 * time.Millisecond
	RefreshDelay time.Duration `mapstructure:"refresh_delay"`
}

// DefaultConfig returns the default configuration for Service
func DefaultConfig() *Config {
	return &Config{
		PlaceTTL:     10 * time.Minute,
		ReviewsTTL:   2 * time.Minute,
		GroupsTTL:    5 * time.Minute,
		RefreshDelay: 300 * time.Millisecond,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.PlaceTTL <= 0 {
		return ErrInvalidTTL("place_ttl", c.PlaceTTL)
	}
	if c.ReviewsTTL <= 0 {
		return ErrInvalidTTL("reviews_ttl", c.ReviewsTTL)
	}
	if c.GroupsTTL <= 0 {
		return ErrInvalidTTL("groups_ttl", c.GroupsTTL)
	}
	if c.RefreshDelay < 0 {
		return ErrInvalidTTL("refresh_delay", c.RefreshDelay)
	}
	return nil
}
