package backend

// Config holds configuration for the Supabase backend client
type Config struct {
	// URL is the Supabase project URL (required)
	URL string `mapstructure:"url"`
	// APIKey is the project's anon (publishable) key (required)
	APIKey string `mapstructure:"api_key"`
	// Schema is the Postgres schema queried through PostgREST
	// default: "public"
	Schema string `mapstructure:"schema"`
}

// DefaultConfig returns the default configuration for the backend client.
// URL and APIKey have no defaults and must be explicitly set.
func DefaultConfig() *Config {
	return &Config{
		Schema: "public",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrInvalidConfig("url must be non-empty")
	}
	if c.APIKey == "" {
		return ErrInvalidConfig("api_key must be non-empty")
	}
	if c.Schema == "" {
		return ErrInvalidConfig("schema must be non-empty")
	}
	return nil
}
