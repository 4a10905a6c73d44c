package config

import (
	"fmt"
	"time"
)

var supportedDrivers = map[string]struct{}{
	"sqlite":   {},
	"libsql":   {},
	"mysql":    {},
	"postgres": {},
}

// Validate checks the loaded configuration. Load calls it automatically.
func (c *Config) Validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("mode must be dev or release (got %q)", c.Mode)
	}
	if _, ok := supportedDrivers[c.DB.Driver]; !ok {
		return fmt.Errorf("database.driver %q is not supported", c.DB.Driver)
	}
	if c.DB.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}
	if c.App.CacheSize < 0 {
		return fmt.Errorf("app.cache_size must be >= 0 (got %d)", c.App.CacheSize)
	}
	if c.Assistant.MaxDuration <= 0 {
		return fmt.Errorf("assistant.max_duration must be > 0")
	}
	if c.Assistant.MaxToolRounds <= 0 {
		return fmt.Errorf("assistant.max_tool_rounds must be > 0 (got %d)", c.Assistant.MaxToolRounds)
	}
	if c.Mode == "release" && (c.Server.Cert == "" || c.Server.Key == "") {
		return fmt.Errorf("server.cert and server.key are required in release mode")
	}
	return nil
}
