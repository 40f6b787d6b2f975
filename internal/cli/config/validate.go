package config

import "fmt"

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	return nil
}

// ValidateServe checks the settings the serve command depends on.
// Help and migrate commands work without them.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required to issue and verify tokens\nHint: set EXPENSED_JWT__SECRET or jwt.secret in expensed.yaml")
	}
	return nil
}
