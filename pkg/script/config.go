package script

import (
	"fmt"
	"io"
	"time"
)

// SecurityLevel defines the restrictions applied to the script runtime.
// Strict also disables eval; permissive leaves built-ins unfrozen.
const (
	SecurityLevelStrict     = "strict"
	SecurityLevelStandard   = "standard"
	SecurityLevelPermissive = "permissive"
)

// Config configures a script handler
type Config struct {
	// Function is the name of the global function invoked for every item (default: "handle")
	Function string

	// UserData is passed unchanged as the second argument on every call
	UserData interface{}

	// Timeout bounds a single call; zero means only the caller's context applies
	Timeout time.Duration

	// SecurityLevel defines security restrictions (strict, standard, permissive)
	SecurityLevel string

	// MaxStackDepth is the maximum call stack depth (0 = goja default)
	MaxStackDepth int

	// Console receives console.log output; nil leaves console undefined
	Console io.Writer
}

// DefaultConfig returns the default script configuration
func DefaultConfig() Config {
	return Config{
		Function:      "handle",
		Timeout:       5 * time.Second,
		SecurityLevel: SecurityLevelStandard,
		MaxStackDepth: 256,
	}
}

// ApplyDefaults sets default values for empty configuration fields
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Function == "" {
		c.Function = defaults.Function
	}
	if c.SecurityLevel == "" {
		c.SecurityLevel = defaults.SecurityLevel
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	switch c.SecurityLevel {
	case SecurityLevelStrict, SecurityLevelStandard, SecurityLevelPermissive:
	default:
		return fmt.Errorf("invalid security level %q", c.SecurityLevel)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.MaxStackDepth < 0 {
		return fmt.Errorf("max stack depth cannot be negative")
	}
	return nil
}
