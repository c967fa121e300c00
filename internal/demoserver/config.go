package demoserver

import "time"

// Config holds configuration for the demo prediction backend.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// SlowDelay is how long "slow" URLs take to answer. It is meant to
	// exceed the scanner's request timeout.
	SlowDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:      8000,
		SlowDelay: 45 * time.Second,
	}
}
