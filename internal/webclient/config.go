package webclient

import "time"

type Client string

const (
	ClientNetHTTP Client = "nethttp"
)

// NoTimeout disables the transport-level timeout; callers bound requests
// through their context instead.
const NoTimeout time.Duration = -1

// Config selects and tunes the WebClient backend.
type Config struct {
	Client Client

	// Timeout bounds a whole exchange at the transport level. Zero means 30s,
	// NoTimeout (any negative value) means no limit.
	Timeout time.Duration

	// MaxBodyBytes caps how much of a response body is read. Zero means 4 MiB.
	MaxBodyBytes int64

	// UserAgent is sent on every request when non-empty.
	UserAgent string
}

// DefaultConfig returns the net/http backend with its default limits.
func DefaultConfig() Config {
	return Config{
		Client:       ClientNetHTTP,
		Timeout:      30 * time.Second,
		MaxBodyBytes: 4 << 20,
		UserAgent:    "phishguard/0.1",
	}
}
