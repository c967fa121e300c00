package scan

import "time"

type Config struct {
	// Timeout bounds a single prediction request. Zero disables it.
	Timeout time.Duration

	// SessionTTL is how long an untouched session survives in the Manager.
	SessionTTL time.Duration

	// SubscriberBuffer is the channel capacity handed to each subscriber.
	SubscriberBuffer int
}

func DefaultConfig() Config {
	return Config{
		Timeout:          30 * time.Second,
		SessionTTL:       time.Hour,
		SubscriberBuffer: 8,
	}
}
