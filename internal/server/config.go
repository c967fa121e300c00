package server

import (
	"time"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/scan"
)

type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8080".
	ListenAddr string

	// Scan configures every session controller the server creates.
	Scan scan.Config

	// CookieName holds the session id of browser clients.
	CookieName string

	// PruneInterval is how often idle sessions are dropped.
	PruneInterval time.Duration

	Logger logging.Logger
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:    ":8080",
		Scan:          scan.DefaultConfig(),
		CookieName:    "phishguard_session",
		PruneInterval: time.Minute,
	}
}
