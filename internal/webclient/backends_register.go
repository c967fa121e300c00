package webclient

import "github.com/raysh454/phishguard/internal/logging"

func init() {
	RegisterDefaultBackends()
}

// RegisterDefaultBackends registers the built-in backends with the factory.
func RegisterDefaultBackends() {
	RegisterBackend(string(ClientNetHTTP), func(cfg Config, logger logging.Logger) (WebClient, error) {
		return NewNetHTTPClient(cfg, logger, nil)
	})
}
